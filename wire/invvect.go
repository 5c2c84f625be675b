package wire

import "io"

// InvVect is a single advertised inventory vector, as carried in inv
// and getdata messages.
type InvVect struct {
	Hash ShaHash
}

// ReadInvVectList decodes a varint count followed by that many
// InvVect entries, as used by inv and getdata.
func ReadInvVectList(r io.Reader, maxCount int) ([]*InvVect, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > uint64(maxCount) {
		return nil, ErrTooLarge
	}
	list := make([]*InvVect, 0, count)
	for i := uint64(0); i < count; i++ {
		hash, err := ReadShaHash(r)
		if err != nil {
			return nil, err
		}
		list = append(list, &InvVect{Hash: *hash})
	}
	return list, nil
}

// WriteInvVectList encodes a varint count followed by the given
// InvVect entries.
func WriteInvVectList(w io.Writer, list []*InvVect) error {
	if err := WriteVarInt(w, uint64(len(list))); err != nil {
		return err
	}
	for _, iv := range list {
		h := iv.Hash
		if err := WriteShaHash(w, &h); err != nil {
			return err
		}
	}
	return nil
}
