package obj

import "errors"

// Errors surfaced by object construction, signing, and PoW admission
// (§7).
var (
	// ErrInsufficientProofOfWork gates admission: an object whose
	// nonce fails the PoW check never reaches the inventory or the
	// flood-fill path.
	ErrInsufficientProofOfWork = errors.New("obj: insufficient proof of work")

	// ErrDecryptionFailed is returned when a payload's ciphertext
	// cannot be opened with the given private key.
	ErrDecryptionFailed = errors.New("obj: decryption failed")

	// ErrNotSigned is returned by operations that require a payload
	// already carry a signature.
	ErrNotSigned = errors.New("obj: payload is not signed")

	// ErrNotDecrypted is returned by operations that require a
	// payload already be in the Open (decrypted) state.
	ErrNotDecrypted = errors.New("obj: payload is not decrypted")

	// ErrSealed is returned when a mutation is attempted on an Object
	// whose payload bytes have already been memoized.
	ErrSealed = errors.New("obj: object is sealed, cannot mutate")

	// ErrUnknownObjectType is returned by the factory when no
	// registered variant matches the header's object type.
	ErrUnknownObjectType = errors.New("obj: unknown object type")

	// ErrDestinationAlreadySet is returned by Plaintext.SetTo when the
	// destination address has already been resolved once.
	ErrDestinationAlreadySet = errors.New("obj: destination already set")

	// ErrDestinationMismatch is returned by Plaintext.SetTo when the
	// supplied address's RIPE does not match the placeholder's RIPE.
	ErrDestinationMismatch = errors.New("obj: destination ripe mismatch")
)
