// Package repo defines the message Persistence capability: the
// narrow repository interface the core uses to track outbound
// message delivery state, independent of whatever SQL schema backs it
// (spec.md §1 treats the SQL adapter itself as out of scope). The
// schema carries the additive columns §6 names: ack_data, ttl,
// retries, next_try.
package repo

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a message id has no repository record.
var ErrNotFound = errors.New("repo: message not found")

// MessageRecord is one row of the message repository schema (§6).
type MessageRecord struct {
	ID      [16]byte
	AckData []byte // nullable 32-byte blob
	TTL     int64  // default 0
	Retries int    // default 0
	NextTry *time.Time
}

// MessageRepo is the narrow persistence contract the core interacts
// with; a SQL-backed adapter implements it behind the scenes.
type MessageRepo interface {
	Insert(rec MessageRecord) error
	Get(id [16]byte) (MessageRecord, error)
	Update(id [16]byte, fn func(rec *MessageRecord)) error
	Delete(id [16]byte) error

	// FindByAckData looks up the record whose ack_data matches data,
	// the query a real ack arriving off the wire needs: the sender
	// has no way to know the record's ID from the rebroadcast bytes
	// alone.
	FindByAckData(data []byte) (MessageRecord, bool, error)
}

// MemMessageRepo is an in-memory MessageRepo reference implementation,
// concurrency-safe, matching the mutex-guarded-map style used
// elsewhere in this module.
type MemMessageRepo struct {
	mu      sync.Mutex
	records map[[16]byte]MessageRecord
}

// NewMemMessageRepo returns an empty MemMessageRepo.
func NewMemMessageRepo() *MemMessageRepo {
	return &MemMessageRepo{records: make(map[[16]byte]MessageRecord)}
}

var _ MessageRepo = (*MemMessageRepo)(nil)

func (r *MemMessageRepo) Insert(rec MessageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	return nil
}

func (r *MemMessageRepo) Get(id [16]byte) (MessageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return MessageRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemMessageRepo) Update(id [16]byte, fn func(rec *MessageRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	fn(&rec)
	r.records[id] = rec
	return nil
}

func (r *MemMessageRepo) Delete(id [16]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *MemMessageRepo) FindByAckData(data []byte) (MessageRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if len(rec.AckData) > 0 && bytes.Equal(rec.AckData, data) {
			return rec, true, nil
		}
	}
	return MessageRecord{}, false, nil
}
