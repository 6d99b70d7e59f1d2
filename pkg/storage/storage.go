// Package storage provides Pebble-backed durability for ordered key
// spaces. Pebble is an LSM-tree embedded database whose own key ordering
// is byte-wise lexicographic — the same comparison pkg/codec's encodings
// are built around — which makes it a natural persistence layer for
// pkg/index's composite keys: a forward Pebble iteration over a saved
// index is an independent witness that the encoding is order preserving.
package storage

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

// snapshotMetaKey is a reserved key PutBatch stamps with the writing
// store's snapshotID, so a later reader can tell which write pass produced
// the key space currently on disk. It is excluded from All/Range, which
// only ever return the ordered index entries themselves.
var snapshotMetaKey = []byte("\x00\x00freyja:snapshot")

// IndexStore persists an ordered key/value space backed by a Pebble
// database rooted at a directory.
type IndexStore struct {
	db         *pebble.DB
	snapshotID ksuid.KSUID
}

// OpenIndexStore opens (creating if necessary) a Pebble database at path.
func OpenIndexStore(path string) (*IndexStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("storage: open index store at %s: %w", path, err)
	}
	return &IndexStore{db: db, snapshotID: ksuid.New()}, nil
}

// Put writes a single key/value pair.
func (s *IndexStore) Put(key, value []byte) error {
	if err := s.db.Set(key, value, pebble.NoSync); err != nil {
		return fmt.Errorf("storage: put: %w", err)
	}
	return nil
}

// PutBatch writes every entry in one Pebble batch, committed atomically,
// and stamps the batch with this store handle's snapshotID under
// snapshotMetaKey so LoadSnapshotID can later report which write produced
// the persisted key space.
func (s *IndexStore) PutBatch(entries map[string][]byte) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for k, v := range entries {
		if err := batch.Set([]byte(k), v, nil); err != nil {
			return fmt.Errorf("storage: batch set: %w", err)
		}
	}
	if err := batch.Set(snapshotMetaKey, s.snapshotID.Bytes(), nil); err != nil {
		return fmt.Errorf("storage: batch set snapshot id: %w", err)
	}
	if err := batch.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("storage: batch commit: %w", err)
	}
	return nil
}

// Get reads a single key's value.
func (s *IndexStore) Get(key []byte) ([]byte, error) {
	data, closer, err := s.db.Get(key)
	if err != nil {
		return nil, fmt.Errorf("storage: get: %w", err)
	}
	defer closer.Close()

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Delete removes a key.
func (s *IndexStore) Delete(key []byte) error {
	if err := s.db.Delete(key, pebble.NoSync); err != nil {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}

// All returns every key/value pair in the store via a forward iteration,
// which Pebble guarantees returns keys in byte-wise ascending order. The
// reserved snapshot metadata entry is never included.
func (s *IndexStore) All() (map[string][]byte, error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("storage: new iterator: %w", err)
	}
	defer iter.Close()

	out := make(map[string][]byte)
	for iter.First(); iter.Valid(); iter.Next() {
		if bytes.Equal(iter.Key(), snapshotMetaKey) {
			continue
		}
		key := append([]byte(nil), iter.Key()...)
		val := append([]byte(nil), iter.Value()...)
		out[string(key)] = val
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("storage: iteration: %w", err)
	}
	return out, nil
}

// Range returns every key/value pair with key in [start, end), in order.
func (s *IndexStore) Range(start, end []byte) ([][2][]byte, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: start, UpperBound: end})
	if err != nil {
		return nil, fmt.Errorf("storage: new iterator: %w", err)
	}
	defer iter.Close()

	var out [][2][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		if bytes.Equal(iter.Key(), snapshotMetaKey) {
			continue
		}
		key := append([]byte(nil), iter.Key()...)
		val := append([]byte(nil), iter.Value()...)
		out = append(out, [2][]byte{key, val})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("storage: range iteration: %w", err)
	}
	return out, nil
}

// SnapshotID identifies the point in time this store handle was opened at.
func (s *IndexStore) SnapshotID() ksuid.KSUID {
	return s.snapshotID
}

// LoadSnapshotID reads back the snapshotID stamped by the most recent
// PutBatch call, letting a fresh store handle recognize the write pass
// that produced the key space it just opened. It returns false if no
// batch has ever been committed to this database.
func (s *IndexStore) LoadSnapshotID() (ksuid.KSUID, bool) {
	data, err := s.Get(snapshotMetaKey)
	if err != nil {
		return ksuid.Nil, false
	}
	id, err := ksuid.FromBytes(data)
	if err != nil {
		return ksuid.Nil, false
	}
	return id, true
}

// Close releases the underlying Pebble database.
func (s *IndexStore) Close() error {
	return s.db.Close()
}
