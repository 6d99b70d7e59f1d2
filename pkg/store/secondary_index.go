package store

import (
	"github.com/ssargent/freyjadb/pkg/index"
)

// FieldExtractor pulls a named field's value out of a stored record's raw
// bytes. It mirrors pkg/query.FieldExtractor structurally so a
// *query.JSONFieldExtractor can be passed straight into
// CreateSecondaryIndex without pkg/store importing pkg/query (which would
// cycle back through pkg/store).
type FieldExtractor interface {
	Extract(value []byte, field string) (interface{}, error)
}

// secondaryIndexBinding ties a declared field to the extractor that reads
// it out of a record's value, so PutIndexed knows which fields to index on
// every write.
type secondaryIndexBinding struct {
	field     string
	extractor FieldExtractor
}

// IndexManagerHandle owns the set of secondary indexes a KVStore keeps in
// sync with its primary log. It wraps pkg/index.IndexManager so KVStore
// itself never has to reason about B+Trees or ordered key encoding.
type IndexManagerHandle struct {
	mgr *index.IndexManager
	dir string
}

func newIndexManagerHandle(dataDir string) *IndexManagerHandle {
	return &IndexManagerHandle{
		mgr: index.NewIndexManager(bptreeOrder),
		dir: dataDir,
	}
}

// bptreeOrder is the branching factor used for every secondary index's
// B+Tree. It is not user-configurable today; KVStoreConfig has no field
// for it because no caller has yet needed one size to differ from another.
const bptreeOrder = 32

// Manager exposes the underlying index.IndexManager for callers (e.g.
// pkg/query.SimpleQueryEngine) that need direct access to run range scans.
func (h *IndexManagerHandle) Manager() *index.IndexManager {
	return h.mgr
}

// CreateSecondaryIndex declares that field should be kept indexed on every
// subsequent PutIndexed call, using extractor to read the field's value out
// of each record. It is idempotent: calling it again for the same field
// just replaces the extractor used going forward.
func (kv *KVStore) CreateSecondaryIndex(field string, extractor FieldExtractor) error {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if kv.indexManager == nil {
		kv.indexManager = newIndexManagerHandle(kv.config.DataDir)
	}

	for i, b := range kv.indexBindings {
		if b.field == field {
			kv.indexBindings[i].extractor = extractor
			return nil
		}
	}
	kv.indexBindings = append(kv.indexBindings, secondaryIndexBinding{field: field, extractor: extractor})
	kv.indexManager.mgr.GetOrCreateIndex(field)
	return nil
}

// IndexManager returns the store's secondary-index manager, or nil if
// neither CreateSecondaryIndex nor LoadIndexes has been called.
func (kv *KVStore) IndexManager() *index.IndexManager {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if kv.indexManager == nil {
		return nil
	}
	return kv.indexManager.mgr
}

// PutIndexed writes key/value through the normal Put path and then updates
// every bound secondary index with the fields extracted from value. A field
// that can't be extracted (e.g. missing from a JSON record) is skipped for
// that record rather than failing the write: indexing is best-effort over
// a primary write that already succeeded.
func (kv *KVStore) PutIndexed(key, value []byte) error {
	if err := kv.Put(key, value); err != nil {
		return err
	}

	kv.mutex.Lock()
	bindings := append([]secondaryIndexBinding(nil), kv.indexBindings...)
	mgr := kv.indexManager
	kv.mutex.Unlock()

	if mgr == nil || len(bindings) == 0 {
		return nil
	}

	for _, b := range bindings {
		fieldValue, err := b.extractor.Extract(value, b.field)
		if err != nil {
			continue
		}
		idx := mgr.mgr.GetOrCreateIndex(b.field)
		if err := idx.Insert(fieldValue, key); err != nil {
			continue
		}
	}
	return nil
}

// SaveIndexes persists every secondary index to disk under the store's
// data directory.
func (kv *KVStore) SaveIndexes() error {
	kv.mutex.Lock()
	mgr := kv.indexManager
	kv.mutex.Unlock()

	if mgr == nil {
		return nil
	}
	return mgr.mgr.SaveAll(mgr.dir)
}

// LoadIndexes restores every secondary index previously saved under the
// store's data directory. Call it once after Open, before relying on any
// index for reads.
func (kv *KVStore) LoadIndexes() error {
	kv.mutex.Lock()
	if kv.indexManager == nil {
		kv.indexManager = newIndexManagerHandle(kv.config.DataDir)
	}
	mgr := kv.indexManager
	kv.mutex.Unlock()

	return mgr.mgr.LoadAll(mgr.dir)
}
