// Package index provides secondary, field-based indexes over FreyjaDB
// records. Each SecondaryIndex keeps an ordered composite key — the
// field's order-preserving encoding (pkg/codec) followed by the record's
// primary key — in an in-memory B+Tree (pkg/bptree), and can persist that
// ordered key space to a Pebble-backed store (pkg/storage) for durability.
package index

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/freyjadb/pkg/bptree"
	"github.com/ssargent/freyjadb/pkg/codec"
	"github.com/ssargent/freyjadb/pkg/storage"
)

// fieldTag identifies how a field value was encoded.
type fieldTag byte

const (
	tagInt64 fieldTag = iota
	tagUint64
	tagFloat64
	tagBool
	tagString
	tagOrdinal
)

// maxSuffixPaddingLen upper-bounds any primary key's byte length for range
// queries: appending this many 0xFF bytes to an encoded field value
// produces a key guaranteed to sort after every primary key sharing that
// field value, as long as no primary key exceeds this length. FreyjaDB
// does not bound primary key length elsewhere, so this is a practical,
// documented limit rather than a formal guarantee.
const maxSuffixPaddingLen = 1024

var maxSuffixPadding = strings.Repeat("\xff", maxSuffixPaddingLen)

// absoluteUpperBound sorts after any possible encoded key (the largest
// type tag is a handful of integers, so a run of 0xFF bytes wider than
// any single encoded value dominates every real key by its first byte).
var absoluteUpperBound = strings.Repeat("\xff", maxSuffixPaddingLen+16)

// encodeFieldValue appends the order-preserving encoding of value to buf,
// prefixed with a one-byte type tag. Numeric and boolean types use
// pkg/codec's fixed-width scalar codecs; strings use a direct byte copy
// with a NUL terminator, which orders correctly under byte comparison for
// any string that does not itself contain a NUL byte. That trick is kept
// local to this package rather than folded into pkg/codec, since the
// scalar codec family makes no claim about sortable string encodings.
//
// If idx was built with NewOrdinalSecondaryIndex, string values are instead
// treated as variant names and encoded with pkg/codec's OrdinalCodec, so
// the field sorts by declared variant order rather than alphabetically.
func (idx *SecondaryIndex) encodeFieldValue(buf *bytes.Buffer, value interface{}) error {
	if idx.ordinal != nil {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("index: ordinal field %s requires a string variant, got %T", idx.fieldName, value)
		}
		buf.WriteByte(byte(tagOrdinal))
		return idx.ordinal.EncodeOrdinal(buf, s)
	}

	switch v := value.(type) {
	case int:
		buf.WriteByte(byte(tagInt64))
		return codec.EncodeInt64(buf, int64(v))
	case int64:
		buf.WriteByte(byte(tagInt64))
		return codec.EncodeInt64(buf, v)
	case uint64:
		buf.WriteByte(byte(tagUint64))
		return codec.EncodeUint64(buf, v)
	case float64:
		buf.WriteByte(byte(tagFloat64))
		return codec.EncodeFloat64(buf, v)
	case bool:
		buf.WriteByte(byte(tagBool))
		return codec.EncodeBool(buf, v)
	case string:
		buf.WriteByte(byte(tagString))
		buf.WriteString(v)
		buf.WriteByte(0)
		return nil
	default:
		return fmt.Errorf("index: unsupported field value type %T", value)
	}
}

// SecondaryIndex manages a B+Tree-based index for a specific field.
type SecondaryIndex struct {
	fieldName string
	order     int
	tree      *bptree.BPlusTree[string, []byte]
	mutex     sync.RWMutex
	ordinal   *codec.OrdinalCodec[string]

	// lastSnapshotID is the snapshotID of the store that Load most recently
	// restored this index from, so callers can detect whether the on-disk
	// index was written by a different process than the one that last
	// wrote it (e.g. to decide whether a rebuild is warranted).
	lastSnapshotID    ksuid.KSUID
	hasLastSnapshotID bool
}

// NewSecondaryIndex creates a new secondary index for a field.
func NewSecondaryIndex(fieldName string, order int) *SecondaryIndex {
	return &SecondaryIndex{
		fieldName: fieldName,
		order:     order,
		tree:      bptree.NewBPlusTree[string, []byte](order),
	}
}

// NewOrdinalSecondaryIndex creates a secondary index over a field declared
// as a discrete, ordered enumeration: values are indexed by their position
// in variants (pkg/codec's OrdinalCodec, §4.6) rather than by natural Go
// comparison, so e.g. a "tier" field can be declared ["bronze", "silver",
// "gold"] and sort in that order regardless of alphabetical order. Every
// value later inserted, searched, or range-scanned on this index must be
// one of the declared variants.
func NewOrdinalSecondaryIndex(fieldName string, order int, variants []string) (*SecondaryIndex, error) {
	ordinal, err := codec.NewOrdinalCodec(variants)
	if err != nil {
		return nil, fmt.Errorf("index: ordinal index %s: %w", fieldName, err)
	}
	return &SecondaryIndex{
		fieldName: fieldName,
		order:     order,
		tree:      bptree.NewBPlusTree[string, []byte](order),
		ordinal:   ordinal,
	}, nil
}

// Insert adds a record to the secondary index. The index key is
// field_value ‖ primary_key, so lookups and range scans over the field
// value land on a contiguous, correctly ordered run of keys.
func (idx *SecondaryIndex) Insert(fieldValue interface{}, primaryKey []byte) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	key, err := idx.createIndexKey(fieldValue, primaryKey)
	if err != nil {
		return err
	}
	idx.tree.Insert(key, append([]byte(nil), primaryKey...))
	return nil
}

// Delete removes a record from the secondary index.
func (idx *SecondaryIndex) Delete(fieldValue interface{}, primaryKey []byte) bool {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	key, err := idx.createIndexKey(fieldValue, primaryKey)
	if err != nil {
		return false
	}
	return idx.tree.Delete(key)
}

// Search finds the primary keys of every record with an exact field value
// match.
func (idx *SecondaryIndex) Search(fieldValue interface{}) ([][]byte, error) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	prefix, err := idx.createFieldPrefix(fieldValue)
	if err != nil {
		return nil, err
	}

	entries := idx.tree.RangeEntries(prefix, prefix+maxSuffixPadding)
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out, nil
}

// SearchRange finds the primary keys of every record whose field value
// falls within [startValue, endValue] by default. exclusiveStart/
// exclusiveEnd narrow either bound to a strict (exclusive) comparison —
// field > value instead of field >= value, and field < value instead of
// field <= value, respectively. A nil bound means unbounded on that side
// and ignores the corresponding exclusive flag.
//
// A composite key is field_value ‖ primary_key, so every key sharing a
// field value forms a contiguous run starting at the bare encoded value
// and ending at that value plus maxSuffixPadding (a run of 0xFF bytes
// wider than any real primary key). Including that run's end in the scan
// gives an inclusive bound on the field value; stopping at the bare
// encoded value — which sorts before every key in the run, since it is a
// strict byte-prefix of each — gives an exclusive one.
func (idx *SecondaryIndex) SearchRange(startValue, endValue interface{}, exclusiveStart, exclusiveEnd bool) ([][]byte, error) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	startPrefix := ""
	if startValue != nil {
		prefix, err := idx.createFieldPrefix(startValue)
		if err != nil {
			return nil, fmt.Errorf("index: range start: %w", err)
		}
		startPrefix = prefix
		if exclusiveStart {
			startPrefix += maxSuffixPadding
		}
	}

	endPrefix := absoluteUpperBound
	if endValue != nil {
		prefix, err := idx.createFieldPrefix(endValue)
		if err != nil {
			return nil, fmt.Errorf("index: range end: %w", err)
		}
		endPrefix = prefix
		if !exclusiveEnd {
			endPrefix += maxSuffixPadding
		}
	}

	entries := idx.tree.RangeEntries(startPrefix, endPrefix)
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out, nil
}

// Save persists the index to a Pebble-backed store under dir.
func (idx *SecondaryIndex) Save(dir string) error {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	store, err := storage.OpenIndexStore(idx.storePath(dir))
	if err != nil {
		return fmt.Errorf("index: save %s: %w", idx.fieldName, err)
	}
	defer store.Close()

	entries := idx.tree.Entries()
	batch := make(map[string][]byte, len(entries))
	for _, e := range entries {
		batch[e.Key] = e.Value
	}
	return store.PutBatch(batch)
}

// Load restores the index from disk, rebuilding the in-memory tree from
// Pebble's sorted iteration.
func (idx *SecondaryIndex) Load(dir string) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	path := idx.storePath(dir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Index doesn't exist yet, keep the empty tree.
		return nil
	}

	store, err := storage.OpenIndexStore(path)
	if err != nil {
		return fmt.Errorf("index: load %s: %w", idx.fieldName, err)
	}
	defer store.Close()

	all, err := store.All()
	if err != nil {
		return fmt.Errorf("index: load %s: %w", idx.fieldName, err)
	}

	tree := bptree.NewBPlusTree[string, []byte](idx.order)
	for k, v := range all {
		tree.Insert(k, v)
	}
	idx.tree = tree
	idx.lastSnapshotID, idx.hasLastSnapshotID = store.LoadSnapshotID()
	return nil
}

// LastSnapshotID returns the snapshotID of the store that Load most
// recently restored this index from, and false if Load has never
// succeeded against a store that had written a batch.
func (idx *SecondaryIndex) LastSnapshotID() (ksuid.KSUID, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return idx.lastSnapshotID, idx.hasLastSnapshotID
}

func (idx *SecondaryIndex) storePath(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("index_%s", idx.fieldName))
}

// createIndexKey creates a composite key: encoded field value + primary key.
func (idx *SecondaryIndex) createIndexKey(fieldValue interface{}, primaryKey []byte) (string, error) {
	var buf bytes.Buffer
	if err := idx.encodeFieldValue(&buf, fieldValue); err != nil {
		return "", err
	}
	buf.Write(primaryKey)
	return buf.String(), nil
}

// createFieldPrefix creates a key prefix for field value matching.
func (idx *SecondaryIndex) createFieldPrefix(fieldValue interface{}) (string, error) {
	var buf bytes.Buffer
	if err := idx.encodeFieldValue(&buf, fieldValue); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// IndexManager manages multiple secondary indexes for a partition.
type IndexManager struct {
	indexes map[string]*SecondaryIndex
	mutex   sync.RWMutex
	order   int
}

// NewIndexManager creates a new index manager.
func NewIndexManager(order int) *IndexManager {
	return &IndexManager{
		indexes: make(map[string]*SecondaryIndex),
		order:   order,
	}
}

// GetOrCreateIndex gets an existing index or creates a new one for a field.
func (im *IndexManager) GetOrCreateIndex(fieldName string) *SecondaryIndex {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	if idx, exists := im.indexes[fieldName]; exists {
		return idx
	}

	idx := NewSecondaryIndex(fieldName, im.order)
	im.indexes[fieldName] = idx
	return idx
}

// DeclareOrdinalField registers field as a discrete ordered enumeration —
// pkg/query.FieldQuery values on this field are then indexed and compared
// by declaration order in variants instead of natural Go comparison. It
// must be called before any record is indexed on the field; calling it
// again replaces the field's index (and any entries already in it) with a
// fresh one over the new variant table.
func (im *IndexManager) DeclareOrdinalField(fieldName string, variants []string) error {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	idx, err := NewOrdinalSecondaryIndex(fieldName, im.order, variants)
	if err != nil {
		return err
	}
	im.indexes[fieldName] = idx
	return nil
}

// SaveAll saves all indexes to disk.
func (im *IndexManager) SaveAll(dir string) error {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	for _, idx := range im.indexes {
		if err := idx.Save(dir); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll loads all indexes from disk.
func (im *IndexManager) LoadAll(dir string) error {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "index_") {
			continue
		}
		fieldName := strings.TrimPrefix(entry.Name(), "index_")

		idx := NewSecondaryIndex(fieldName, im.order)
		if err := idx.Load(dir); err != nil {
			return err
		}
		im.indexes[fieldName] = idx
	}

	return nil
}
