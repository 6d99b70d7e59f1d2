package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecondaryIndex(t *testing.T) {
	idx := NewSecondaryIndex("test_field", 3)

	assert.NotNil(t, idx)
	assert.Equal(t, "test_field", idx.fieldName)
	assert.NotNil(t, idx.tree)
}

func TestSecondaryIndex_Insert(t *testing.T) {
	idx := NewSecondaryIndex("name", 3)

	primaryKey1 := []byte("user_123")
	primaryKey2 := []byte("user_456")

	require.NoError(t, idx.Insert("Alice", primaryKey1))
	require.NoError(t, idx.Insert("Bob", primaryKey2))

	got, err := idx.Search("Alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, primaryKey1, got[0])
}

func TestSecondaryIndex_InsertDuplicateFieldValue(t *testing.T) {
	idx := NewSecondaryIndex("category", 3)

	primaryKey1 := []byte("item_1")
	primaryKey2 := []byte("item_2")

	require.NoError(t, idx.Insert("electronics", primaryKey1))
	require.NoError(t, idx.Insert("electronics", primaryKey2))

	got, err := idx.Search("electronics")
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]byte{primaryKey1, primaryKey2}, got)
}

func TestSecondaryIndex_Delete(t *testing.T) {
	idx := NewSecondaryIndex("email", 3)

	primaryKey := []byte("user_123")

	require.NoError(t, idx.Insert("alice@example.com", primaryKey))

	deleted := idx.Delete("alice@example.com", primaryKey)
	assert.True(t, deleted)

	deleted = idx.Delete("alice@example.com", primaryKey)
	assert.False(t, deleted)

	got, err := idx.Search("alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSecondaryIndex_Search_ExactMatchDoesNotLeak(t *testing.T) {
	idx := NewSecondaryIndex("name", 3)

	require.NoError(t, idx.Insert("Alice", []byte("user_1")))
	require.NoError(t, idx.Insert("Alicia", []byte("user_2")))
	require.NoError(t, idx.Insert("Bob", []byte("user_3")))

	got, err := idx.Search("Alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []byte("user_1"), got[0])
}

func TestSecondaryIndex_SearchRange(t *testing.T) {
	idx := NewSecondaryIndex("age", 3)

	users := map[int][]byte{
		20: []byte("user_20"),
		25: []byte("user_25"),
		30: []byte("user_30"),
		40: []byte("user_40"),
	}

	for age, primaryKey := range users {
		require.NoError(t, idx.Insert(age, primaryKey))
	}

	got, err := idx.SearchRange(25, 30, false, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]byte{[]byte("user_25"), []byte("user_30")}, got)
}

func TestSecondaryIndex_SearchRange_Exclusive(t *testing.T) {
	idx := NewSecondaryIndex("age", 3)

	users := map[int][]byte{
		20: []byte("user_20"),
		25: []byte("user_25"),
		30: []byte("user_30"),
		40: []byte("user_40"),
	}

	for age, primaryKey := range users {
		require.NoError(t, idx.Insert(age, primaryKey))
	}

	// age > 25 must exclude user_25.
	gotGT, err := idx.SearchRange(25, nil, true, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]byte{[]byte("user_30"), []byte("user_40")}, gotGT)

	// age < 30 must exclude user_30.
	gotLT, err := idx.SearchRange(nil, 30, false, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]byte{[]byte("user_20"), []byte("user_25")}, gotLT)

	// age > 20 and age < 40, both strict, must exclude both endpoints.
	gotBoth, err := idx.SearchRange(20, 40, true, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]byte{[]byte("user_25"), []byte("user_30")}, gotBoth)
}

func TestSecondaryIndex_SearchRange_NegativeAndPositiveInts(t *testing.T) {
	idx := NewSecondaryIndex("delta", 3)

	require.NoError(t, idx.Insert(-100, []byte("a")))
	require.NoError(t, idx.Insert(-1, []byte("b")))
	require.NoError(t, idx.Insert(0, []byte("c")))
	require.NoError(t, idx.Insert(1, []byte("d")))
	require.NoError(t, idx.Insert(100, []byte("e")))

	got, err := idx.SearchRange(-1, 1, false, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]byte{[]byte("b"), []byte("c"), []byte("d")}, got)
}

func TestSecondaryIndex_SaveLoad(t *testing.T) {
	idx := NewSecondaryIndex("test_field", 3)

	require.NoError(t, idx.Insert("value1", []byte("key1")))

	tmpDir, err := os.MkdirTemp("", "index_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	require.NoError(t, idx.Save(tmpDir))

	expectedDir := filepath.Join(tmpDir, "index_test_field")
	assert.DirExists(t, expectedDir)

	newIdx := NewSecondaryIndex("test_field", 3)
	require.NoError(t, newIdx.Load(tmpDir))

	got, err := newIdx.Search("value1")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("key1")}, got)

	_, hadSnapshot := idx.LastSnapshotID()
	assert.False(t, hadSnapshot, "the saving index never called Load, so it has no snapshot to report")

	gotSnapshot, hasSnapshot := newIdx.LastSnapshotID()
	assert.True(t, hasSnapshot)
	assert.NotEqual(t, ksuid.Nil, gotSnapshot)
}

func TestSecondaryIndex_LoadNonExistent(t *testing.T) {
	idx := NewSecondaryIndex("nonexistent", 3)

	tmpDir, err := os.MkdirTemp("", "index_empty_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	err = idx.Load(tmpDir)
	assert.NoError(t, err)

	_, hasSnapshot := idx.LastSnapshotID()
	assert.False(t, hasSnapshot, "loading a directory with no persisted store leaves no snapshot to report")
}

func TestSecondaryIndex_DataTypeSerialization(t *testing.T) {
	idx := NewSecondaryIndex("mixed_types", 3)

	testCases := []struct {
		fieldValue interface{}
		primaryKey []byte
	}{
		{int(42), []byte("int_key")},
		{int64(123456789), []byte("int64_key")},
		{float64(3.14159), []byte("float_key")},
		{"string_value", []byte("string_key")},
		{true, []byte("bool_key")},
	}

	for _, tc := range testCases {
		require.NoError(t, idx.Insert(tc.fieldValue, tc.primaryKey))
	}

	for _, tc := range testCases {
		got, err := idx.Search(tc.fieldValue)
		require.NoError(t, err)
		require.Len(t, got, 1, "field value %v", tc.fieldValue)
		assert.Equal(t, tc.primaryKey, got[0])
	}
}

func TestSecondaryIndex_InsertUnsupportedType(t *testing.T) {
	idx := NewSecondaryIndex("bad", 3)

	err := idx.Insert(struct{}{}, []byte("key"))
	assert.Error(t, err)
}

func TestIndexManager_GetOrCreateIndex(t *testing.T) {
	manager := NewIndexManager(3)

	idx1 := manager.GetOrCreateIndex("field1")
	assert.NotNil(t, idx1)
	assert.Equal(t, "field1", idx1.fieldName)

	idx2 := manager.GetOrCreateIndex("field1")
	assert.Equal(t, idx1, idx2)

	idx3 := manager.GetOrCreateIndex("field2")
	assert.NotNil(t, idx3)
	assert.Equal(t, "field2", idx3.fieldName)
	assert.NotEqual(t, idx1, idx3)
}

func TestIndexManager_SaveLoadAll(t *testing.T) {
	manager := NewIndexManager(3)

	idx1 := manager.GetOrCreateIndex("name")
	idx2 := manager.GetOrCreateIndex("age")

	require.NoError(t, idx1.Insert("Alice", []byte("user_1")))
	require.NoError(t, idx2.Insert(25, []byte("user_1")))

	tmpDir, err := os.MkdirTemp("", "manager_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	require.NoError(t, manager.SaveAll(tmpDir))

	assert.DirExists(t, filepath.Join(tmpDir, "index_name"))
	assert.DirExists(t, filepath.Join(tmpDir, "index_age"))

	newManager := NewIndexManager(3)
	require.NoError(t, newManager.LoadAll(tmpDir))

	nameIdx := newManager.GetOrCreateIndex("name")
	got, err := nameIdx.Search("Alice")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("user_1")}, got)
}

func TestIndexManager_LoadAll_EmptyDirectory(t *testing.T) {
	manager := NewIndexManager(3)

	tmpDir, err := os.MkdirTemp("", "manager_empty_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	err = manager.LoadAll(tmpDir)
	assert.NoError(t, err)
}

func TestSecondaryIndex_ConcurrentAccess(t *testing.T) {
	idx := NewSecondaryIndex("concurrent_field", 3)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			key := []byte(fmt.Sprintf("key_%d", i))
			_ = idx.Insert(fmt.Sprintf("value_%d", i), key)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, _ = idx.Search(fmt.Sprintf("value_%d", i))
		}
	}()

	wg.Wait()
}

func TestSecondaryIndex_EdgeCases(t *testing.T) {
	idx := NewSecondaryIndex("edge_cases", 3)

	require.NoError(t, idx.Insert("", []byte("empty_key")))

	longString := strings.Repeat("x", 100)
	require.NoError(t, idx.Insert(longString, []byte("long_key")))

	require.NoError(t, idx.Insert(0, []byte("zero_int")))

	got, err := idx.Search("")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("empty_key")}, got)
}

func TestNewOrdinalSecondaryIndex_SortsByDeclarationOrder(t *testing.T) {
	idx, err := NewOrdinalSecondaryIndex("tier", 3, []string{"bronze", "silver", "gold"})
	require.NoError(t, err)

	// Alphabetically "bronze" < "gold" < "silver", but declared order puts
	// gold last — entries must come back in declared order, not string order.
	require.NoError(t, idx.Insert("gold", []byte("user_gold")))
	require.NoError(t, idx.Insert("bronze", []byte("user_bronze")))
	require.NoError(t, idx.Insert("silver", []byte("user_silver")))

	entries := idx.tree.Entries()
	var keys []string
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	require.Len(t, keys, 3)
	assert.True(t, keys[0] < keys[1] && keys[1] < keys[2], "expected ascending composite keys, got %v", keys)

	got, err := idx.Search("gold")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("user_gold")}, got)

	gotRange, err := idx.SearchRange("silver", nil, false, false)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("user_silver"), []byte("user_gold")}, gotRange)
}

func TestNewOrdinalSecondaryIndex_RejectsNonVariant(t *testing.T) {
	idx, err := NewOrdinalSecondaryIndex("tier", 3, []string{"bronze", "silver", "gold"})
	require.NoError(t, err)

	err = idx.Insert("platinum", []byte("user_1"))
	assert.Error(t, err)
}

func TestIndexManager_DeclareOrdinalField(t *testing.T) {
	im := NewIndexManager(3)

	require.NoError(t, im.DeclareOrdinalField("tier", []string{"bronze", "silver", "gold"}))

	idx := im.GetOrCreateIndex("tier")
	require.NoError(t, idx.Insert("gold", []byte("user_gold")))
	require.NoError(t, idx.Insert("bronze", []byte("user_bronze")))

	got, err := idx.Search("bronze")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("user_bronze")}, got)
}

func BenchmarkSecondaryIndex_Insert(b *testing.B) {
	idx := NewSecondaryIndex("bench_field", 3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := []byte(fmt.Sprintf("key_%d", i))
		_ = idx.Insert(fmt.Sprintf("value_%d", i), key)
	}
}

func BenchmarkSecondaryIndex_Search(b *testing.B) {
	idx := NewSecondaryIndex("bench_search", 3)

	for i := 0; i < 1000; i++ {
		key := []byte(fmt.Sprintf("key_%d", i))
		_ = idx.Insert(fmt.Sprintf("value_%d", i), key)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(fmt.Sprintf("value_%d", i%1000))
	}
}
