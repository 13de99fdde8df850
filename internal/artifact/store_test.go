package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojcast/ojcast/internal/compression"
)

type testPayload struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

func newTestStore(t *testing.T, algo compression.Algorithm) *Store {
	t.Helper()
	comp, err := compression.GetCompressor(algo)
	require.NoError(t, err)
	return NewStore(t.TempDir(), comp)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, algo := range []compression.Algorithm{compression.None, compression.Snappy} {
		t.Run(algo.String(), func(t *testing.T) {
			store := newTestStore(t, algo)

			in := testPayload{Name: "train", Values: []float64{9.02, 8.72, 9.16}}
			counts := map[string]int{"groups": 2, "weeks": 80}
			require.NoError(t, store.Save("grocery_sales", "data.Rdata", map[string]any{
				"oj_train":  in,
				"oj_counts": counts,
			}))

			var out testPayload
			var outCounts map[string]int
			require.NoError(t, store.Load("grocery_sales", "data.Rdata", map[string]any{
				"oj_train":  &out,
				"oj_counts": &outCounts,
			}))
			assert.Equal(t, in, out)
			assert.Equal(t, counts, outCounts)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t, compression.None)

	var out testPayload
	err := store.Load("grocery_sales", "nope.Rdata", map[string]any{"oj_train": &out})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMissingObject(t *testing.T) {
	store := newTestStore(t, compression.Snappy)
	require.NoError(t, store.Save("grocery_sales", "data.Rdata", map[string]any{
		"oj_train": testPayload{Name: "train"},
	}))

	var out testPayload
	err := store.Load("grocery_sales", "data.Rdata", map[string]any{"oj_test": &out})
	require.ErrorIs(t, err, ErrObjectNotFound)
	assert.Contains(t, err.Error(), "oj_test")
}

func TestLoadIgnoresUnrequestedObjects(t *testing.T) {
	store := newTestStore(t, compression.Snappy)
	require.NoError(t, store.Save("grocery_sales", "data.Rdata", map[string]any{
		"oj_train": testPayload{Name: "train"},
		"oj_test":  testPayload{Name: "test"},
	}))

	var out testPayload
	require.NoError(t, store.Load("grocery_sales", "data.Rdata", map[string]any{"oj_test": &out}))
	assert.Equal(t, "test", out.Name)
}

func TestSaveOverwrites(t *testing.T) {
	store := newTestStore(t, compression.Snappy)

	require.NoError(t, store.Save("ex", "m.Rdata", map[string]any{"obj": testPayload{Name: "first"}}))
	require.NoError(t, store.Save("ex", "m.Rdata", map[string]any{"obj": testPayload{Name: "second"}}))

	var out testPayload
	require.NoError(t, store.Load("ex", "m.Rdata", map[string]any{"obj": &out}))
	assert.Equal(t, "second", out.Name)
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	store := newTestStore(t, compression.Snappy)
	require.NoError(t, store.Save("ex", "m.Rdata", map[string]any{"obj": testPayload{Name: "x"}}))

	entries, err := os.ReadDir(filepath.Join(store.root, "ex"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m.Rdata", entries[0].Name())
	assert.False(t, strings.HasSuffix(entries[0].Name(), ".tmp"))
}

func TestFailedSaveKeepsPriorArtifact(t *testing.T) {
	store := newTestStore(t, compression.Snappy)
	require.NoError(t, store.Save("ex", "m.Rdata", map[string]any{"obj": testPayload{Name: "good"}}))

	// Channels cannot marshal, so this save fails before touching disk.
	err := store.Save("ex", "m.Rdata", map[string]any{"obj": make(chan int)})
	require.Error(t, err)

	var out testPayload
	require.NoError(t, store.Load("ex", "m.Rdata", map[string]any{"obj": &out}))
	assert.Equal(t, "good", out.Name)
}

func TestLoadPicksCodecFromHeader(t *testing.T) {
	root := t.TempDir()
	snappyComp, err := compression.GetCompressor(compression.Snappy)
	require.NoError(t, err)

	writer := NewStore(root, snappyComp)
	require.NoError(t, writer.Save("ex", "m.Rdata", map[string]any{"obj": testPayload{Name: "x"}}))

	// A reader configured with a different codec still decodes the file.
	reader := NewStore(root, &compression.NoneCompressor{})
	var out testPayload
	require.NoError(t, reader.Load("ex", "m.Rdata", map[string]any{"obj": &out}))
	assert.Equal(t, "x", out.Name)
}

func TestLoadRejectsGarbage(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root, nil)

	path := store.Path("ex", "bad.Rdata")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("this is not an artifact"), 0o644))

	var out testPayload
	err := store.Load("ex", "bad.Rdata", map[string]any{"obj": &out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "magic")
}

func TestObjectsSorted(t *testing.T) {
	store := newTestStore(t, compression.Snappy)
	require.NoError(t, store.Save("ex", "m.Rdata", map[string]any{
		"oj_train":          1,
		"oj_fcast_basic":    2,
		"oj_modelset_ets":   3,
		"oj_modelset_basic": 4,
	}))

	names, err := store.Objects("ex", "m.Rdata")
	require.NoError(t, err)
	assert.Equal(t, []string{"oj_fcast_basic", "oj_modelset_basic", "oj_modelset_ets", "oj_train"}, names)
}

func TestExists(t *testing.T) {
	store := newTestStore(t, compression.None)
	assert.False(t, store.Exists("ex", "m.Rdata"))

	require.NoError(t, store.Save("ex", "m.Rdata", map[string]any{"obj": 1}))
	assert.True(t, store.Exists("ex", "m.Rdata"))
}
