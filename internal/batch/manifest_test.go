package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadManifest_IndexColumn(t *testing.T) {
	demos, err := readManifest(strings.NewReader(",demos\n0,a.hdf5\n1,b.hdf5\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.hdf5", "b.hdf5"}, demos)
}

func TestReadManifest_SingleColumn(t *testing.T) {
	demos, err := readManifest(strings.NewReader("demos\n/data/a.hdf5\n\n/data/b.hdf5\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/a.hdf5", "/data/b.hdf5"}, demos)
}

func TestReadManifest_NoDemosColumn(t *testing.T) {
	_, err := readManifest(strings.NewReader("files\na.hdf5\n"))
	assert.ErrorIs(t, err, ErrNoDemosColumn)

	_, err = readManifest(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoDemosColumn)
}

func TestWriteManifest_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, WriteManifest(path, []string{"a.hdf5", "b.hdf5"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ",demos\n0,a.hdf5\n1,b.hdf5\n", string(raw))

	demos, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.hdf5", "b.hdf5"}, demos)
}

func TestPartition(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	parts := Partition(items, 3)
	require.Len(t, parts, 3)
	assert.Equal(t, []string{"a", "b", "c", "d"}, parts[0])
	assert.Equal(t, []string{"e", "f", "g"}, parts[1])
	assert.Equal(t, []string{"h", "i", "j"}, parts[2])

	parts = Partition([]string{"a"}, 3)
	assert.Len(t, parts[0], 1)
	assert.Empty(t, parts[1])
	assert.Empty(t, parts[2])

	assert.Nil(t, Partition(items, 0))
}

func TestGenerateManifests(t *testing.T) {
	demoDir := t.TempDir()
	for _, name := range []string{"a.hdf5", "b.hdf5", "b_replay.hdf5", "c.hdf5", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(demoDir, name), nil, 0o644))
	}
	outDir := filepath.Join(t.TempDir(), "manifests")

	written, err := GenerateManifests(context.Background(), demoDir, outDir, 2)
	require.NoError(t, err)
	require.Len(t, written, 3)
	assert.Equal(t, filepath.Join(outDir, "manifest_1.csv"), written[2])

	all, err := ReadManifest(written[0])
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(demoDir, "a.hdf5"),
		filepath.Join(demoDir, "b.hdf5"),
		filepath.Join(demoDir, "c.hdf5"),
	}, all)

	first, err := ReadManifest(written[1])
	require.NoError(t, err)
	assert.Len(t, first, 2)
	second, err := ReadManifest(written[2])
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(demoDir, "c.hdf5")}, second)
}

func TestGenerateManifests_NoSplit(t *testing.T) {
	written, err := GenerateManifests(context.Background(), t.TempDir(), t.TempDir(), 1)
	require.NoError(t, err)
	assert.Len(t, written, 1)
}
