package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CEA-LIST/sgntx/pkg/codec"
)

func testRecords() []codec.Record {
	return []codec.Record{
		{Chromosome: 1, Position: 12345, ID: "42", Ref: "A", Alt: "G", Heterozygous: true},
		{Chromosome: 2, Position: 999, ID: "908", Ref: "C", Alt: "T"},
		{Chromosome: 22, Position: 16050075, ID: "0", Ref: "G", Alt: "A", Heterozygous: true},
	}
}

func TestNewBinWriter(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "sample.vcf.bin")

	writer, err := NewBinWriter(BinWriterConfig{FilePath: filePath, Mode: codec.ModeFixed})
	require.NoError(t, err)
	assert.NotNil(t, writer)

	// Only the temporary file exists until Commit
	assert.NoFileExists(t, filePath)
	assert.FileExists(t, writer.tempPath())
	assert.Equal(t, filePath, writer.Path())
	assert.Equal(t, int64(0), writer.Size())

	require.NoError(t, writer.Abort())
}

func TestNewBinWriter_DirectoryCreation(t *testing.T) {
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "nested", "deep", "path")

	writer, err := NewBinWriter(BinWriterConfig{FilePath: filepath.Join(nestedDir, "a.bin")})
	require.NoError(t, err)
	defer writer.Abort()

	assert.DirExists(t, nestedDir)
}

func TestNewBinWriter_InvalidPath(t *testing.T) {
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	writer, err := NewBinWriter(BinWriterConfig{FilePath: filepath.Join(blocker, "child", "a.bin")})
	assert.Error(t, err)
	assert.Nil(t, writer)

	_, err = NewBinWriter(BinWriterConfig{})
	assert.Error(t, err)
}

func TestBinWriter_AppendCommit(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "out.bin")

	writer, err := NewBinWriter(BinWriterConfig{FilePath: filePath, Mode: codec.ModeFixed, BufferSize: 32})
	require.NoError(t, err)

	var offsets []int64
	for _, r := range testRecords() {
		r := r
		offset, err := writer.Append(&r)
		require.NoError(t, err)
		offsets = append(offsets, offset)
	}

	assert.Equal(t, []int64{0, 16, 32}, offsets)
	assert.Equal(t, int64(48), writer.Size())
	assert.Equal(t, int64(3), writer.Records())

	require.NoError(t, writer.Commit())

	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Len(t, data, 48)

	info, err := os.Stat(filePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	assert.NoFileExists(t, writer.tempPath())

	// A committed writer refuses further use
	_, err = writer.Append(&codec.Record{Ref: "A", Alt: "C", ID: "1"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, writer.Commit(), ErrClosed)
	assert.NoError(t, writer.Abort())
}

func TestBinWriter_CommitReplacesExisting(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "out.bin")
	require.NoError(t, os.WriteFile(filePath, []byte("stale"), 0600))

	writer, err := NewBinWriter(BinWriterConfig{FilePath: filePath, Mode: codec.ModeVariable})
	require.NoError(t, err)

	_, err = writer.Append(&codec.Record{Chromosome: 2, Position: 999, ID: "rs908", Ref: "C", Alt: "T"})
	require.NoError(t, err)
	require.NoError(t, writer.Commit())

	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0xe7, 0x03, 0, 0, 'r', 's', '9', '0', '8', 0, 'C', 'T', 0}, data)
}

func TestBinWriter_AbortKeepsDestination(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "out.bin")
	require.NoError(t, os.WriteFile(filePath, []byte("previous"), 0600))

	writer, err := NewBinWriter(BinWriterConfig{FilePath: filePath})
	require.NoError(t, err)

	for _, r := range testRecords() {
		r := r
		_, err := writer.Append(&r)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Abort())

	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
	assert.NoFileExists(t, writer.tempPath())

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be removed")
}

func TestBinWriter_AppendEncodeError(t *testing.T) {
	writer, err := NewBinWriter(BinWriterConfig{FilePath: filepath.Join(t.TempDir(), "out.bin")})
	require.NoError(t, err)
	defer writer.Abort()

	_, err = writer.Append(&codec.Record{Chromosome: 300, ID: "1", Ref: "A", Alt: "C"})
	assert.ErrorIs(t, err, codec.ErrFieldOverflow)
	assert.Equal(t, int64(0), writer.Size())
	assert.Equal(t, int64(0), writer.Records())
}
