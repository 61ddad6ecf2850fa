package fileio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateAccess(t *testing.T) {
	path := writeFile(t, "eq.txt", "Preamp: -3 dB\n")
	require.NoError(t, ValidateAccess(path))

	err := ValidateAccess(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotExist)
	assert.Contains(t, err.Error(), "missing.txt")

	err = ValidateAccess(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotRegular)
}

func TestRead_Small(t *testing.T) {
	path := writeFile(t, "eq.txt", "Filter 1: ON PK Fc 100 Hz Gain 1 dB Q 1\n")
	got, err := Read(path, Limits{})
	require.NoError(t, err)
	assert.Equal(t, "Filter 1: ON PK Fc 100 Hz Gain 1 dB Q 1\n", got)
}

func TestRead_Streamed(t *testing.T) {
	content := strings.Repeat("Filter 1: ON PK Fc 100 Hz Gain 1 dB Q 1\n", 200)
	path := writeFile(t, "big.txt", content)

	got, err := Read(path, Limits{StreamThreshold: 64})
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestRead_Empty(t *testing.T) {
	path := writeFile(t, "empty.txt", "")
	_, err := Read(path, Limits{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestRead_TooLarge(t *testing.T) {
	path := writeFile(t, "eq.txt", strings.Repeat("x", 2048))
	_, err := Read(path, Limits{MaxSize: 1024})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Contains(t, err.Error(), "Maximum size is")
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.txt"), Limits{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preset")

	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	require.NoError(t, WriteAtomic(path, []byte(`{"0":1}`)))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"0":1}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestWriteAtomic_InvalidDirectory(t *testing.T) {
	err := WriteAtomic("/nonexistent/dir/preset", []byte("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output file")
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"filters.txt", "filters"},
		{filepath.Join("eq", "hd650.txt"), filepath.Join("eq", "hd650")},
		{filepath.Join("eq", "archive.tar.txt"), filepath.Join("eq", "archive.tar")},
		{filepath.Join("eq", "noext"), filepath.Join("eq", "noext.json")},
		{".profile", ".profile.json"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultOutputPath(tt.in))
		})
	}
}
