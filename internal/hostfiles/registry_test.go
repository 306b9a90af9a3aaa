package hostfiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostAndResolve(t *testing.T) {
	reg := NewRegistry()

	path := filepath.Join(t.TempDir(), "contract.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0644))

	rec, err := reg.Host(path)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "contract.pdf", rec.DisplayName)
	assert.Equal(t, "/file/"+rec.ID+"/contract.pdf", rec.URLPath())

	got, name, ok := reg.Resolve(rec.ID)
	assert.True(t, ok)
	assert.Equal(t, rec.SourcePath, got)
	assert.Equal(t, "contract.pdf", name)

	_, _, ok = reg.Resolve("unknown")
	assert.False(t, ok)
}

func TestHostIdempotent(t *testing.T) {
	reg := NewRegistry()
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	a, err := reg.Host(path)
	require.NoError(t, err)
	b, err := reg.Host(path)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}

func TestHostErrors(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Host(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)

	_, err = reg.Host(t.TempDir())
	assert.Error(t, err)
}
