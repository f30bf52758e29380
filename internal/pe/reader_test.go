package pe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZacharyZcR/peres/internal/pe/petest"
	"github.com/ZacharyZcR/peres/internal/resource"
)

func TestReaderResources(t *testing.T) {
	r, err := NewReader(petest.BuildPE32(petest.SampleResources()))
	require.NoError(t, err)
	defer r.Close()

	rva, size := r.ResourceDirectory()
	assert.Equal(t, uint32(petest.SectionRVA), rva)
	assert.NotZero(t, size)

	sec, err := r.Resources()
	require.NoError(t, err)
	assert.Equal(t, uint64(petest.RawOffset), sec.Base)

	items := resource.ListItems(sec.Root, resource.NewPathBuilder(sec, nil, nil))
	require.Len(t, items, 2)
	assert.Equal(t, "CONFIG 0001 0409", items[0].Path)

	payload, err := resource.Payload(r, items[0].Node)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), payload)
}

func TestReaderNoResources(t *testing.T) {
	r, err := NewReader(petest.BuildPE32(nil))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Resources()
	assert.ErrorIs(t, err, ErrNoResources)
}

func TestReaderRVAToOffset(t *testing.T) {
	r, err := NewReader(petest.BuildPE32(petest.SampleResources()))
	require.NoError(t, err)
	defer r.Close()

	tests := []struct {
		name    string
		rva     uint32
		want    uint32
		wantErr bool
	}{
		{"Section start", petest.SectionRVA, petest.RawOffset, false},
		{"Inside section", petest.SectionRVA + 0x10, petest.RawOffset + 0x10, false},
		{"Header", 0x40, 0x40, false},
		{"Past image", 0x50000, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.RVAToOffset(tt.rva)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReaderBounds(t *testing.T) {
	data := petest.BuildPE32(petest.SampleResources())
	r, err := NewReader(data)
	require.NoError(t, err)
	defer r.Close()

	n := uint64(len(data))
	assert.True(t, r.CanRead(0, n))
	assert.True(t, r.CanRead(n, 0))
	assert.False(t, r.CanRead(n-1, 2))
	assert.False(t, r.CanRead(1, ^uint64(0)))
	assert.Nil(t, r.Bytes(n, 1))
	assert.Equal(t, []byte("MZ"), r.Bytes(0, 2))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.exe")
	require.NoError(t, os.WriteFile(path, petest.BuildPE32(petest.SampleResources()), 0o600))

	r, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, r.FilePath())
	assert.Equal(t, int64(len(petest.BuildPE32(petest.SampleResources()))), r.FileSize())

	sec, err := r.Resources()
	require.NoError(t, err)
	assert.Equal(t, 2, resource.CollectStats(sec.Root).DataEntry)
	assert.NoError(t, r.Close())
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.exe"))
	assert.Error(t, err)

	notPE := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notPE, []byte("just some text, not an executable at all"), 0o600))
	_, err = Open(notPE)
	assert.Error(t, err)
}
