package pe

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZacharyZcR/peres/internal/pe/petest"
	"github.com/ZacharyZcR/peres/internal/resource"
)

func TestParseResourceTree(t *testing.T) {
	img := &rawImage{data: petest.SampleResources()}
	root, err := ParseResourceTree(img, 0)
	require.NoError(t, err)

	stats := resource.CollectStats(root)
	assert.Equal(t, resource.Stats{
		Total:             14,
		ResourceDirectory: 5,
		DirectoryEntry:    6,
		DataString:        1,
		DataEntry:         2,
	}, stats)

	sec := &resource.Section{Image: img, Root: root}
	paths := resource.NewPathBuilder(sec, nil, nil)
	items := resource.ListItems(root, paths)
	require.Len(t, items, 2)
	assert.Equal(t, "CONFIG 0001 0409 (5 bytes)", items[0].String())
	assert.Equal(t, "RT_ICON 0002 0804 (4 bytes)", items[1].String())

	payload, err := resource.Payload(img, items[0].Node)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), payload)
}

func TestParseResourceTreeLevels(t *testing.T) {
	root, err := ParseResourceTree(&rawImage{data: petest.SampleResources()}, 0)
	require.NoError(t, err)

	for _, n := range resource.Search(root, resource.IsDataEntry) {
		assert.Equal(t, resource.LevelLanguage, n.DirLevel)
		assert.NotNil(t, n.FindParent(resource.DirectoryEntryNode, resource.LevelType))
	}
}

func TestParseResourceTreeLoop(t *testing.T) {
	b := &petest.Builder{}
	root := b.Dir(0, 2)
	typeDir := b.Dir(0, 1)
	b.Entry(root, 0, 3, petest.HighBit|root)
	b.Entry(root, 1, 4, petest.HighBit|typeDir)
	b.Entry(typeDir, 0, 1, petest.HighBit|typeDir)

	tree, err := ParseResourceTree(&rawImage{data: b.Buf}, 0)
	require.NoError(t, err)

	stats := resource.CollectStats(tree)
	assert.Equal(t, 2, stats.ResourceDirectory)
	assert.Equal(t, 3, stats.DirectoryEntry)
}

func TestParseResourceTreeNoDirectoryBelowLanguage(t *testing.T) {
	b := &petest.Builder{}
	root := b.Dir(0, 1)
	typeDir := b.Dir(0, 1)
	nameDir := b.Dir(0, 1)
	langDir := b.Dir(0, 1)
	b.Entry(root, 0, 3, petest.HighBit|typeDir)
	b.Entry(typeDir, 0, 1, petest.HighBit|nameDir)
	b.Entry(nameDir, 0, 0x409, petest.HighBit|langDir)
	b.Entry(langDir, 0, 7, b.Data([]byte{1}))

	tree, err := ParseResourceTree(&rawImage{data: b.Buf}, 0)
	require.NoError(t, err)

	stats := resource.CollectStats(tree)
	assert.Equal(t, 3, stats.ResourceDirectory)
	assert.Equal(t, 0, stats.DataEntry)
}

func TestParseResourceTreeTruncated(t *testing.T) {
	b := &petest.Builder{}
	root := b.Dir(0, 1)
	b.Entry(root, 0, 3, 0x100)
	binary.LittleEndian.PutUint16(b.Buf[14:], 1000)

	tree, err := ParseResourceTree(&rawImage{data: b.Buf}, 0)
	require.NoError(t, err)

	stats := resource.CollectStats(tree)
	assert.Equal(t, 1, stats.DirectoryEntry)
	assert.Equal(t, 0, stats.DataEntry)

	_, err = ParseResourceTree(&rawImage{data: make([]byte, 8)}, 0)
	assert.Error(t, err)
}
