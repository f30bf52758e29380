package pe

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ZacharyZcR/peres/internal/resource"
)

// Sizes of the on-disk resource structures.
const (
	resourceDirectorySize      = 16
	resourceDirectoryEntrySize = 8
	resourceDataEntrySize      = 16
)

// MaxResourceNodes bounds the size of a parsed tree.
const MaxResourceNodes = 1 << 20

type pendingDirectory struct {
	node   *resource.Node
	offset uint32
}

// ParseResourceTree builds the resource tree whose root directory starts at
// file offset base of img. Offsets inside the tree are relative to base.
//
// Directories are expanded from a work list, each directory offset at most
// once and never below level 3, so crafted trees cannot loop or nest
// without bound. Entries that cannot be read end their directory; entries
// whose target cannot be read are kept without children.
func ParseResourceTree(img resource.Image, base uint64) (*resource.Node, error) {
	dir, err := readResourceDirectory(img, base)
	if err != nil {
		return nil, fmt.Errorf("读取资源目录失败: %w", err)
	}

	root := resource.NewRootDirectory(dir)
	count := 1
	visited := map[uint32]bool{0: true}
	queue := []pendingDirectory{{node: root, offset: 0}}

	for len(queue) > 0 && count < MaxResourceNodes {
		p := queue[0]
		queue = queue[1:]

		d := p.node.Directory
		entries := int(d.NumberOfNamedEntries) + int(d.NumberOfIdEntries)
		first := base + uint64(p.offset) + resourceDirectorySize

		for i := 0; i < entries && count < MaxResourceNodes; i++ {
			entry, err := readResourceEntry(img, first+uint64(i)*resourceDirectoryEntrySize)
			if err != nil {
				break
			}
			en := resource.NewEntryNode(entry)
			p.node.AppendChild(en)
			count++

			if entry.NameIsString() {
				if s, err := resource.ReadDataString(img, base, entry.NameOffset()); err == nil {
					en.AppendChild(resource.NewStringNode(s))
					count++
				}
			}

			target := entry.OffsetToDirectory()
			if entry.DataIsDirectory() {
				if en.DirLevel >= resource.LevelLanguage || visited[target] {
					continue
				}
				sub, err := readResourceDirectory(img, base+uint64(target))
				if err != nil {
					continue
				}
				visited[target] = true
				dn := resource.NewDirectoryNode(sub)
				en.AppendChild(dn)
				count++
				queue = append(queue, pendingDirectory{node: dn, offset: target})
				continue
			}

			data, err := readResourceDataEntry(img, base+uint64(target))
			if err != nil {
				continue
			}
			en.AppendChild(resource.NewDataNode(data))
			count++
		}
	}
	return root, nil
}

func readStruct(img resource.Image, offset, size uint64, v any) error {
	if !img.CanRead(offset, size) {
		return fmt.Errorf("偏移 0x%X 超出文件范围", offset)
	}
	return binary.Read(bytes.NewReader(img.Bytes(offset, size)), binary.LittleEndian, v)
}

func readResourceDirectory(img resource.Image, offset uint64) (resource.Directory, error) {
	var dir resource.Directory
	err := readStruct(img, offset, resourceDirectorySize, &dir)
	return dir, err
}

func readResourceEntry(img resource.Image, offset uint64) (resource.DirectoryEntry, error) {
	var entry resource.DirectoryEntry
	err := readStruct(img, offset, resourceDirectoryEntrySize, &entry)
	return entry, err
}

func readResourceDataEntry(img resource.Image, offset uint64) (resource.DataEntry, error) {
	var data resource.DataEntry
	err := readStruct(img, offset, resourceDataEntrySize, &data)
	return data, err
}
