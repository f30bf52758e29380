package resource

import (
	"fmt"
	"strconv"
)

// maxStringLen bounds the text of a dumped Data String, in bytes.
const maxStringLen = 511

// Dump emits every field of every node of the tree, in pre-order.
func Dump(root *Node, e Emitter) {
	walk(root, func(n *Node) {
		group(e)
		dumpNode(n, e)
	})
}

func dumpNode(n *Node, e Emitter) {
	e.Emit("Node Type / Level", fmt.Sprintf("%s / %d", n.Type, n.DirLevel))

	switch n.Type {
	case ResourceDirectoryNode:
		d := n.Directory
		e.Emit("Characteristics", strconv.FormatUint(uint64(d.Characteristics), 10))
		e.Emit("Timestamp", strconv.FormatUint(uint64(d.TimeDateStamp), 10))
		e.Emit("Major Version", strconv.Itoa(int(d.MajorVersion)))
		e.Emit("Minor Version", strconv.Itoa(int(d.MinorVersion)))
		e.Emit("Named entries", strconv.Itoa(int(d.NumberOfNamedEntries)))
		e.Emit("Id entries", strconv.Itoa(int(d.NumberOfIdEntries)))
	case DirectoryEntryNode:
		d := n.Entry
		e.Emit("Name offset", strconv.FormatUint(uint64(d.NameOffset()), 10))
		e.Emit("Name is string", boolDigit(d.NameIsString()))
		e.Emit("Offset to directory", strconv.FormatUint(uint64(d.OffsetToDirectory()), 16))
		e.Emit("Data is directory", boolDigit(d.DataIsDirectory()))
	case DataStringNode:
		s := n.String
		e.Emit("String len", strconv.Itoa(int(s.Length)))
		e.Emit("String", truncate(s.Text(), maxStringLen))
	case DataEntryNode:
		d := n.Data
		e.Emit("OffsetToData", strconv.FormatUint(uint64(d.OffsetToData), 16))
		e.Emit("Size", strconv.FormatUint(uint64(d.Size), 10))
		e.Emit("CodePage", strconv.FormatUint(uint64(d.CodePage), 10))
		e.Emit("Reserved", strconv.FormatUint(uint64(d.Reserved), 10))
	}
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ListItem is one data entry of the list view.
type ListItem struct {
	Node *Node
	Path string
	Size uint32
}

func (it ListItem) String() string {
	return fmt.Sprintf("%s (%d bytes)", it.Path, it.Size)
}

// ListItems returns every data entry with its path, in pre-order.
func ListItems(root *Node, paths *PathBuilder) []ListItem {
	var items []ListItem
	walk(root, func(n *Node) {
		if n.Type != DataEntryNode {
			return
		}
		items = append(items, ListItem{Node: n, Path: paths.Build(n), Size: n.Data.Size})
	})
	return items
}

// List emits one unlabeled line per data entry.
func List(root *Node, paths *PathBuilder, e Emitter) {
	for _, it := range ListItems(root, paths) {
		e.Emit("", it.String())
	}
}

// Stats counts the nodes of a tree by type.
type Stats struct {
	Total             int
	ResourceDirectory int
	DirectoryEntry    int
	DataString        int
	DataEntry         int
}

// CollectStats counts every node of the tree.
func CollectStats(root *Node) Stats {
	var s Stats
	walk(root, func(n *Node) {
		s.Total++
		switch n.Type {
		case ResourceDirectoryNode:
			s.ResourceDirectory++
		case DirectoryEntryNode:
			s.DirectoryEntry++
		case DataStringNode:
			s.DataString++
		case DataEntryNode:
			s.DataEntry++
		}
	})
	return s
}

// Emit writes the counters once, after the traversal.
func (s Stats) Emit(e Emitter) {
	e.Emit("Total Structs", strconv.Itoa(s.Total))
	e.Emit("Total Resource Directory", strconv.Itoa(s.ResourceDirectory))
	e.Emit("Total Directory Entry", strconv.Itoa(s.DirectoryEntry))
	e.Emit("Total Data String", strconv.Itoa(s.DataString))
	e.Emit("Total Data Entry", strconv.Itoa(s.DataEntry))
}
