// Package resource walks, reports, extracts and decodes the resource
// directory tree of a PE image.
package resource

import "fmt"

// NodeType identifies the structure a Node was read from.
type NodeType int

// Node types, in the order they appear in the on-disk format.
const (
	ResourceDirectoryNode NodeType = iota + 1
	DirectoryEntryNode
	DataStringNode
	DataEntryNode
)

func (t NodeType) String() string {
	switch t {
	case ResourceDirectoryNode:
		return "Resource Directory"
	case DirectoryEntryNode:
		return "Directory Entry"
	case DataStringNode:
		return "Data String"
	case DataEntryNode:
		return "Data Entry"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Directory levels of a resource tree.
const (
	LevelType     = 1
	LevelName     = 2
	LevelLanguage = 3
)

// IMAGE_RESOURCE_DIRECTORY structure.
type Directory struct {
	Characteristics      uint32
	TimeDateStamp        uint32
	MajorVersion         uint16
	MinorVersion         uint16
	NumberOfNamedEntries uint16
	NumberOfIdEntries    uint16
}

// IMAGE_RESOURCE_DIRECTORY_ENTRY structure.
//
// Name holds either a numeric id or, with the high bit set, the offset of a
// DataString relative to the start of the resource section. OffsetToData
// holds the offset of a subdirectory (high bit set) or of a DataEntry.
type DirectoryEntry struct {
	Name         uint32
	OffsetToData uint32
}

const highBit = 0x80000000

// NameIsString reports whether the entry is named by a DataString.
func (e *DirectoryEntry) NameIsString() bool {
	return e.Name&highBit != 0
}

// NameOffset returns the low 31 bits of Name: the string offset for named
// entries, the id otherwise.
func (e *DirectoryEntry) NameOffset() uint32 {
	return e.Name &^ highBit
}

// DataIsDirectory reports whether OffsetToData points at a subdirectory.
func (e *DirectoryEntry) DataIsDirectory() bool {
	return e.OffsetToData&highBit != 0
}

// OffsetToDirectory returns the low 31 bits of OffsetToData.
func (e *DirectoryEntry) OffsetToDirectory() uint32 {
	return e.OffsetToData &^ highBit
}

// IMAGE_RESOURCE_DIR_STRING_U structure. String is not null terminated.
type DataString struct {
	Length uint16
	String []uint16
}

// IMAGE_RESOURCE_DATA_ENTRY structure.
type DataEntry struct {
	OffsetToData uint32 // RVA
	Size         uint32
	CodePage     uint32
	Reserved     uint32
}

// Node is one structure of the resource tree. Children of a node form a
// singly linked list starting at Child and continuing through Next.
//
// A ResourceDirectory node has the level of the entries it lists; entries,
// strings and data entries below an entry share the entry's level.
type Node struct {
	Type     NodeType
	DirLevel int

	Directory *Directory
	Entry     *DirectoryEntry
	String    *DataString
	Data      *DataEntry

	Child *Node
	Next  *Node

	parent *Node
	last   *Node // last child, for appending
}

// Parent returns the node whose child list contains n.
func (n *Node) Parent() *Node {
	return n.parent
}

// AppendChild links child at the end of n's child list and derives its level:
// a directory below an entry sits one level deeper, everything else inherits
// the level of n.
func (n *Node) AppendChild(child *Node) {
	child.parent = n
	child.Next = nil
	switch {
	case child.Type == ResourceDirectoryNode && n.Type == DirectoryEntryNode:
		child.DirLevel = n.DirLevel + 1
	default:
		child.DirLevel = n.DirLevel
	}
	if n.Child == nil {
		n.Child = child
	} else {
		n.last.Next = child
	}
	n.last = child
}

// FindParent returns the closest node of type t at the given level, starting
// with n itself and walking up. It returns nil when there is none.
func (n *Node) FindParent(t NodeType, level int) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.Type == t && cur.DirLevel == level {
			return cur
		}
	}
	return nil
}

// NewRootDirectory creates the top level directory of a tree.
func NewRootDirectory(dir Directory) *Node {
	return &Node{Type: ResourceDirectoryNode, DirLevel: LevelType, Directory: &dir}
}

// NewDirectoryNode creates a directory node to be linked below an entry.
func NewDirectoryNode(dir Directory) *Node {
	return &Node{Type: ResourceDirectoryNode, Directory: &dir}
}

// NewEntryNode creates a directory entry node.
func NewEntryNode(entry DirectoryEntry) *Node {
	return &Node{Type: DirectoryEntryNode, Entry: &entry}
}

// NewStringNode creates a data string node.
func NewStringNode(s DataString) *Node {
	return &Node{Type: DataStringNode, String: &s}
}

// NewDataNode creates a data entry node.
func NewDataNode(data DataEntry) *Node {
	return &Node{Type: DataEntryNode, Data: &data}
}
