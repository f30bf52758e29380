package resource

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// DefaultMaxPathLen is the default capacity of a built path, in bytes. It
// matches the file name limit of common file systems.
const DefaultMaxPathLen = 255

const (
	pathSeparator = " "
	truncatedMark = "~"
)

// PathBuilder renders the chain of directory entries above a node as a
// single, slash free name such as "RT_ICON 0001 0409".
type PathBuilder struct {
	image  Image
	base   uint64
	types  TypeTable
	maxLen int
	log    *slog.Logger
}

// NewPathBuilder creates a builder for nodes of sec. A nil types uses
// DefaultTypes; a nil logger discards diagnostics.
func NewPathBuilder(sec *Section, types TypeTable, log *slog.Logger) *PathBuilder {
	if types == nil {
		types = DefaultTypes
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PathBuilder{
		image:  sec.Image,
		base:   sec.Base,
		types:  types,
		maxLen: DefaultMaxPathLen,
		log:    log,
	}
}

// SetMaxLen changes the capacity of built paths. Values below one are ignored.
func (b *PathBuilder) SetMaxLen(n int) {
	if n > 0 {
		b.maxLen = n
	}
}

// Build returns the path of n. Each level from 1 to n.DirLevel contributes
// the string name of its directory entry, the well-known type name at level
// 1, or the zero padded hexadecimal id.
//
// When an ancestor is missing or a name cannot be read, the levels resolved
// so far are returned. A path longer than the capacity is cut and ends with
// a "~" mark.
func (b *PathBuilder) Build(n *Node) string {
	path, _ := b.build(n, b.maxLen)
	return path
}

// build renders the path of n within limit bytes and reports whether every
// level was resolved.
func (b *PathBuilder) build(n *Node, limit int) (string, bool) {
	var parts []string
	complete := true
	for level := 1; level <= n.DirLevel; level++ {
		entry := n.FindParent(DirectoryEntryNode, level)
		if entry == nil {
			b.log.Warn("directory entry not found", "level", level, "node", n.Type.String())
			complete = false
			break
		}
		part, err := b.name(entry.Entry, level)
		if err != nil {
			b.log.Warn("cannot read IMAGE_RESOURCE_DATA_STRING_U", "level", level, "error", err)
			complete = false
			break
		}
		parts = append(parts, part)
	}
	return fit(strings.Join(parts, pathSeparator), limit), complete
}

func (b *PathBuilder) name(e *DirectoryEntry, level int) (string, error) {
	if e.NameIsString() {
		s, err := ReadDataString(b.image, b.base, e.NameOffset())
		if err != nil {
			return "", err
		}
		return sanitize(s.Text()), nil
	}
	if level == LevelType {
		if info, ok := b.types.Lookup(e.NameOffset()); ok {
			return info.Name, nil
		}
	}
	return fmt.Sprintf("%04x", e.NameOffset()), nil
}

func fit(path string, limit int) string {
	if len(path) <= limit {
		return path
	}
	if limit < len(truncatedMark) {
		limit = len(truncatedMark)
	}
	return truncate(path, limit-len(truncatedMark)) + truncatedMark
}

// sanitize replaces characters that cannot appear in a file name.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, s)
}
