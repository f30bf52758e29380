package resource

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"testing"
	"unicode/utf16"
)

const testRVABase = 0x1000

// memImage maps RVA testRVABase to offset 0 of data.
type memImage struct {
	data []byte
}

func (m *memImage) RVAToOffset(rva uint32) (uint32, error) {
	if rva < testRVABase {
		return 0, fmt.Errorf("RVA 0x%X 不在任何节区内", rva)
	}
	return rva - testRVABase, nil
}

func (m *memImage) CanRead(offset, size uint64) bool {
	n := uint64(len(m.data))
	return offset <= n && size <= n-offset
}

func (m *memImage) Bytes(offset, size uint64) []byte {
	return m.data[offset : offset+size]
}

// putString appends a length prefixed UTF-16 name and returns its offset.
func (m *memImage) putString(s string) uint32 {
	offset := uint32(len(m.data))
	u := utf16.Encode([]rune(s))
	buf := make([]byte, 2+2*len(u))
	binary.LittleEndian.PutUint16(buf, uint16(len(u)))
	for i, c := range u {
		binary.LittleEndian.PutUint16(buf[2+2*i:], c)
	}
	m.data = append(m.data, buf...)
	return offset
}

// putPayload appends data and returns its RVA.
func (m *memImage) putPayload(data []byte) uint32 {
	rva := testRVABase + uint32(len(m.data))
	m.data = append(m.data, data...)
	return rva
}

// res describes one resource of a fixture. A non-empty typeName or name
// names the entry by string instead of id.
type res struct {
	typeID   uint32
	typeName string
	nameID   uint32
	name     string
	lang     uint32
	payload  []byte
	// rva overrides the payload location when non-zero.
	rva uint32
}

func (r res) typeKey() string {
	if r.typeName != "" {
		return "s:" + r.typeName
	}
	return fmt.Sprint("i:", r.typeID)
}

func (r res) nameKey() string {
	if r.name != "" {
		return "s:" + r.name
	}
	return fmt.Sprint("i:", r.nameID)
}

// newSection builds a three level tree. Consecutive resources sharing a
// type (and name) share the directory entries.
func newSection(t *testing.T, resources ...res) *Section {
	t.Helper()
	img := &memImage{data: make([]byte, 16)}
	root := NewRootDirectory(Directory{})

	var typeDir, nameDir *Node
	lastType, lastName := "", ""
	for _, r := range resources {
		if r.typeKey() != lastType {
			typeEntry := entryNode(img, r.typeID, r.typeName, highBit)
			root.AppendChild(typeEntry)
			typeDir = NewDirectoryNode(Directory{})
			typeEntry.AppendChild(typeDir)
			lastType, lastName = r.typeKey(), ""
		}
		if r.nameKey() != lastName {
			nameEntry := entryNode(img, r.nameID, r.name, highBit)
			typeDir.AppendChild(nameEntry)
			nameDir = NewDirectoryNode(Directory{})
			nameEntry.AppendChild(nameDir)
			lastName = r.nameKey()
		}
		langEntry := entryNode(img, r.lang, "", 0)
		nameDir.AppendChild(langEntry)

		rva := r.rva
		if rva == 0 {
			rva = img.putPayload(r.payload)
		}
		langEntry.AppendChild(NewDataNode(DataEntry{
			OffsetToData: rva,
			Size:         uint32(len(r.payload)),
			CodePage:     1252,
		}))
	}
	return &Section{Image: img, Root: root}
}

func entryNode(img *memImage, id uint32, name string, dirFlag uint32) *Node {
	if name == "" {
		return NewEntryNode(DirectoryEntry{Name: id, OffsetToData: dirFlag})
	}
	offset := img.putString(name)
	n := NewEntryNode(DirectoryEntry{Name: highBit | offset, OffsetToData: dirFlag})
	u := utf16.Encode([]rune(name))
	n.AppendChild(NewStringNode(DataString{Length: uint16(len(u)), String: u}))
	return n
}

type line struct {
	label, value string
}

// recorder collects emitted lines.
type recorder struct {
	lines  []line
	groups int
}

func (r *recorder) Emit(label, value string) {
	r.lines = append(r.lines, line{label, value})
}

func (r *recorder) Group() {
	r.groups++
}

func (r *recorder) values(label string) []string {
	var out []string
	for _, l := range r.lines {
		if l.label == label {
			out = append(out, l.value)
		}
	}
	return out
}

// warnings counts records at Warn level and above.
type warnings struct {
	records []slog.Record
}

func (w *warnings) Enabled(context.Context, slog.Level) bool { return true }

func (w *warnings) Handle(_ context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		w.records = append(w.records, r)
	}
	return nil
}

func (w *warnings) WithAttrs([]slog.Attr) slog.Handler { return w }
func (w *warnings) WithGroup(string) slog.Handler      { return w }

func newWarnLogger() (*slog.Logger, *warnings) {
	w := &warnings{}
	return slog.New(w), w
}
