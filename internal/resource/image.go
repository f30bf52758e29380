package resource

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Image is the mapped executable a resource tree was read from.
type Image interface {
	// RVAToOffset translates a relative virtual address into a file offset.
	RVAToOffset(rva uint32) (uint32, error)
	// CanRead reports whether [offset, offset+size) lies within the mapping.
	CanRead(offset, size uint64) bool
	// Bytes returns the mapped range [offset, offset+size). Callers check
	// CanRead first.
	Bytes(offset, size uint64) []byte
}

// Section is a resource tree bound to the image it was built from.
type Section struct {
	Image Image
	Root  *Node
	// Base is the file offset of the root directory. String names are
	// relative to it.
	Base uint64
}

// Emitter receives single report lines.
type Emitter interface {
	Emit(label, value string)
}

// Grouper is implemented by emitters that separate groups of lines, such as
// the fields of one node in a dump.
type Grouper interface {
	Group()
}

func group(e Emitter) {
	if g, ok := e.(Grouper); ok {
		g.Group()
	}
}

// readRange returns [offset, offset+size) from img after a bounds check.
func readRange(img Image, offset, size uint64) ([]byte, error) {
	if offset+size < offset || !img.CanRead(offset, size) {
		return nil, fmt.Errorf("range [0x%X, 0x%X) outside mapped image", offset, offset+size)
	}
	return img.Bytes(offset, size), nil
}

// readRVA resolves rva and returns size bytes at its file offset.
func readRVA(img Image, rva, size uint32) (uint64, []byte, error) {
	offset, err := img.RVAToOffset(rva)
	if err != nil {
		return 0, nil, err
	}
	data, err := readRange(img, uint64(offset), uint64(size))
	return uint64(offset), data, err
}

// ReadDataString reads the length prefixed name at base+offset.
func ReadDataString(img Image, base uint64, offset uint32) (DataString, error) {
	at := base + uint64(offset)
	head, err := readRange(img, at, 2)
	if err != nil {
		return DataString{}, err
	}
	length := binary.LittleEndian.Uint16(head)
	raw, err := readRange(img, at+2, uint64(length)*2)
	if err != nil {
		return DataString{}, err
	}
	s := DataString{Length: length, String: make([]uint16, length)}
	for i := range s.String {
		s.String[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	return s, nil
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeUTF16 converts little endian UTF-16 bytes to UTF-8.
func decodeUTF16(raw []byte) string {
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
	}
	out, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil {
		return ""
	}
	return string(out)
}

// Text returns the name as UTF-8.
func (s *DataString) Text() string {
	raw := make([]byte, len(s.String)*2)
	for i, c := range s.String {
		binary.LittleEndian.PutUint16(raw[i*2:], c)
	}
	return decodeUTF16(raw)
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 0 {
		return ""
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
