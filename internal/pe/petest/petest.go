// Package petest builds synthetic PE images and resource sections for tests.
package petest

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"

	"github.com/Binject/debug/pe"
)

// Layout of images built by BuildPE32.
const (
	SectionRVA = 0x1000
	RawOffset  = 0x200
	HighBit    = 0x80000000
)

// Builder lays out a raw resource section.
type Builder struct {
	Buf []byte
}

// Dir appends a directory with room for its entries and returns its offset.
func (b *Builder) Dir(named, ids int) uint32 {
	offset := uint32(len(b.Buf))
	d := make([]byte, 16+8*(named+ids))
	binary.LittleEndian.PutUint16(d[12:], uint16(named))
	binary.LittleEndian.PutUint16(d[14:], uint16(ids))
	b.Buf = append(b.Buf, d...)
	return offset
}

// Entry sets entry i of the directory at dir.
func (b *Builder) Entry(dir uint32, i int, name, data uint32) {
	at := dir + 16 + uint32(i)*8
	binary.LittleEndian.PutUint32(b.Buf[at:], name)
	binary.LittleEndian.PutUint32(b.Buf[at+4:], data)
}

// Str appends a length prefixed UTF-16 name and returns its offset.
func (b *Builder) Str(s string) uint32 {
	offset := uint32(len(b.Buf))
	u := utf16.Encode([]rune(s))
	d := make([]byte, 2+2*len(u))
	binary.LittleEndian.PutUint16(d, uint16(len(u)))
	for i, c := range u {
		binary.LittleEndian.PutUint16(d[2+2*i:], c)
	}
	b.Buf = append(b.Buf, d...)
	b.align()
	return offset
}

// Data appends a data entry followed by its payload and returns the entry
// offset.
func (b *Builder) Data(payload []byte) uint32 {
	offset := uint32(len(b.Buf))
	d := make([]byte, 16)
	binary.LittleEndian.PutUint32(d[0:], SectionRVA+offset+16)
	binary.LittleEndian.PutUint32(d[4:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(d[8:], 1252)
	b.Buf = append(b.Buf, d...)
	b.Buf = append(b.Buf, payload...)
	b.align()
	return offset
}

func (b *Builder) align() {
	for len(b.Buf)%4 != 0 {
		b.Buf = append(b.Buf, 0)
	}
}

// SampleResources returns a section holding a CONFIG/1/0409 resource named by
// string and an RT_ICON/2/0804 resource.
func SampleResources() []byte {
	b := &Builder{}
	root := b.Dir(1, 1)

	cfgType := b.Dir(0, 1)
	cfgName := b.Dir(0, 1)
	b.Entry(root, 0, HighBit|b.Str("CONFIG"), HighBit|cfgType)
	b.Entry(cfgType, 0, 1, HighBit|cfgName)
	b.Entry(cfgName, 0, 0x409, b.Data([]byte("hello")))

	iconType := b.Dir(0, 1)
	iconName := b.Dir(0, 1)
	b.Entry(root, 1, 3, HighBit|iconType)
	b.Entry(iconType, 0, 2, HighBit|iconName)
	b.Entry(iconName, 0, 0x804, b.Data([]byte{0, 0, 1, 0}))
	return b.Buf
}

// BuildPE32 returns a PE32 image with a single .rsrc section at
// SectionRVA. A nil rsrc leaves the resource directory empty.
func BuildPE32(rsrc []byte) []byte {
	var buf bytes.Buffer

	dos := make([]byte, 0x40)
	copy(dos, "MZ")
	binary.LittleEndian.PutUint32(dos[0x3c:], 0x40)
	buf.Write(dos)
	buf.WriteString("PE\x00\x00")

	_ = binary.Write(&buf, binary.LittleEndian, pe.FileHeader{
		Machine:              pe.IMAGE_FILE_MACHINE_I386,
		NumberOfSections:     1,
		SizeOfOptionalHeader: 224,
		Characteristics:      0x0102,
	})

	oh := pe.OptionalHeader32{
		Magic:               0x10b,
		ImageBase:           0x400000,
		SectionAlignment:    0x1000,
		FileAlignment:       0x200,
		SizeOfImage:         0x2000,
		SizeOfHeaders:       RawOffset,
		Subsystem:           2,
		NumberOfRvaAndSizes: 16,
	}
	if rsrc != nil {
		oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_RESOURCE] = pe.DataDirectory{
			VirtualAddress: SectionRVA,
			Size:           uint32(len(rsrc)),
		}
	}
	_ = binary.Write(&buf, binary.LittleEndian, oh)

	raw := rsrc
	for len(raw)%0x200 != 0 || len(raw) == 0 {
		raw = append(raw, 0)
	}

	sh := make([]byte, 40)
	copy(sh, ".rsrc")
	binary.LittleEndian.PutUint32(sh[8:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(sh[12:], SectionRVA)
	binary.LittleEndian.PutUint32(sh[16:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(sh[20:], RawOffset)
	binary.LittleEndian.PutUint32(sh[36:], 0x40000040)
	buf.Write(sh)

	for buf.Len() < RawOffset {
		buf.WriteByte(0)
	}
	buf.Write(raw)
	return buf.Bytes()
}

