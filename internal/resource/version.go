package resource

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	fixedFileInfoSignature = 0xFEEF04BD
	fixedFileInfoSize      = 52
	versionInfoKey         = "VS_VERSION_INFO"
	stringFileInfoKey      = "StringFileInfo"

	// legacyFixedInfoOffset is where the version numbers were read from
	// when the VS_VERSIONINFO header was not parsed.
	legacyFixedInfoOffset = 32
)

// FixedFileInfo is the VS_FIXEDFILEINFO structure.
type FixedFileInfo struct {
	Signature        uint32
	StrucVersion     uint32
	FileVersionMS    uint32
	FileVersionLS    uint32
	ProductVersionMS uint32
	ProductVersionLS uint32
	FileFlagsMask    uint32
	FileFlags        uint32
	FileOS           uint32
	FileType         uint32
	FileSubtype      uint32
	FileDateMS       uint32
	FileDateLS       uint32
}

// FormatVersion renders a packed version pair as "a.b.c.d".
func FormatVersion(ms, ls uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", ms>>16, ms&0xFFFF, ls>>16, ls&0xFFFF)
}

// FileVersion returns the dotted file version.
func (fi *FixedFileInfo) FileVersion() string {
	return FormatVersion(fi.FileVersionMS, fi.FileVersionLS)
}

// ProductVersion returns the dotted product version.
func (fi *FixedFileInfo) ProductVersion() string {
	return FormatVersion(fi.ProductVersionMS, fi.ProductVersionLS)
}

// VersionString is one entry of a StringFileInfo table.
type VersionString struct {
	Key   string
	Value string
}

// VersionInfo is a decoded RT_VERSION resource.
type VersionInfo struct {
	Fixed   FixedFileInfo
	Strings []VersionString
}

// Lookup returns the value of key, or "" when absent.
func (v *VersionInfo) Lookup(key string) string {
	for _, s := range v.Strings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// VersionOptions configures a VersionDecoder.
type VersionOptions struct {
	// Strings also emits the StringFileInfo values.
	Strings bool
}

// VersionDecoder finds and decodes the RT_VERSION resources of a tree.
type VersionDecoder struct {
	sec  *Section
	opts VersionOptions
	log  *slog.Logger
}

// NewVersionDecoder creates a decoder for sec.
func NewVersionDecoder(sec *Section, opts VersionOptions, log *slog.Logger) *VersionDecoder {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &VersionDecoder{sec: sec, opts: opts, log: log}
}

// IsVersionType matches the level 1 entry of the RT_VERSION type.
func IsVersionType(n *Node) bool {
	return n.Type == DirectoryEntryNode &&
		n.DirLevel == LevelType &&
		!n.Entry.NameIsString() &&
		n.Entry.NameOffset() == RT_VERSION
}

// IsDataEntry matches data entry nodes.
func IsDataEntry(n *Node) bool {
	return n.Type == DataEntryNode
}

// Decode returns every readable version resource, in tree order.
func (d *VersionDecoder) Decode() []VersionInfo {
	var infos []VersionInfo
	for _, typeNode := range Search(d.sec.Root, IsVersionType) {
		for _, leaf := range Search(typeNode, IsDataEntry) {
			info, err := d.decodeLeaf(leaf)
			if err != nil {
				d.log.Warn("cannot read VS_FIXEDFILEINFO",
					"rva", fmt.Sprintf("0x%X", leaf.Data.OffsetToData), "error", err)
				continue
			}
			infos = append(infos, *info)
		}
	}
	return infos
}

// Emit writes "File Version" and "Product Version" for every version
// resource found.
func (d *VersionDecoder) Emit(e Emitter) {
	for _, info := range d.Decode() {
		e.Emit("File Version", info.Fixed.FileVersion())
		e.Emit("Product Version", info.Fixed.ProductVersion())
		if !d.opts.Strings {
			continue
		}
		for _, s := range info.Strings {
			if s.Value != "" {
				e.Emit(s.Key, s.Value)
			}
		}
	}
}

func (d *VersionDecoder) decodeLeaf(n *Node) (*VersionInfo, error) {
	_, data, err := readRVA(d.sec.Image, n.Data.OffsetToData, n.Data.Size)
	if err != nil {
		return nil, err
	}
	info, err := ParseVersionInfo(data)
	if err == nil {
		return info, nil
	}
	d.log.Debug("VS_VERSIONINFO header not parsed, using fixed offset", "error", err)
	return parseLegacyVersion(data)
}

// ParseVersionInfo decodes a VS_VERSIONINFO block.
func ParseVersionInfo(data []byte) (*VersionInfo, error) {
	root, _, err := parseVersionBlock(data)
	if err != nil {
		return nil, err
	}
	if root.key != versionInfoKey {
		return nil, fmt.Errorf("unexpected key %q", root.key)
	}
	if len(root.value) < fixedFileInfoSize {
		return nil, fmt.Errorf("VS_FIXEDFILEINFO too short: %d bytes", len(root.value))
	}

	info := &VersionInfo{Fixed: decodeFixedFileInfo(root.value)}
	if info.Fixed.Signature != fixedFileInfoSignature {
		return nil, fmt.Errorf("bad VS_FIXEDFILEINFO signature 0x%08X", info.Fixed.Signature)
	}

	eachVersionBlock(root.children, func(child versionBlock) {
		if child.key != stringFileInfoKey {
			return
		}
		eachVersionBlock(child.children, func(table versionBlock) {
			eachVersionBlock(table.children, func(s versionBlock) {
				info.Strings = append(info.Strings, VersionString{
					Key:   s.key,
					Value: strings.TrimRight(decodeUTF16(s.value), "\x00"),
				})
			})
		})
	})
	return info, nil
}

// parseLegacyVersion reads the four version words at a fixed distance from
// the start of the resource.
func parseLegacyVersion(data []byte) (*VersionInfo, error) {
	if len(data) < legacyFixedInfoOffset+16 {
		return nil, errors.New("version resource too short")
	}
	p := data[legacyFixedInfoOffset:]
	return &VersionInfo{Fixed: FixedFileInfo{
		FileVersionMS:    binary.LittleEndian.Uint32(p[0:]),
		FileVersionLS:    binary.LittleEndian.Uint32(p[4:]),
		ProductVersionMS: binary.LittleEndian.Uint32(p[8:]),
		ProductVersionLS: binary.LittleEndian.Uint32(p[12:]),
	}}, nil
}

func decodeFixedFileInfo(b []byte) FixedFileInfo {
	var words [13]uint32
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return FixedFileInfo{
		Signature:        words[0],
		StrucVersion:     words[1],
		FileVersionMS:    words[2],
		FileVersionLS:    words[3],
		ProductVersionMS: words[4],
		ProductVersionLS: words[5],
		FileFlagsMask:    words[6],
		FileFlags:        words[7],
		FileOS:           words[8],
		FileType:         words[9],
		FileSubtype:      words[10],
		FileDateMS:       words[11],
		FileDateLS:       words[12],
	}
}

// versionBlock is the common header of VS_VERSIONINFO, StringFileInfo,
// StringTable and String structures.
type versionBlock struct {
	key      string
	value    []byte
	children []byte
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// parseVersionBlock decodes the block at the start of data and returns the
// aligned number of bytes it occupies.
func parseVersionBlock(data []byte) (versionBlock, int, error) {
	if len(data) < 6 {
		return versionBlock{}, 0, errors.New("version block header truncated")
	}
	length := int(binary.LittleEndian.Uint16(data[0:]))
	valueLen := int(binary.LittleEndian.Uint16(data[2:]))
	textual := binary.LittleEndian.Uint16(data[4:]) == 1
	if length < 6 || length > len(data) {
		return versionBlock{}, 0, fmt.Errorf("version block length %d out of range", length)
	}
	data = data[:length]

	end := 6
	for end+1 < len(data) && (data[end] != 0 || data[end+1] != 0) {
		end += 2
	}
	if end+1 >= len(data) {
		return versionBlock{}, 0, errors.New("unterminated version block key")
	}
	b := versionBlock{key: decodeUTF16(data[6:end])}

	pos := align4(end + 2)
	if textual {
		valueLen *= 2
	}
	if pos > len(data) {
		pos = len(data)
	}
	if pos+valueLen > len(data) {
		valueLen = len(data) - pos
	}
	b.value = data[pos : pos+valueLen]

	pos = align4(pos + valueLen)
	if pos < len(data) {
		b.children = data[pos:]
	}
	return b, align4(length), nil
}

func eachVersionBlock(data []byte, fn func(versionBlock)) {
	for len(data) >= 6 {
		b, n, err := parseVersionBlock(data)
		if err != nil {
			return
		}
		fn(b)
		if n >= len(data) {
			return
		}
		data = data[n:]
	}
}
