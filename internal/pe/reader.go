// Package pe maps PE files and builds their resource directory tree.
package pe

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Binject/debug/pe"

	"github.com/ZacharyZcR/peres/internal/resource"
)

// ErrNoResources is returned by Resources when the image has no resource
// directory.
var ErrNoResources = errors.New("文件没有资源")

// Reader is a mapped PE image. It implements resource.Image.
type Reader struct {
	file     *pe.File
	filepath string
	data     []byte
	unmap    func() error
}

// Open maps a PE file for reading.
func Open(filepath string) (*Reader, error) {
	data, unmap, err := mapFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("打开PE文件失败: %w", err)
	}

	r, err := NewReader(data)
	if err != nil {
		_ = unmap()
		return nil, err
	}
	r.filepath = filepath
	r.unmap = unmap
	return r, nil
}

// NewReader parses a PE image held in memory.
func NewReader(data []byte) (*Reader, error) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解析PE文件失败: %w", err)
	}
	return &Reader{file: f, data: data}, nil
}

// Close releases the mapping.
func (r *Reader) Close() error {
	err := r.file.Close()
	if r.unmap != nil {
		if uerr := r.unmap(); uerr != nil && err == nil {
			err = uerr
		}
		r.unmap = nil
	}
	r.data = nil
	return err
}

// File returns the parsed headers.
func (r *Reader) File() *pe.File {
	return r.file
}

// FilePath returns the file path.
func (r *Reader) FilePath() string {
	return r.filepath
}

// FileSize returns the file size in bytes.
func (r *Reader) FileSize() int64 {
	return int64(len(r.data))
}

// RVAToOffset converts a relative virtual address into a file offset.
// Addresses inside the headers map to themselves.
func (r *Reader) RVAToOffset(rva uint32) (uint32, error) {
	for _, section := range r.file.Sections {
		size := section.VirtualSize
		if size == 0 {
			size = section.Size
		}
		if rva >= section.VirtualAddress && rva-section.VirtualAddress < size {
			return rva - section.VirtualAddress + section.Offset, nil
		}
	}
	if rva < r.sizeOfHeaders() {
		return rva, nil
	}
	return 0, fmt.Errorf("RVA 0x%X 不在任何节区内", rva)
}

func (r *Reader) sizeOfHeaders() uint32 {
	switch oh := r.file.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		return oh.SizeOfHeaders
	case *pe.OptionalHeader64:
		return oh.SizeOfHeaders
	}
	return 0
}

// CanRead reports whether [offset, offset+size) lies within the file.
func (r *Reader) CanRead(offset, size uint64) bool {
	n := uint64(len(r.data))
	return offset <= n && size <= n-offset
}

// Bytes returns [offset, offset+size) of the file, or nil when out of range.
func (r *Reader) Bytes(offset, size uint64) []byte {
	if !r.CanRead(offset, size) {
		return nil
	}
	return r.data[offset : offset+size]
}

// ResourceDirectory returns the RVA and size of data directory 2.
func (r *Reader) ResourceDirectory() (rva, size uint32) {
	switch oh := r.file.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if oh.NumberOfRvaAndSizes > pe.IMAGE_DIRECTORY_ENTRY_RESOURCE {
			dir := oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_RESOURCE]
			return dir.VirtualAddress, dir.Size
		}
	case *pe.OptionalHeader64:
		if oh.NumberOfRvaAndSizes > pe.IMAGE_DIRECTORY_ENTRY_RESOURCE {
			dir := oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_RESOURCE]
			return dir.VirtualAddress, dir.Size
		}
	}
	return 0, 0
}

// Resources builds the resource tree of the image. It returns
// ErrNoResources when the image has none.
func (r *Reader) Resources() (*resource.Section, error) {
	rva, size := r.ResourceDirectory()
	if rva == 0 || size == 0 {
		return nil, ErrNoResources
	}

	offset, err := r.RVAToOffset(rva)
	if err != nil {
		return nil, fmt.Errorf("定位资源目录失败: %w", err)
	}

	root, err := ParseResourceTree(r, uint64(offset))
	if err != nil {
		return nil, err
	}
	return &resource.Section{Image: r, Root: root, Base: uint64(offset)}, nil
}
