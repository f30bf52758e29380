package pe

import "github.com/ZacharyZcR/peres/internal/pe/petest"

// rawImage exposes raw section bytes with RVA petest.SectionRVA at offset 0.
type rawImage struct {
	data []byte
}

func (m *rawImage) RVAToOffset(rva uint32) (uint32, error) {
	return rva - petest.SectionRVA, nil
}

func (m *rawImage) CanRead(offset, size uint64) bool {
	n := uint64(len(m.data))
	return offset <= n && size <= n-offset
}

func (m *rawImage) Bytes(offset, size uint64) []byte {
	return m.data[offset : offset+size]
}
