package pe

import (
	"fmt"
	"strconv"

	"github.com/Binject/debug/pe"

	"github.com/ZacharyZcR/peres/internal/resource"
)

const (
	subsystemNative     = 1
	subsystemWindowsGUI = 2
	subsystemWindowsCUI = 3

	scnMemExecute = 0x20000000
	scnMemRead    = 0x40000000
	scnMemWrite   = 0x80000000
)

// Info describes the image and where its resource directory lives.
type Info struct {
	FilePath     string
	FileSize     int64
	Architecture string
	Subsystem    string
	// ResourceRVA and ResourceSize come from data directory 2.
	ResourceRVA  uint32
	ResourceSize uint32
	// Section is the section holding the resource directory, if any.
	Section      *SectionInfo
}

// SectionInfo contains information about a PE section.
type SectionInfo struct {
	Name            string
	VirtualAddress  uint32
	VirtualSize     uint32
	Offset          uint32
	Size            uint32
	Characteristics uint32
	Permissions     string
	Entropy         float64
}

// Analyzer extracts information from PE files.
type Analyzer struct {
	reader *Reader
}

// NewAnalyzer creates a new analyzer for the given reader.
func NewAnalyzer(r *Reader) *Analyzer {
	return &Analyzer{reader: r}
}

// Analyze collects the image summary shown before the resource tree.
func (a *Analyzer) Analyze() *Info {
	f := a.reader.File()

	info := &Info{
		FilePath:     a.reader.FilePath(),
		FileSize:     a.reader.FileSize(),
		Architecture: getArchitecture(f.Machine),
	}

	switch opt := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		info.Subsystem = getSubsystem(opt.Subsystem)
	case *pe.OptionalHeader64:
		info.Subsystem = getSubsystem(opt.Subsystem)
	}

	info.ResourceRVA, info.ResourceSize = a.reader.ResourceDirectory()
	if info.ResourceRVA != 0 {
		info.Section = a.sectionAt(info.ResourceRVA)
	}
	return info
}

func (a *Analyzer) sectionAt(rva uint32) *SectionInfo {
	for _, s := range a.reader.File().Sections {
		size := s.VirtualSize
		if size == 0 {
			size = s.Size
		}
		if rva < s.VirtualAddress || rva-s.VirtualAddress >= size {
			continue
		}

		info := &SectionInfo{
			Name:            s.Name,
			VirtualAddress:  s.VirtualAddress,
			VirtualSize:     s.VirtualSize,
			Offset:          s.Offset,
			Size:            s.Size,
			Characteristics: s.Characteristics,
			Permissions:     getSectionPermissions(s.Characteristics),
		}
		// Raw data past the end of the file is left out of the entropy.
		if data := a.reader.Bytes(uint64(s.Offset), uint64(s.Size)); data != nil {
			info.Entropy = resource.Entropy(data)
		}
		return info
	}
	return nil
}

// Emit writes the summary as labeled lines. The file size is left to the
// caller, which picks its unit.
func (info *Info) Emit(e resource.Emitter) {
	e.Emit("架构", info.Architecture)
	e.Emit("子系统", info.Subsystem)
	e.Emit("资源目录RVA", fmt.Sprintf("0x%X", info.ResourceRVA))
	e.Emit("资源目录大小", strconv.FormatUint(uint64(info.ResourceSize), 10))
	if s := info.Section; s != nil {
		e.Emit("资源节区", s.Name)
		e.Emit("节区文件偏移", fmt.Sprintf("0x%X", s.Offset))
		e.Emit("节区权限", s.Permissions)
		e.Emit("节区熵值", fmt.Sprintf("%.2f", s.Entropy))
	}
}

func getArchitecture(machine uint16) string {
	switch machine {
	case pe.IMAGE_FILE_MACHINE_I386:
		return "x86 (32位)"
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return "x64 (64位)"
	case pe.IMAGE_FILE_MACHINE_ARM:
		return "ARM"
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return "ARM64"
	default:
		return fmt.Sprintf("未知 (0x%X)", machine)
	}
}

func getSubsystem(subsystem uint16) string {
	switch subsystem {
	case subsystemWindowsGUI:
		return "Windows GUI"
	case subsystemWindowsCUI:
		return "Windows 控制台"
	case subsystemNative:
		return "Native"
	default:
		return fmt.Sprintf("未知 (0x%X)", subsystem)
	}
}

func getSectionPermissions(c uint32) string {
	perms := []byte("---")
	if c&scnMemRead != 0 {
		perms[0] = 'R'
	}
	if c&scnMemWrite != 0 {
		perms[1] = 'W'
	}
	if c&scnMemExecute != 0 {
		perms[2] = 'X'
	}
	return string(perms)
}
