package resource

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/h2non/filetype"
)

// DefaultOutputDir is where resources are extracted unless configured.
const DefaultOutputDir = "resources"

// ExtractOptions configures an Extractor.
type ExtractOptions struct {
	// Dir is the base output directory. Empty means DefaultOutputDir.
	Dir string
	// Named names files after the full resource path instead of the level 2
	// id.
	Named bool
	// Sniff lets a recognized payload signature replace a generic extension.
	Sniff bool
	// Types maps type ids to categories. Nil means DefaultTypes.
	Types TypeTable
}

// Extractor writes the payload of data entries to disk, one category
// directory per resource type.
type Extractor struct {
	sec   *Section
	opts  ExtractOptions
	paths *PathBuilder
	log   *slog.Logger
}

// NewExtractor creates an extractor for sec.
func NewExtractor(sec *Section, opts ExtractOptions, log *slog.Logger) *Extractor {
	if opts.Dir == "" {
		opts.Dir = DefaultOutputDir
	}
	if opts.Types == nil {
		opts.Types = DefaultTypes
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{
		sec:   sec,
		opts:  opts,
		paths: NewPathBuilder(sec, opts.Types, log),
		log:   log,
	}
}

// Payload returns the bytes a data entry refers to.
func Payload(img Image, n *Node) ([]byte, error) {
	if n.Type != DataEntryNode {
		return nil, fmt.Errorf("%s has no payload", n.Type)
	}
	_, data, err := readRVA(img, n.Data.OffsetToData, n.Data.Size)
	return data, err
}

// ExtractAll saves every level 3 data entry of the tree and returns the
// written paths. Entries that cannot be saved are skipped.
func (x *Extractor) ExtractAll(e Emitter) []string {
	var written []string
	walk(x.sec.Root, func(n *Node) {
		if n.Type != DataEntryNode || n.DirLevel != LevelLanguage {
			return
		}
		if path, ok := x.Extract(n); ok {
			written = append(written, path)
			if e != nil {
				e.Emit("Save On", path)
			}
		}
	})
	return written
}

// Extract saves a single level 3 data entry and returns the written path.
func (x *Extractor) Extract(n *Node) (string, bool) {
	if n.Type != DataEntryNode || n.DirLevel != LevelLanguage {
		x.log.Warn("not a level 3 data entry", "type", n.Type.String(), "level", n.DirLevel)
		return "", false
	}

	offset, data, err := readRVA(x.sec.Image, n.Data.OffsetToData, n.Data.Size)
	if err != nil {
		x.log.Warn("resource data outside mapped range",
			"rva", fmt.Sprintf("0x%X", n.Data.OffsetToData),
			"offset", fmt.Sprintf("0x%X", offset),
			"size", n.Data.Size,
			"error", err)
		return "", false
	}

	typeNode := n.FindParent(DirectoryEntryNode, LevelType)
	nameNode := n.FindParent(DirectoryEntryNode, LevelName)
	if typeNode == nil || nameNode == nil {
		x.log.Warn("parent directory entry not found", "offset", fmt.Sprintf("0x%X", offset))
		return "", false
	}

	dir := filepath.Join(x.opts.Dir, x.opts.Types.DirName(typeNode.Entry.Name))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		x.log.Debug("cannot create directory", "dir", dir, "error", err)
		return "", false
	}

	ext := x.opts.Types.Extension(typeNode.Entry.Name)
	if x.opts.Sniff {
		ext = sniffExtension(typeNode.Entry.Name, ext, data)
	}

	// The extension counts against the file name limit of a named stem. A
	// path with unresolved levels falls back to the level 2 id.
	var stem string
	if x.opts.Named {
		if s, ok := x.paths.build(n, x.paths.maxLen-len(ext)); ok && s != "" {
			stem = s
		}
	}
	if stem == "" {
		stem = strconv.FormatUint(uint64(nameNode.Entry.NameOffset()), 10)
	}
	path := filepath.Join(dir, stem+ext)

	if err := writeFile(path, data); err != nil {
		x.log.Debug("cannot write resource", "path", path, "error", err)
		return "", false
	}
	return path, true
}

// writeFile replaces path with data and removes it again if the write fails.
func writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

// sniffExtension refines the generic extensions of unknown and RT_RCDATA
// resources from the payload signature.
func sniffExtension(typeID uint32, ext string, data []byte) string {
	if typeID != RT_RCDATA && ext != FallbackExtension {
		return ext
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || kind.Extension == "" {
		return ext
	}
	return "." + kind.Extension
}
