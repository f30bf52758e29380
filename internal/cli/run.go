package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ZacharyZcR/peres/internal/pe"
	"github.com/ZacharyZcR/peres/internal/resource"
)

// Options selects the actions of Run and configures them.
type Options struct {
	All        bool
	Format     string
	Info       bool
	List       bool
	Statistics bool
	Extract    bool
	// NamedExtract names extracted files after their resource path. It only
	// applies when Extract or All is set.
	NamedExtract bool
	FileVersion  bool

	OutputDir      string
	Sniff          bool
	VersionStrings bool
	Entropy        bool
	NoColor        bool
	Debug          bool
}

func (o *Options) anyAction() bool {
	return o.All || o.Info || o.List || o.Statistics || o.Extract || o.FileVersion
}

// NewLogger returns the diagnostics logger: warnings only unless debug is set.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Run reports on the resources of path. Actions run in the order info,
// statistics, list, extract, version when All is set and extract, info,
// list, statistics, version otherwise. A file without resources is not an
// error: a warning is logged and nothing is written to stdout.
func Run(path string, o *Options, stdout, stderr io.Writer) error {
	format, err := ParseFormat(o.Format)
	if err != nil {
		return err
	}
	if !o.anyAction() {
		return fmt.Errorf("必须指定至少一个操作 (-a, -i, -l, -s, -x, -X, -v)")
	}

	log := NewLogger(stderr, o.Debug)

	reader, err := pe.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	sec, err := reader.Resources()
	if errors.Is(err, pe.ErrNoResources) {
		log.Warn("This file has no resources", "file", path)
		return nil
	}
	if err != nil {
		return err
	}

	rep := NewReporter(stdout, format)
	if o.NoColor {
		rep.SetColor(false)
	}
	if err := rep.Open(path); err != nil {
		return fmt.Errorf("写入输出失败: %w", err)
	}

	a := &actions{reader: reader, sec: sec, opts: o, rep: rep, log: log}
	if o.All {
		a.info()
		a.stats()
		a.list()
		a.extract()
		a.version()
	} else {
		if o.Extract {
			a.extract()
		}
		if o.Info {
			a.info()
		}
		if o.List {
			a.list()
		}
		if o.Statistics {
			a.stats()
		}
		if o.FileVersion {
			a.version()
		}
	}

	if err := rep.Close(); err != nil {
		return fmt.Errorf("写入输出失败: %w", err)
	}
	return nil
}

type actions struct {
	reader *pe.Reader
	sec    *resource.Section
	opts   *Options
	rep    *Reporter
	log    *slog.Logger
}

func (a *actions) info() {
	a.rep.Section("基本信息")
	info := pe.NewAnalyzer(a.reader).Analyze()
	a.rep.Emit("文件大小", FormatSize(info.FileSize))
	info.Emit(a.rep)

	a.rep.Section("资源信息")
	resource.Dump(a.sec.Root, a.rep)
}

func (a *actions) stats() {
	a.rep.Section("资源统计")
	resource.CollectStats(a.sec.Root).Emit(a.rep)
}

func (a *actions) list() {
	a.rep.Section("资源列表")
	paths := resource.NewPathBuilder(a.sec, nil, a.log)
	if !a.opts.Entropy {
		resource.List(a.sec.Root, paths, a.rep)
		return
	}
	for _, it := range resource.ListItems(a.sec.Root, paths) {
		data, err := resource.Payload(a.sec.Image, it.Node)
		if err != nil {
			a.log.Debug("cannot read resource data", "path", it.Path, "error", err)
			a.rep.Emit("", it.String())
			continue
		}
		a.rep.Emit("", fmt.Sprintf("%s entropy %.2f", it, resource.Entropy(data)))
	}
}

func (a *actions) extract() {
	a.rep.Section("资源提取")
	x := resource.NewExtractor(a.sec, resource.ExtractOptions{
		Dir:   a.opts.OutputDir,
		Named: a.opts.NamedExtract,
		Sniff: a.opts.Sniff,
	}, a.log)
	x.ExtractAll(a.rep)
}

func (a *actions) version() {
	a.rep.Section("文件版本")
	d := resource.NewVersionDecoder(a.sec, resource.VersionOptions{Strings: a.opts.VersionStrings}, a.log)
	d.Emit(a.rep)
}
