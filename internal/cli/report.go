// Package cli provides command-line interface utilities.
package cli

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Format selects how a Reporter renders its document.
type Format string

// Supported output formats.
const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

// Formats lists the supported format names.
func Formats() []string {
	return []string{string(FormatText), string(FormatCSV), string(FormatXML), string(FormatJSON)}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(name, f) {
			return Format(f), nil
		}
	}
	return "", fmt.Errorf("无效的输出格式: %s (可选: %s)", name, strings.Join(Formats(), "|"))
}

type item struct {
	XMLName xml.Name `xml:"item" json:"-"`
	Label   string   `xml:"label,attr,omitempty" json:"label,omitempty"`
	Value   string   `xml:",chardata" json:"value"`
	Group   int      `xml:"group,attr,omitempty" json:"group,omitempty"`
}

type section struct {
	XMLName xml.Name `xml:"section" json:"-"`
	Title   string   `xml:"title,attr" json:"title"`
	Items   []item   `xml:"item" json:"items"`
}

type document struct {
	XMLName  xml.Name   `xml:"peres" json:"-"`
	File     string     `xml:"file,attr" json:"file"`
	Sections []*section `xml:"section" json:"sections"`
}

// Reporter writes report lines in one of the supported formats. It
// implements resource.Emitter and resource.Grouper.
//
// Text and CSV lines are written as they are emitted; XML and JSON
// documents are written by Close.
type Reporter struct {
	w      io.Writer
	format Format

	header *color.Color
	title  *color.Color
	label  *color.Color

	csv *csv.Writer
	doc document
	cur *section
	grp int
	// lines emitted in text format since the last separator.
	lines int
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer, format Format) *Reporter {
	return &Reporter{
		w:      w,
		format: format,
		header: color.New(color.FgCyan, color.Bold),
		title:  color.New(color.FgYellow, color.Bold),
		label:  color.New(color.FgGreen),
	}
}

// SetColor forces colored text output on or off. By default color follows
// whether stdout is a terminal.
func (r *Reporter) SetColor(enabled bool) {
	for _, c := range []*color.Color{r.header, r.title, r.label} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// Open starts the document for the given file.
func (r *Reporter) Open(file string) error {
	r.doc = document{File: file}
	switch r.format {
	case FormatText:
		r.header.Fprintln(r.w, "\n╔════════════════════════════════════════╗")
		r.header.Fprintln(r.w, "║           PERes 资源分析报告           ║")
		r.header.Fprintln(r.w, "╚════════════════════════════════════════╝")
		_, err := fmt.Fprintf(r.w, "  %-20s: %s\n", "文件路径", file)
		return err
	case FormatCSV:
		r.csv = csv.NewWriter(r.w)
		return r.csv.Write([]string{"section", "label", "value"})
	}
	return nil
}

// Section starts a titled part of the document, one per action.
func (r *Reporter) Section(title string) {
	r.cur = &section{Title: title}
	r.grp = 0
	r.lines = 0
	r.doc.Sections = append(r.doc.Sections, r.cur)
	if r.format == FormatText {
		r.title.Fprintf(r.w, "\n【%s】\n", title)
	}
}

// Emit writes one line. An empty label writes the value alone.
func (r *Reporter) Emit(label, value string) {
	switch r.format {
	case FormatText:
		r.lines++
		if label == "" {
			fmt.Fprintf(r.w, "  %s\n", value)
			return
		}
		r.label.Fprintf(r.w, "  %-30s", label)
		fmt.Fprintf(r.w, ": %s\n", value)
	case FormatCSV:
		_ = r.csv.Write([]string{r.sectionTitle(), label, value})
	default:
		if r.cur == nil {
			r.Section("")
		}
		r.cur.Items = append(r.cur.Items, item{Label: label, Value: value, Group: r.grp})
	}
}

// Group separates the following lines from the previous ones.
func (r *Reporter) Group() {
	r.grp++
	if r.format == FormatText && r.lines > 0 {
		fmt.Fprintln(r.w)
		r.lines = 0
	}
}

// Close finishes the document.
func (r *Reporter) Close() error {
	switch r.format {
	case FormatCSV:
		r.csv.Flush()
		return r.csv.Error()
	case FormatXML:
		if _, err := io.WriteString(r.w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(r.w)
		enc.Indent("", "  ")
		if err := enc.Encode(r.doc); err != nil {
			return fmt.Errorf("写入XML失败: %w", err)
		}
		_, err := fmt.Fprintln(r.w)
		return err
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r.doc); err != nil {
			return fmt.Errorf("写入JSON失败: %w", err)
		}
	}
	return nil
}

func (r *Reporter) sectionTitle() string {
	if r.cur == nil {
		return ""
	}
	return r.cur.Title
}

// FormatSize renders a byte count with binary units.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
