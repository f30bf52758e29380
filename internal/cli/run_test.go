package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZacharyZcR/peres/internal/pe/petest"
)

func writeSampleFile(t *testing.T, rsrc []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.exe")
	require.NoError(t, os.WriteFile(path, petest.BuildPE32(rsrc), 0o600))
	return path
}

func TestRunList(t *testing.T) {
	path := writeSampleFile(t, petest.SampleResources())
	var stdout, stderr bytes.Buffer

	err := Run(path, &Options{Format: "csv", List: true, Statistics: true}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "资源列表,,CONFIG 0001 0409 (5 bytes)\n")
	assert.Contains(t, out, "资源列表,,RT_ICON 0002 0804 (4 bytes)\n")
	assert.Contains(t, out, "资源统计,Total Structs,14\n")
	assert.Less(t, bytes.Index(stdout.Bytes(), []byte("资源列表")), bytes.Index(stdout.Bytes(), []byte("资源统计")))
	assert.Empty(t, stderr.String())
}

func TestRunAllOrder(t *testing.T) {
	path := writeSampleFile(t, petest.SampleResources())
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	err := Run(path, &Options{Format: "json", All: true, OutputDir: dir}, &stdout, &stderr)
	require.NoError(t, err)

	var doc struct {
		Sections []struct {
			Title string `json:"title"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc))

	var titles []string
	for _, s := range doc.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"基本信息", "资源信息", "资源统计", "资源列表", "资源提取", "文件版本"}, titles)

	assert.FileExists(t, filepath.Join(dir, "unknown", "1.bin"))
	assert.FileExists(t, filepath.Join(dir, "icons", "2.ico"))
}

func TestRunNamedExtract(t *testing.T) {
	path := writeSampleFile(t, petest.SampleResources())
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	err := Run(path, &Options{Format: "text", Extract: true, NamedExtract: true, OutputDir: dir, NoColor: true}, &stdout, &stderr)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "unknown", "CONFIG 0001 0409.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Contains(t, stdout.String(), "Save On")
}

func TestRunNamedExtractWithoutExtract(t *testing.T) {
	path := writeSampleFile(t, petest.SampleResources())
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	err := Run(path, &Options{Format: "csv", List: true, NamedExtract: true, OutputDir: dir}, &stdout, &stderr)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Contains(t, stdout.String(), "资源列表,,CONFIG 0001 0409 (5 bytes)\n")
	assert.NotContains(t, stdout.String(), "Save On")
}

func TestRunInfoSummary(t *testing.T) {
	path := writeSampleFile(t, petest.SampleResources())
	st, err := os.Stat(path)
	require.NoError(t, err)
	var stdout, stderr bytes.Buffer

	err = Run(path, &Options{Format: "csv", Info: true}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "基本信息,文件大小,"+FormatSize(st.Size())+"\n")
	assert.Contains(t, out, "基本信息,架构,x86 (32位)\n")
	assert.Contains(t, out, "KiB")
}

func TestRunEntropy(t *testing.T) {
	path := writeSampleFile(t, petest.SampleResources())
	var stdout, stderr bytes.Buffer

	err := Run(path, &Options{Format: "csv", List: true, Entropy: true}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "RT_ICON 0002 0804 (4 bytes) entropy 0.81")
}

func TestRunNoResources(t *testing.T) {
	path := writeSampleFile(t, nil)
	var stdout, stderr bytes.Buffer

	err := Run(path, &Options{Format: "text", List: true}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "no resources")
}

func TestRunErrors(t *testing.T) {
	path := writeSampleFile(t, petest.SampleResources())
	notPE := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notPE, []byte("just some text, not an executable at all"), 0o600))

	tests := []struct {
		name string
		path string
		opts Options
	}{
		{"Invalid format", path, Options{Format: "html", List: true}},
		{"No action", path, Options{Format: "text"}},
		{"Naming without action", path, Options{Format: "text", NamedExtract: true}},
		{"Missing file", filepath.Join(t.TempDir(), "missing.exe"), Options{Format: "text", List: true}},
		{"Not a PE file", notPE, Options{Format: "text", List: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Error(t, Run(tt.path, &tt.opts, &stdout, &stderr))
		})
	}
}
