package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tabledraw/pkg/config"
	"github.com/matzehuels/tabledraw/pkg/drawio"
	"github.com/matzehuels/tabledraw/pkg/layout"
	"github.com/matzehuels/tabledraw/pkg/mxgraph"
	"github.com/matzehuels/tabledraw/pkg/table"
)

const sampleCSV = `Header,Sub-Header,Item,Status
Platform,Compute,VMs,Green
Platform,Compute,Containers,Amber
Platform,Storage,Blobs,Red
Apps,Web,Portal,Green
`

// runCLI executes the root command with args and returns what commands
// wrote to their output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.SetOutput(&out)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGenerateSingle(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "plan.csv"), sampleCSV)

	out, err := runCLI(t, "generate", in, "--seed", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Generated "+filepath.Join(dir, "plan.drawio"))
	assert.Contains(t, out, "2 pages")
	assert.Contains(t, out, "fresh")

	data, err := os.ReadFile(filepath.Join(dir, "plan.drawio"))
	require.NoError(t, err)
	doc, err := drawio.ParseDocument(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Platform", "Apps"}, doc.PageNames())
}

func TestGenerateOutputFileAndPreview(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "plan.csv"), sampleCSV)
	out := filepath.Join(dir, "out", "diagram.drawio")

	_, err := runCLI(t, "generate", in, "-o", out, "--preview")
	require.NoError(t, err)

	assert.FileExists(t, out)
	assert.FileExists(t, filepath.Join(dir, "out", "diagram.platform.svg"))
	assert.FileExists(t, filepath.Join(dir, "out", "diagram.apps.svg"))
}

func TestGenerateMultipleIntoDir(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.csv"), sampleCSV)
	b := writeFile(t, filepath.Join(dir, "b.csv"), "Header,Sub-Header,Item\nX,Y,z\n")
	outDir := filepath.Join(dir, "docs")

	_, err := runCLI(t, "generate", a, b, "-o", outDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "a.drawio"))
	assert.FileExists(t, filepath.Join(outDir, "b.drawio"))
}

func TestGenerateUsesConfigFlag(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "plan.csv"), sampleCSV)

	cfg := config.Default()
	cfg.Page.Background = "none"
	var buf bytes.Buffer
	require.NoError(t, config.Encode(cfg, config.FormatYAML, &buf))
	cfgPath := writeFile(t, filepath.Join(dir, "geometry.yaml"), buf.String())

	_, err := runCLI(t, "generate", in, "-c", cfgPath)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "plan.drawio"))
	require.NoError(t, err)
	doc, err := drawio.ParseDocument(data)
	require.NoError(t, err)
	page, err := doc.Pages[0].XML()
	require.NoError(t, err)
	assert.Contains(t, string(page), `background="none"`)
}

func TestGenerateErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, filepath.Join(dir, "bad.csv"), "Header,Sub-Header,Item\nA,,x\n")

	_, err := runCLI(t, "generate", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.NoFileExists(t, filepath.Join(dir, "bad.drawio"))

	_, err = runCLI(t, "generate", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestPlanJobs(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, filepath.Join(dir, "exists.txt"), "x")

	tests := []struct {
		name    string
		inputs  []string
		output  string
		want    []string
		wantErr string
	}{
		{"default single", []string{"in/plan.csv"}, "", []string{"in/plan.drawio"}, ""},
		{"explicit file", []string{"plan.csv"}, "x/y.drawio", []string{"x/y.drawio"}, ""},
		{"existing dir", []string{"in/plan.csv"}, dir, []string{filepath.Join(dir, "plan.drawio")}, ""},
		{"many into dir", []string{"a.csv", "b/c.csv"}, "out", []string{"out/a.drawio", "out/c.drawio"}, ""},
		{"many default", []string{"a.csv", "b.tsv"}, "", []string{"a.drawio", "b.drawio"}, ""},
		{"many into file", []string{"a.csv", "b.csv"}, file, nil, "must be a directory"},
		{"colliding names", []string{"x/a.csv", "y/a.csv"}, "out", nil, "both write"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, err := planJobs(tt.inputs, tt.output)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			got := make([]string, len(jobs))
			for i, j := range jobs {
				assert.Equal(t, tt.inputs[i], j.input)
				got[i] = filepath.ToSlash(j.output)
			}
			want := make([]string, len(tt.want))
			for i, w := range tt.want {
				want[i] = filepath.ToSlash(w)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Platform":         "platform",
		"Data & Analytics": "data-analytics",
		"  ":               "page",
		"Ünïcode":          "n-code",
	}
	for in, want := range tests {
		assert.Equal(t, want, slug(in), "slug(%q)", in)
	}
}

func sampleModel(t *testing.T) *mxgraph.Model {
	t.Helper()
	g, err := table.ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	s, _ := g.Lookup("Platform")
	l, err := layout.Compute(config.Default(), s)
	require.NoError(t, err)
	return mxgraph.Assemble(l, config.Default().Page, mxgraph.NewSeededIDs("t"))
}

func TestSummarizePage(t *testing.T) {
	s := summarizePage(sampleModel(t))

	assert.Equal(t, "Platform", s.Name)
	assert.Equal(t, 6, s.Vertices)
	assert.Equal(t, 5, s.Edges)
	require.Len(t, s.Groups, 2)
	assert.Equal(t, "Compute", s.Groups[0].Name)
	assert.Equal(t, []itemSummary{
		{Name: "VMs", Fill: layout.FillGreen},
		{Name: "Containers", Fill: layout.FillAmber},
	}, s.Groups[0].Items)
	assert.Equal(t, 3, s.Items())
}

func TestStyleValue(t *testing.T) {
	assert.Equal(t, "#fff", styleValue("rounded=1;fillColor=#fff", "fillColor"))
	assert.Equal(t, "", styleValue("rounded=1;", "fillColor"))
	assert.Equal(t, "", styleValue("", "fillColor"))
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "plan.csv"), sampleCSV)
	_, err := runCLI(t, "generate", in)
	require.NoError(t, err)

	out, err := runCLI(t, "inspect", filepath.Join(dir, "plan.drawio"))
	require.NoError(t, err)
	assert.Contains(t, out, "Platform")
	assert.Contains(t, out, "Apps")
	assert.Contains(t, out, "Connectors")

	_, err = runCLI(t, "inspect", filepath.Join(dir, "missing.drawio"))
	assert.Error(t, err)
}

func TestPageBrowser(t *testing.T) {
	pages := []pageSummary{summarizePage(sampleModel(t)), {Name: "Empty", Vertices: 1}}
	var m tea.Model = newPageBrowser("plan.drawio", pages)

	view := m.View()
	assert.Contains(t, view, "Compute")
	assert.Contains(t, view, "Containers")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.(PageBrowserModel).Cursor)
	assert.Contains(t, m.View(), "no sub-headers")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.(PageBrowserModel).Cursor, "cursor stays on the last page")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.(PageBrowserModel).Cursor)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "geometry.yaml")

	_, err := runCLI(t, "config", "init", path)
	require.NoError(t, err)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = runCLI(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")
	_, err = runCLI(t, "config", "init", path, "--force")
	assert.NoError(t, err)

	out, err := runCLI(t, "config", "validate", path)
	assert.NoError(t, err)
	assert.Contains(t, out, "is valid")

	bad := writeFile(t, filepath.Join(dir, "bad.yaml"), "page: {}\n")
	_, err = runCLI(t, "config", "validate", bad)
	assert.Error(t, err)

	out, err = runCLI(t, "config", "show", path, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"item_wrap_limit"`)
}

func TestCachePath(t *testing.T) {
	out, err := runCLI(t, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, appName, filepath.Base(strings.TrimSpace(out)))
}

func TestWatchFilesDebounces(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "plan.csv"), sampleCSV)
	other := writeFile(t, filepath.Join(dir, "other.csv"), sampleCSV)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, newLogger(io.Discard, LogInfo), []string{path}, 100*time.Millisecond, func(string) {
			calls.Add(1)
		})
	}()
	time.Sleep(200 * time.Millisecond)

	// Unwatched files in the same directory are ignored.
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	for range 3 {
		require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "burst of writes should trigger one run")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestCompletion(t *testing.T) {
	out, err := runCLI(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "tabledraw")

	_, err = runCLI(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestCompleteFileArguments(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"generate", ""}, "csv"},
		{[]string{"inspect", ""}, "drawio"},
		{[]string{"config", "show", "--format", ""}, "yaml"},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		root := New(io.Discard, LogInfo).RootCommand()
		root.SetArgs(append([]string{"__complete"}, tt.args...))
		root.SetOut(&out)
		root.SetErr(io.Discard)
		require.NoError(t, root.Execute())
		assert.Contains(t, out.String(), tt.want, "args %v", tt.args)
	}
}
