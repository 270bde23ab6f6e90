package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/marco/internal/cmd/cmdutil"
	"github.com/open-cli-collective/marco/internal/config"
)

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newOptions() *renderOptions {
	return &renderOptions{env: cmdutil.NewEnv(config.Default())}
}

func TestRunRender_Stdout(t *testing.T) {
	path := writeDoc(t, "doc.md", "# Hello\n\nThis is **bold** and *italic*.\n")

	var out, errOut bytes.Buffer
	err := runRender([]string{path}, newOptions(), &out, &errOut)
	require.NoError(t, err)

	assert.Equal(t, "<h1>Hello</h1>\n<p>This is <strong>bold</strong> and <em>italic</em>.</p>\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRunRender_MultipleFiles(t *testing.T) {
	a := writeDoc(t, "a.md", "one\n")
	b := writeDoc(t, "b.md", "two\n")

	var out bytes.Buffer
	require.NoError(t, runRender([]string{a, b, a}, newOptions(), &out, &bytes.Buffer{}))
	assert.Equal(t, "<p>one</p>\n<p>two</p>\n<p>one</p>\n", out.String())
}

func TestRunRender_Stdin(t *testing.T) {
	opts := newOptions()
	opts.env.Stdin = strings.NewReader("> quoted\n")

	var out bytes.Buffer
	require.NoError(t, runRender([]string{"-"}, opts, &out, &bytes.Buffer{}))
	assert.Equal(t, "<blockquote>\n<p>quoted</p>\n</blockquote>\n", out.String())
}

func TestRunRender_Flags(t *testing.T) {
	code := "```go\nfunc main() {}\n```\n"

	t.Run("highlighted by default", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runRender([]string{writeDoc(t, "a.md", code)}, newOptions(), &out, &bytes.Buffer{}))

		dom, err := goquery.NewDocumentFromReader(&out)
		require.NoError(t, err)
		assert.Equal(t, 1, dom.Find("pre.chroma").Length())
	})

	t.Run("no highlight", func(t *testing.T) {
		opts := newOptions()
		opts.noHighlight = true

		var out bytes.Buffer
		require.NoError(t, runRender([]string{writeDoc(t, "a.md", code)}, opts, &out, &bytes.Buffer{}))
		assert.Equal(t, "<pre><code class=\"language-go\">func main() {}\n</code></pre>\n", out.String())
	})

	t.Run("heading ids and shift", func(t *testing.T) {
		opts := newOptions()
		opts.headingIDs = true
		opts.shift = 1

		var out bytes.Buffer
		require.NoError(t, runRender([]string{writeDoc(t, "a.md", "# Intro\n")}, opts, &out, &bytes.Buffer{}))
		assert.Equal(t, "<h2 id=\"intro\">Intro</h2>\n", out.String())
	})

	t.Run("sanitize", func(t *testing.T) {
		opts := newOptions()
		opts.sanitize = true

		var out bytes.Buffer
		require.NoError(t, runRender([]string{writeDoc(t, "a.md", "<script>alert(1)</script>\n")}, opts, &out, &bytes.Buffer{}))
		assert.NotContains(t, out.String(), "<script>")
	})
}

func TestRunRender_Reference(t *testing.T) {
	opts := newOptions()
	opts.reference = true

	var out bytes.Buffer
	require.NoError(t, runRender([]string{writeDoc(t, "a.md", "# Hello\n")}, opts, &out, &bytes.Buffer{}))
	assert.Contains(t, out.String(), "<h1")
	assert.Contains(t, out.String(), "Hello</h1>")
}

func TestRunRender_OutFile(t *testing.T) {
	opts := newOptions()
	opts.out = filepath.Join(t.TempDir(), "out.html")

	var out, errOut bytes.Buffer
	require.NoError(t, runRender([]string{writeDoc(t, "a.md", "hi\n")}, opts, &out, &errOut))

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "✓ Wrote")

	data, err := os.ReadFile(opts.out)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>\n", string(data))
}

func TestRunRender_Standalone(t *testing.T) {
	opts := newOptions()
	opts.standalone = true

	var out bytes.Buffer
	require.NoError(t, runRender([]string{writeDoc(t, "guide.md", "```go\nx := 1\n```\n")}, opts, &out, &bytes.Buffer{}))

	dom, err := goquery.NewDocumentFromReader(&out)
	require.NoError(t, err)
	assert.Equal(t, "guide", dom.Find("title").Text())
	assert.Contains(t, dom.Find("style").Text(), ".chroma")
	assert.Equal(t, 1, dom.Find("body pre.chroma").Length())
}

func TestRunRender_Stats(t *testing.T) {
	opts := newOptions()
	opts.stats = true
	path := writeDoc(t, "a.md", "hi\n")

	var out, errOut bytes.Buffer
	require.NoError(t, runRender([]string{path, path}, opts, &out, &errOut))

	stats := errOut.String()
	assert.Contains(t, stats, "Files: 2")
	assert.Contains(t, stats, "Input: 6 B")
	assert.Contains(t, stats, "1 hits, 1 misses")
}

func TestRunRender_Errors(t *testing.T) {
	tests := []struct {
		name   string
		paths  []string
		setup  func(*renderOptions)
		errMsg string
	}{
		{
			name:   "missing file",
			paths:  []string{filepath.Join(os.TempDir(), "marco-missing", "a.md")},
			errMsg: "failed to read file",
		},
		{
			name:   "out with many files",
			paths:  []string{"a.md", "b.md"},
			setup:  func(o *renderOptions) { o.out = "x.html" },
			errMsg: "--out requires a single input file",
		},
		{
			name:   "reference with shift",
			paths:  []string{"a.md"},
			setup:  func(o *renderOptions) { o.reference = true; o.shift = 1 },
			errMsg: "--reference cannot be combined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := newOptions()
			if tt.setup != nil {
				tt.setup(opts)
			}
			err := runRender(tt.paths, opts, &bytes.Buffer{}, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewCmdRender(t *testing.T) {
	cmd := NewCmdRender()
	assert.Equal(t, "render <file>...", cmd.Use)
	for _, name := range []string{"out", "reference", "no-highlight", "sanitize", "heading-ids", "standalone", "shift-headings", "stats"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}
