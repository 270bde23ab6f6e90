package importcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/marco/internal/cmd/cmdutil"
	"github.com/open-cli-collective/marco/internal/config"
)

func writeHTML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newOptions() *importOptions {
	return &importOptions{env: cmdutil.NewEnv(config.Default())}
}

func TestRunImport_Stdout(t *testing.T) {
	path := writeHTML(t, "<h1>Title</h1><p>This is <strong>bold</strong> text</p>")

	var out, errOut bytes.Buffer
	require.NoError(t, runImport(path, newOptions(), &out, &errOut))

	assert.Equal(t, "# Title\n\nThis is **bold** text\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRunImport_Stdin(t *testing.T) {
	opts := newOptions()
	opts.env.Stdin = strings.NewReader("<ul><li>Item 1</li><li>Item 2</li></ul>")

	var out bytes.Buffer
	require.NoError(t, runImport("-", opts, &out, &bytes.Buffer{}))
	assert.Equal(t, "- Item 1\n- Item 2\n", out.String())
}

func TestRunImport_OutFile(t *testing.T) {
	path := writeHTML(t, "<p>Hello world</p>")

	opts := newOptions()
	opts.out = filepath.Join(t.TempDir(), "page.md")

	var out, errOut bytes.Buffer
	require.NoError(t, runImport(path, opts, &out, &errOut))

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "✓ Converted")

	data, err := os.ReadFile(opts.out)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\n", string(data))
}

func TestRunImport_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runImport(writeHTML(t, ""), newOptions(), &out, &bytes.Buffer{}))
	assert.Empty(t, out.String())
}

func TestRunImport_MissingFile(t *testing.T) {
	err := runImport(filepath.Join(t.TempDir(), "nope.html"), newOptions(), &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}
