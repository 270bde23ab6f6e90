package check

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/marco/internal/cmd/cmdutil"
	"github.com/open-cli-collective/marco/internal/config"
	"github.com/open-cli-collective/marco/internal/view"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newOptions(format view.Format) *checkOptions {
	env := cmdutil.NewEnv(config.Default())
	env.Format = format
	return &checkOptions{env: env}
}

func TestRunCheck_Clean(t *testing.T) {
	path := writeDoc(t, "# Title\n\nSome text.\n")

	var buf bytes.Buffer
	require.NoError(t, runCheck([]string{path}, newOptions(view.FormatTable), &buf))
	assert.Equal(t, "✓ No problems found\n", buf.String())
}

func TestRunCheck_Table(t *testing.T) {
	path := writeDoc(t, "see [x][missing]\n")

	var buf bytes.Buffer
	require.NoError(t, runCheck([]string{path}, newOptions(view.FormatTable), &buf))

	out := buf.String()
	assert.Contains(t, out, "LOCATION")
	assert.Contains(t, out, "1:5")
	assert.Contains(t, out, "warning")
	assert.Contains(t, out, "reference")
	assert.Contains(t, out, "unresolved link reference")
	assert.Contains(t, out, "! 1 problem(s)")
}

func TestRunCheck_JSON(t *testing.T) {
	path := writeDoc(t, "# A\n\n### B\n")

	var buf bytes.Buffer
	require.NoError(t, runCheck([]string{path}, newOptions(view.FormatJSON), &buf))

	var problems []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &problems))
	require.Len(t, problems, 1)
	assert.Equal(t, path, problems[0]["file"])
	assert.Equal(t, "hint", problems[0]["severity"])
	assert.Equal(t, "structural", problems[0]["category"])
	assert.Equal(t, "heading level jumps from 1 to 3", problems[0]["message"])
	assert.Contains(t, problems[0], "start")
}

func TestRunCheck_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runCheck([]string{writeDoc(t, "ok\n")}, newOptions(view.FormatJSON), &buf))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestRunCheck_Plain(t *testing.T) {
	path := writeDoc(t, "# A\n\n### B\n")

	var buf bytes.Buffer
	require.NoError(t, runCheck([]string{path}, newOptions(view.FormatPlain), &buf))
	assert.Equal(t, path+"\t3:1\thint\tstructural\theading level jumps from 1 to 3\n", buf.String())
}

func TestRunCheck_SeverityFilter(t *testing.T) {
	path := writeDoc(t, "# A\n\n### B\n")

	opts := newOptions(view.FormatTable)
	opts.severity = "warning"

	var buf bytes.Buffer
	require.NoError(t, runCheck([]string{path}, opts, &buf))
	assert.Equal(t, "✓ No problems found\n", buf.String())
}

func TestRunCheck_InvalidSeverity(t *testing.T) {
	opts := newOptions(view.FormatTable)
	opts.severity = "fatal"

	err := runCheck([]string{"x.md"}, opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid severity")
}

func TestRunCheck_Strict(t *testing.T) {
	path := writeDoc(t, "see [x][missing]\n")

	opts := newOptions(view.FormatTable)
	opts.strict = true

	err := runCheck([]string{path}, opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProblems))
	assert.Contains(t, err.Error(), "1 failing diagnostic(s)")
}

func TestRunCheck_MissingFile(t *testing.T) {
	err := runCheck([]string{filepath.Join(t.TempDir(), "nope.md")}, newOptions(view.FormatTable), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestNewCmdCheck(t *testing.T) {
	cmd := NewCmdCheck()
	assert.Equal(t, "check <file>...", cmd.Use)
	assert.Equal(t, "hint", cmd.Flags().Lookup("severity").DefValue)
	assert.NotNil(t, cmd.Flags().Lookup("strict"))
}
