package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCmd executes the CLI with args and returns its combined output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRoot_Help(t *testing.T) {
	out, err := runCmd(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"init", "deposit", "withdraw", "upgrade", "status", "trace", "layout"} {
		assert.Contains(t, out, sub)
	}
}

func TestRoot_InvalidFormatRejected(t *testing.T) {
	_, err := runCmd(t, "--format", "xml", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRoot_MissingDatabaseIsCommandError(t *testing.T) {
	_, err := runCmd(t, "--db", t.TempDir()+"/absent.db", "status")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLayoutCheck_NeedsNoDatabase(t *testing.T) {
	out, err := runCmd(t, "layout", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "3 released layouts verified")
}

func TestLayoutShow_ListsFields(t *testing.T) {
	out, err := runCmd(t, "layout", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "layout version 3")
	assert.Contains(t, out, "balances")
	assert.Contains(t, out, "withdrawalDelay")

	_, err = runCmd(t, "layout", "show", "--version", "9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
