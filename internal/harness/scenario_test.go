package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: basic
init:
  admin: alice
  feeBps: 100
accounts:
  - name: bob
    mint: "1000"
steps:
  - op: deposit
    caller: bob
    amount: "1000"
assertions:
  - type: balance
    account: bob
    equals: "990"
`)
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "basic", sc.Name)
	assert.Equal(t, uint64(100), sc.Init.FeeBps)
	require.Len(t, sc.Steps, 1)
	assert.Equal(t, OpDeposit, sc.Steps[0].Op)
}

func TestLoadScenario_MissingInit(t *testing.T) {
	path := writeScenario(t, `
name: broken
steps:
  - op: advance
    seconds: 10
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init section is required")
}

func TestLoadScenario_UnknownOp(t *testing.T) {
	path := writeScenario(t, `
name: broken
init:
  admin: alice
steps:
  - op: teleport
    caller: bob
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown op "teleport"`)
}

func TestLoadScenario_LadderMustBeSequential(t *testing.T) {
	path := writeScenario(t, `
name: broken
init:
  admin: alice
upgrades:
  - version: 3
    by: alice
    delaySeconds: 86400
steps: []
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version 3 does not follow 1")
}

func TestLoadScenario_BadAmount(t *testing.T) {
	path := writeScenario(t, `
name: broken
init:
  admin: alice
steps:
  - op: deposit
    caller: bob
    amount: "many"
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a decimal amount")
}

func TestLoadScenarioDir_SortedAndValidated(t *testing.T) {
	scenarios, err := LoadScenarioDir(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	// Filenames sort the load order; names must be unique.
	seen := map[string]bool{}
	for _, sc := range scenarios {
		assert.False(t, seen[sc.Name], "duplicate scenario name %s", sc.Name)
		seen[sc.Name] = true
	}
}
