package harness

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceText renders the audit trail as one line per event:
//
//	<seq> <at> <name> <canonical-fields-json>
//
// Fields are emitted exactly as stored, so the rendering is byte-stable
// across runs and platforms.
func (r *Result) TraceText() []byte {
	var buf bytes.Buffer
	for _, e := range r.Events {
		fmt.Fprintf(&buf, "%d %d %s %s\n", e.Seq, e.At, e.Name, e.Fields)
	}
	return buf.Bytes()
}

// RunWithGolden executes a scenario, checks its assertions, and compares
// the audit trail against testdata/golden/<name>.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario) {
	t.Helper()

	result, err := Run(filepath.Join(t.TempDir(), "vault.db"), sc)
	if err != nil {
		t.Fatalf("run scenario %s: %v", sc.Name, err)
	}
	defer result.Close()

	if err := result.Check(); err != nil {
		t.Fatalf("scenario %s assertions: %v", sc.Name, err)
	}

	g := goldie.New(t, goldie.WithFixtureDir(filepath.Join("testdata", "golden")))
	g.Assert(t, sc.Name, result.TraceText())
}
