package layout

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed layout.cue
var layoutCUE string

// ValidateCUE checks a layout document against the embedded CUE schema.
// Uses the CUE SDK's Go API directly (not CLI subprocess).
func ValidateCUE(l Layout) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(layoutCUE, cue.Filename("layout.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile layout schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Layout"))
	if !def.Exists() {
		return fmt.Errorf("layout schema: #Layout definition not found")
	}

	doc := ctx.Encode(l.Doc())
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode layout v%d: %w", l.Version, err)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &LayoutError{
			Version: l.Version,
			Message: fmt.Sprintf("schema violation: %s", cueerrors.Details(err, nil)),
		}
	}
	return nil
}
