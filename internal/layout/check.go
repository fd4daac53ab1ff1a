package layout

import "fmt"

// LayoutError reports a layout that violates the evolution rules.
type LayoutError struct {
	// Version is the layout version that failed the check.
	Version int

	// Field is the offending field name, if the error concerns one field.
	Field string

	// Message describes the violation.
	Message string
}

// Error implements the error interface.
func (e *LayoutError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("layout v%d: field %q: %s", e.Version, e.Field, e.Message)
	}
	return fmt.Sprintf("layout v%d: %s", e.Version, e.Message)
}

// Validate checks a single layout for internal consistency: fields occupy
// slots 0..n-1 in order with no holes, names are unique and non-empty, kinds
// are known, and the gap accounts for every unassigned slot.
func Validate(l Layout) error {
	if l.Version < 1 {
		return &LayoutError{Version: l.Version, Message: "version must be >= 1"}
	}
	names := make(map[string]bool, len(l.Fields))
	for i, f := range l.Fields {
		if f.Name == "" {
			return &LayoutError{Version: l.Version, Message: fmt.Sprintf("field at slot %d has no name", f.Slot)}
		}
		if names[f.Name] {
			return &LayoutError{Version: l.Version, Field: f.Name, Message: "duplicate field name"}
		}
		names[f.Name] = true
		if !ValidKinds[f.Kind] {
			return &LayoutError{Version: l.Version, Field: f.Name, Message: fmt.Sprintf("unknown kind %q", f.Kind)}
		}
		if f.Slot != i {
			return &LayoutError{Version: l.Version, Field: f.Name,
				Message: fmt.Sprintf("slot %d out of order, expected contiguous slot %d", f.Slot, i)}
		}
	}
	if want := TotalSlots - len(l.Fields); l.Gap != want {
		return &LayoutError{Version: l.Version,
			Message: fmt.Sprintf("gap is %d, expected %d (%d total slots minus %d fields)", l.Gap, want, TotalSlots, len(l.Fields))}
	}
	return nil
}

// Check verifies that next is a legal evolution of prev.
//
// Every field of prev must appear in next with an identical name, slot, and
// kind. New fields may only be appended to the slots freed from the gap, and
// the gap must shrink by exactly the number of appended fields. This is the
// authoring-time rejection demanded of any migration that would reinterpret
// committed storage.
func Check(prev, next Layout) error {
	if err := Validate(prev); err != nil {
		return err
	}
	if err := Validate(next); err != nil {
		return err
	}
	if next.Version != prev.Version+1 {
		return &LayoutError{Version: next.Version,
			Message: fmt.Sprintf("version must follow v%d", prev.Version)}
	}
	if len(next.Fields) < len(prev.Fields) {
		return &LayoutError{Version: next.Version,
			Message: fmt.Sprintf("removes %d committed field(s)", len(prev.Fields)-len(next.Fields))}
	}
	for i, pf := range prev.Fields {
		nf := next.Fields[i]
		if nf.Name != pf.Name {
			return &LayoutError{Version: next.Version, Field: pf.Name,
				Message: fmt.Sprintf("renamed or reordered to %q at slot %d", nf.Name, nf.Slot)}
		}
		if nf.Slot != pf.Slot {
			return &LayoutError{Version: next.Version, Field: pf.Name,
				Message: fmt.Sprintf("slot moved from %d to %d", pf.Slot, nf.Slot)}
		}
		if nf.Kind != pf.Kind {
			return &LayoutError{Version: next.Version, Field: pf.Name,
				Message: fmt.Sprintf("kind changed from %q to %q", pf.Kind, nf.Kind)}
		}
	}
	appended := len(next.Fields) - len(prev.Fields)
	if next.Gap != prev.Gap-appended {
		return &LayoutError{Version: next.Version,
			Message: fmt.Sprintf("gap is %d, expected %d (previous gap %d minus %d appended)", next.Gap, prev.Gap-appended, prev.Gap, appended)}
	}
	return nil
}

// Chain verifies every released layout against its predecessor and against
// the CUE schema. Run by `strongbox layout check` and by tests; a failure
// here means a released layout was edited in place.
func Chain() error {
	rel := Released()
	if len(rel) == 0 {
		return fmt.Errorf("no released layouts")
	}
	if err := Validate(rel[0]); err != nil {
		return err
	}
	for _, l := range rel {
		if err := ValidateCUE(l); err != nil {
			return err
		}
	}
	for i := 1; i < len(rel); i++ {
		if err := Check(rel[i-1], rel[i]); err != nil {
			return err
		}
	}
	return nil
}
