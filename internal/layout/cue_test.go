package layout

import (
	"strings"
	"testing"
)

func TestValidateCUE_ReleasedLayouts(t *testing.T) {
	for _, l := range Released() {
		if err := ValidateCUE(l); err != nil {
			t.Errorf("v%d failed schema validation: %v", l.Version, err)
		}
	}
}

func TestValidateCUE_RejectsBadKind(t *testing.T) {
	l := V1()
	l.Fields = append([]Field{}, l.Fields...)
	l.Fields[0].Kind = Kind("float64")

	err := ValidateCUE(l)
	if err == nil {
		t.Fatal("ValidateCUE() accepted an unknown kind")
	}
	if !strings.Contains(err.Error(), "schema violation") {
		t.Errorf("error = %q, want schema violation", err)
	}
}

func TestValidateCUE_RejectsBadName(t *testing.T) {
	l := V1()
	l.Fields = append([]Field{}, l.Fields...)
	l.Fields[0].Name = "Initialized Version"

	if err := ValidateCUE(l); err == nil {
		t.Fatal("ValidateCUE() accepted a malformed field name")
	}
}

func TestValidateCUE_RejectsNegativeSlot(t *testing.T) {
	l := V1()
	l.Fields = append([]Field{}, l.Fields...)
	l.Fields[0].Slot = -1

	if err := ValidateCUE(l); err == nil {
		t.Fatal("ValidateCUE() accepted a negative slot")
	}
}
