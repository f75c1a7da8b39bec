package pluginabi

import (
	"math"
	"testing"
)

func TestSanitizeReplacesNonFinite(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{math.NaN(), 0.0},
		{math.Inf(1), 0.0},
		{math.Inf(-1), 0.0},
		{5.0, 5.0},
		{0.0, 0.0},
	}
	for _, c := range cases {
		if got := Sanitize(c.in); got != c.want {
			t.Fatalf("Sanitize(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseBehaviorNilOnEmpty(t *testing.T) {
	b, err := ParseBehavior(nil)
	if err != nil {
		t.Fatalf("ParseBehavior: %v", err)
	}
	if b != nil {
		t.Fatal("expected nil behavior for empty payload")
	}
}

func TestParseBehaviorRejectsUnknownFields(t *testing.T) {
	_, err := ParseBehavior([]byte(`{"extendable_inputs": true, "bogus_field": 1}`))
	if err == nil {
		t.Fatal("expected schema validation error for unknown field")
	}
}

func TestParseBehaviorDecodesKnownFields(t *testing.T) {
	b, err := ParseBehavior([]byte(`{"extendable_inputs": true, "supports_restart": true}`))
	if err != nil {
		t.Fatalf("ParseBehavior: %v", err)
	}
	if !b.ExtendableInputs || !b.SupportsRestart {
		t.Fatalf("unexpected behavior: %+v", b)
	}
}
