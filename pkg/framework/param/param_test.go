package param

import "testing"

func TestRangesFixValue(t *testing.T) {
	r := Ranges{Def: 0.5, Min: -1, Max: 1}

	tests := []struct {
		in, want float32
	}{
		{0, 0},
		{-1, -1},
		{1, 1},
		{-2, -1},
		{2, 1},
		{0.25, 0.25},
	}
	for _, tt := range tests {
		if got := r.FixValue(tt.in); got != tt.want {
			t.Errorf("FixValue(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestRangesFix(t *testing.T) {
	t.Run("inverted range is reordered", func(t *testing.T) {
		r := Ranges{Min: 10, Max: -10, Def: 0, Step: 0.1, StepSmall: 0.01, StepLarge: 1}
		r.Fix()
		if r.Min != -10 || r.Max != 10 {
			t.Errorf("Expected -10..10, got %g..%g", r.Min, r.Max)
		}
	})

	t.Run("collapsed range is widened", func(t *testing.T) {
		r := Ranges{Min: 5, Max: 5}
		r.Fix()
		if r.Max <= r.Min {
			t.Errorf("Range still collapsed: %g..%g", r.Min, r.Max)
		}
	})

	t.Run("default is clamped", func(t *testing.T) {
		r := Ranges{Min: 0, Max: 1, Def: 3, Step: 0.01, StepSmall: 0.001, StepLarge: 0.1}
		r.Fix()
		if r.Def != 1 {
			t.Errorf("Expected default clamped to 1, got %g", r.Def)
		}
	})

	t.Run("missing steps are derived", func(t *testing.T) {
		r := Ranges{Min: 0, Max: 100}
		r.Fix()
		if r.Step <= 0 || r.StepSmall <= 0 || r.StepLarge <= 0 {
			t.Errorf("Steps not derived: %g/%g/%g", r.Step, r.StepSmall, r.StepLarge)
		}
		if r.StepSmall > r.Step || r.Step > r.StepLarge {
			t.Errorf("Step ordering wrong: %g/%g/%g", r.StepSmall, r.Step, r.StepLarge)
		}
	})
}

func TestRangesNormalize(t *testing.T) {
	r := Ranges{Min: -10, Max: 10}

	if got := r.Normalized(0); got != 0.5 {
		t.Errorf("Normalized(0) = %g, want 0.5", got)
	}
	if got := r.Normalized(-20); got != 0 {
		t.Errorf("Normalized(-20) = %g, want 0 (clamped)", got)
	}
	if got := r.Normalized(20); got != 1 {
		t.Errorf("Normalized(20) = %g, want 1 (clamped)", got)
	}
	if got := r.Unnormalized(0.75); got != 5 {
		t.Errorf("Unnormalized(0.75) = %g, want 5", got)
	}

	// Round trip inside the range.
	for _, v := range []float32{-10, -2.5, 0, 7.5, 10} {
		if got := r.Unnormalized(r.Normalized(v)); got != v {
			t.Errorf("Round trip %g -> %g", v, got)
		}
	}

	collapsed := Ranges{Min: 3, Max: 3}
	if got := collapsed.Normalized(3); got != 0 {
		t.Errorf("Collapsed range Normalized = %g, want 0", got)
	}
}

func TestRangesInRange(t *testing.T) {
	r := Ranges{Min: 0, Max: 1}
	if !r.InRange(0) || !r.InRange(1) || !r.InRange(0.5) {
		t.Error("Boundary values reported out of range")
	}
	if r.InRange(-0.01) || r.InRange(1.01) {
		t.Error("Out-of-range values reported in range")
	}
}

func TestDataHelpers(t *testing.T) {
	d := Data{
		Direction: DirectionInput,
		Hints:     IsEnabled | IsAutomatable,
		MidiCC:    MidiCCNone,
	}

	if !d.IsInput() {
		t.Error("Input direction not reported")
	}
	if !d.IsEnabled() || !d.IsAutomatable() {
		t.Error("Hints not reported")
	}
	if d.HasMidiCC() {
		t.Error("Unmapped parameter reports a controller")
	}

	d.MidiCC = 74
	if !d.HasMidiCC() {
		t.Error("Mapped controller not reported")
	}

	out := Data{Direction: DirectionOutput}
	if out.IsInput() {
		t.Error("Output direction reported as input")
	}
}

func TestDirectionString(t *testing.T) {
	if DirectionInput.String() != "input" || DirectionOutput.String() != "output" {
		t.Error("Direction strings wrong")
	}
	if DirectionUnknown.String() != "unknown" {
		t.Error("Unknown direction string wrong")
	}
}

func TestSpecialString(t *testing.T) {
	tests := []struct {
		s    Special
		want string
	}{
		{SpecialNone, "none"},
		{SpecialLatency, "latency"},
		{SpecialSampleRate, "sample-rate"},
		{SpecialFreewheel, "freewheel"},
		{SpecialHostTime, "host-time"},
		{Special(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Special(%d).String() = %s, want %s", tt.s, got, tt.want)
		}
	}
}

func TestInternalIndexesAreDistinct(t *testing.T) {
	seen := map[int32]bool{}
	for _, idx := range []int32{
		IndexNull, IndexActive, IndexDryWet, IndexVolume,
		IndexBalanceLeft, IndexBalanceRight, IndexPanning, IndexCtrlChannel,
	} {
		if idx >= 0 {
			t.Errorf("Internal index %d not negative", idx)
		}
		if seen[idx] {
			t.Errorf("Internal index %d reused", idx)
		}
		seen[idx] = true
	}
}
