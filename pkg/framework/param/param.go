// Package param describes plugin parameters: direction, hints, value
// ranges and the optional special roles some parameters play for the host,
// such as reporting latency. Descriptors live in host-side tables; the
// values themselves belong to the plugin.
package param

// Direction tells whether a parameter is set by the host or reported by
// the plugin.
type Direction uint8

const (
	DirectionUnknown Direction = iota
	DirectionInput
	DirectionOutput
)

func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Hints describe parameter behavior.
type Hints uint32

const (
	// IsBoolean marks a parameter that is either minimum or maximum.
	IsBoolean Hints = 1 << iota
	// IsInteger marks a parameter with whole-number values.
	IsInteger
	// IsLogarithmic marks a parameter UIs should scale logarithmically.
	IsLogarithmic
	// IsEnabled marks a parameter that is currently operational.
	IsEnabled
	// IsAutomatable marks a parameter that may move during processing.
	IsAutomatable
	// IsReadOnly marks a parameter the host must not set.
	IsReadOnly
	// UsesSampleRate marks ranges expressed as a fraction of the rate.
	UsesSampleRate
	// UsesScalePoints marks a parameter with named values.
	UsesScalePoints
	// UsesCustomText marks a parameter whose plugin formats its own text.
	UsesCustomText
)

// Special marks the role a parameter plays for the host beyond its value.
type Special uint8

const (
	SpecialNone Special = iota
	// SpecialLatency reports the plugin's latency in frames.
	SpecialLatency
	// SpecialSampleRate mirrors the engine sample rate into the plugin.
	SpecialSampleRate
	// SpecialFreewheel tells the plugin offline rendering is active.
	SpecialFreewheel
	// SpecialHostTime feeds transport position into the plugin.
	SpecialHostTime
)

func (s Special) String() string {
	switch s {
	case SpecialNone:
		return "none"
	case SpecialLatency:
		return "latency"
	case SpecialSampleRate:
		return "sample-rate"
	case SpecialFreewheel:
		return "freewheel"
	case SpecialHostTime:
		return "host-time"
	default:
		return "unknown"
	}
}

// Internal parameter indexes. Reports and callbacks use these negative
// values for the host's own controls, keeping them out of the plugin's
// parameter space.
const (
	IndexNull         int32 = -1
	IndexActive       int32 = -2
	IndexDryWet       int32 = -3
	IndexVolume       int32 = -4
	IndexBalanceLeft  int32 = -5
	IndexBalanceRight int32 = -6
	IndexPanning      int32 = -7
	IndexCtrlChannel  int32 = -8
)

// MidiCCNone marks a parameter with no controller mapping.
const MidiCCNone int16 = -1

// Data is one parameter's descriptor. Index is the host-side position,
// RIndex the position inside the plugin; they differ when the host hides
// or reorders plugin parameters.
type Data struct {
	Direction   Direction
	Index       int32
	RIndex      int32
	Name        string
	Symbol      string
	Unit        string
	Hints       Hints
	MidiChannel uint8
	MidiCC      int16
}

// IsInput reports whether the host may set this parameter.
func (d *Data) IsInput() bool {
	return d.Direction == DirectionInput
}

// IsEnabled reports whether the parameter is currently operational.
func (d *Data) IsEnabled() bool {
	return d.Hints&IsEnabled != 0
}

// IsAutomatable reports whether the parameter may move during processing.
func (d *Data) IsAutomatable() bool {
	return d.Hints&IsAutomatable != 0
}

// HasMidiCC reports whether a controller is mapped to this parameter.
func (d *Data) HasMidiCC() bool {
	return d.MidiCC != MidiCCNone
}

// Ranges bounds one parameter's value. Step sizes are UI increments, not
// value quantization.
type Ranges struct {
	Def       float32
	Min       float32
	Max       float32
	Step      float32
	StepSmall float32
	StepLarge float32
}

// DefaultRanges returns the 0..1 range fresh descriptors start with.
func DefaultRanges() Ranges {
	return Ranges{Def: 0, Min: 0, Max: 1, Step: 0.01, StepSmall: 0.0001, StepLarge: 0.1}
}

// Fix repairs an inconsistent range in place: an inverted range is
// reordered, a collapsed one is widened, and the default is clamped.
func (r *Ranges) Fix() {
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	if r.Max <= r.Min {
		r.Max = r.Min + 1.0
	}
	r.Def = r.FixValue(r.Def)
	if r.Step <= 0 {
		r.Step = (r.Max - r.Min) / 100.0
	}
	if r.StepSmall <= 0 {
		r.StepSmall = r.Step / 10.0
	}
	if r.StepLarge <= 0 {
		r.StepLarge = r.Step * 10.0
	}
}

// FixValue clamps v into the range.
func (r *Ranges) FixValue(v float32) float32 {
	if v <= r.Min {
		return r.Min
	}
	if v >= r.Max {
		return r.Max
	}
	return v
}

// InRange reports whether v already lies inside the range.
func (r *Ranges) InRange(v float32) bool {
	return v >= r.Min && v <= r.Max
}

// Normalized maps v to 0..1 within the range, clamped.
func (r *Ranges) Normalized(v float32) float32 {
	if r.Max <= r.Min {
		return 0
	}
	n := (v - r.Min) / (r.Max - r.Min)
	if n <= 0 {
		return 0
	}
	if n >= 1 {
		return 1
	}
	return n
}

// Unnormalized maps a 0..1 value back into the range.
func (r *Ranges) Unnormalized(n float32) float32 {
	return r.Min + n*(r.Max-r.Min)
}
