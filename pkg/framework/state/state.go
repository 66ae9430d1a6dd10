// Package state captures and restores the full runtime state of a hosted
// plugin instance: identity, mix settings, parameter values with their
// MIDI mappings, program selections, opaque chunks and custom key/value
// data. Snapshots serialize to a YAML document guarded by a checksummed
// header line.
package state

// Parameter is one saved parameter value with its exposed identity and
// MIDI control mapping.
type Parameter struct {
	Index       int32   `yaml:"index"`
	Name        string  `yaml:"name,omitempty"`
	Symbol      string  `yaml:"symbol,omitempty"`
	Value       float32 `yaml:"value"`
	MidiChannel uint8   `yaml:"midiChannel,omitempty"`
	MidiCC      int16   `yaml:"midiCC,omitempty"`
}

// CustomData is an opaque typed key/value pair a plugin asked the host to
// keep. Type and Key must both be non-empty for the entry to be stored.
type CustomData struct {
	Type  string `yaml:"type"`
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Valid reports whether the entry carries the required type and key.
func (c CustomData) Valid() bool {
	return c.Type != "" && c.Key != ""
}

// Snapshot is the complete saved state of one plugin instance.
type Snapshot struct {
	Name   string `yaml:"name"`
	Label  string `yaml:"label,omitempty"`
	Binary string `yaml:"binary,omitempty"`

	// Identifier carries the engine client identity that wrote the
	// snapshot, in canonical UUID form. Informational on load: a restored
	// instance gets a fresh identity.
	Identifier string `yaml:"identifier,omitempty"`
	UniqueID   int64  `yaml:"uniqueId,omitempty"`

	Active       bool    `yaml:"active"`
	DryWet       float32 `yaml:"dryWet"`
	Volume       float32 `yaml:"volume"`
	BalanceLeft  float32 `yaml:"balanceLeft"`
	BalanceRight float32 `yaml:"balanceRight"`
	Panning      float32 `yaml:"panning"`
	CtrlChannel  int8    `yaml:"ctrlChannel"`
	Options      uint32  `yaml:"options,omitempty"`

	CurrentProgramIndex int32  `yaml:"currentProgramIndex"`
	CurrentProgramName  string `yaml:"currentProgramName,omitempty"`
	CurrentMidiBank     int32  `yaml:"currentMidiBank"`
	CurrentMidiProgram  int32  `yaml:"currentMidiProgram"`

	Parameters []Parameter  `yaml:"parameters,omitempty"`
	CustomData []CustomData `yaml:"customData,omitempty"`

	// Chunk holds the plugin's raw state blob when it prefers chunks over
	// parameter lists. YAML carries it base64-encoded.
	Chunk []byte `yaml:"chunk,omitempty"`
}

// NewSnapshot returns a snapshot with neutral mix settings and no
// program selected.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		DryWet:              1.0,
		Volume:              1.0,
		BalanceLeft:         -1.0,
		BalanceRight:        1.0,
		Panning:             0.0,
		CurrentProgramIndex: -1,
		CurrentMidiBank:     -1,
		CurrentMidiProgram:  -1,
	}
}

// FindParameter returns the saved parameter with the given index, or nil.
func (s *Snapshot) FindParameter(index int32) *Parameter {
	for i := range s.Parameters {
		if s.Parameters[i].Index == index {
			return &s.Parameters[i]
		}
	}
	return nil
}

// FindCustomData returns the entry matching type and key, or nil.
func (s *Snapshot) FindCustomData(dataType, key string) *CustomData {
	for i := range s.CustomData {
		if s.CustomData[i].Type == dataType && s.CustomData[i].Key == key {
			return &s.CustomData[i]
		}
	}
	return nil
}

// SetCustomData stores the entry, replacing the value of an existing
// type/key pair. Invalid entries are dropped.
func (s *Snapshot) SetCustomData(entry CustomData) bool {
	if !entry.Valid() {
		return false
	}
	if existing := s.FindCustomData(entry.Type, entry.Key); existing != nil {
		existing.Value = entry.Value
		return true
	}
	s.CustomData = append(s.CustomData, entry)
	return true
}
