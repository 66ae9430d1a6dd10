package main

import (
	"math"

	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/framework/process"
	"github.com/justyntemme/plughost/pkg/framework/program"
	"github.com/justyntemme/plughost/pkg/midi"
	"github.com/justyntemme/plughost/pkg/plugin"
)

// Parameter indexes of the built-in tone synth.
const (
	toneParamVolume uint32 = iota
	toneParamAttack
	toneParamRelease
	toneParamCount
)

const toneVoiceCount = 8

// tonePlugin is the synth the command hosts when no library is given. It
// exists to drive the host end to end: it consumes routed note events,
// renders stereo audio and answers the parameter and program calls.
type tonePlugin struct{}

func (tonePlugin) Descriptor() *plugin.Descriptor {
	return &plugin.Descriptor{
		Name:      "Tone",
		Label:     "tone",
		Maker:     "plughost",
		UniqueID:  0x746f6e65,
		Hints:     plugin.HintIsSynth | plugin.HintRTSafe | plugin.HintCanVolume | plugin.HintCanBalance | plugin.HintCanPanning,
		AudioOuts: 2,
		MidiIn:    true,
		Parameters: []plugin.ParameterInfo{
			{
				Data: param.Data{
					Direction: param.DirectionInput,
					Name:      "Volume",
					Symbol:    "volume",
					Hints:     param.IsEnabled | param.IsAutomatable,
					MidiCC:    int16(midi.CCExpression),
				},
				Ranges: param.Ranges{Def: 0.8, Min: 0, Max: 1},
			},
			{
				Data: param.Data{
					Direction: param.DirectionInput,
					Name:      "Attack",
					Symbol:    "attack",
					Unit:      "s",
					Hints:     param.IsEnabled | param.IsAutomatable,
				},
				Ranges: param.Ranges{Def: 0.005, Min: 0.001, Max: 2},
			},
			{
				Data: param.Data{
					Direction: param.DirectionInput,
					Name:      "Release",
					Symbol:    "release",
					Unit:      "s",
					Hints:     param.IsEnabled | param.IsAutomatable,
				},
				Ranges: param.Ranges{Def: 0.2, Min: 0.001, Max: 5},
			},
		},
		Programs: []string{"Pluck", "Pad"},
		MidiPrograms: []program.MIDIProgram{
			{Bank: 0, Program: 0, Name: "Pluck"},
			{Bank: 0, Program: 1, Name: "Pad"},
		},
	}
}

func (tonePlugin) CreateProcessor() plugin.Processor {
	return newToneProcessor()
}

// toneVoice is one sounding note: a sine with a linear attack toward the
// velocity level and a linear release back to zero.
type toneVoice struct {
	note      uint8
	phase     float64
	phaseInc  float64
	amplitude float32
	env       float32
	released  bool
	active    bool
	age       uint64
}

type toneProcessor struct {
	plugin.BaseProcessor

	sampleRate float64
	voices     [toneVoiceCount]toneVoice
	counter    uint64

	values [toneParamCount]float32
}

func newToneProcessor() *toneProcessor {
	p := &toneProcessor{}
	p.values[toneParamVolume] = 0.8
	p.values[toneParamAttack] = 0.005
	p.values[toneParamRelease] = 0.2
	return p
}

func (p *toneProcessor) Initialize(sampleRate float64, maxFrames uint32) error {
	p.sampleRate = sampleRate
	return nil
}

func (p *toneProcessor) SetActive(active bool) error {
	if !active {
		for i := range p.voices {
			p.voices[i] = toneVoice{}
		}
	}
	return nil
}

func (p *toneProcessor) ParameterValue(index uint32) float32 {
	if index >= toneParamCount {
		return 0
	}
	return p.values[index]
}

func (p *toneProcessor) SetParameterValue(index uint32, value float32) {
	if index < toneParamCount {
		p.values[index] = value
	}
}

func (p *toneProcessor) SetProgram(index int32) {
	switch index {
	case 0: // Pluck
		p.values[toneParamAttack] = 0.002
		p.values[toneParamRelease] = 0.15
	case 1: // Pad
		p.values[toneParamAttack] = 0.25
		p.values[toneParamRelease] = 1.2
	}
}

func (p *toneProcessor) SetMidiProgram(bank, prog uint32) {
	if bank == 0 {
		p.SetProgram(int32(prog))
	}
}

func (p *toneProcessor) Process(b *process.Block) {
	for _, e := range b.Events.Events() {
		switch e.Type {
		case midi.EventTypeNoteOn:
			if e.Data2 == 0 {
				p.release(e.Data1)
			} else {
				p.trigger(e.Data1, e.Data2)
			}
		case midi.EventTypeNoteOff:
			p.release(e.Data1)
		case midi.EventTypeControlChange:
			if e.Data1 == midi.CCAllSoundOff || e.Data1 == midi.CCAllNotesOff {
				p.silence()
			}
		}
	}

	b.Clear()
	if len(b.Out) < 2 {
		return
	}

	frames := int(b.Frames)
	attackStep := float32(1.0 / (float64(p.values[toneParamAttack]) * p.sampleRate))
	releaseStep := float32(1.0 / (float64(p.values[toneParamRelease]) * p.sampleRate))
	volume := p.values[toneParamVolume]

	buf := b.WorkBuffer()
	outL, outR := b.Out[0], b.Out[1]
	for vi := range p.voices {
		v := &p.voices[vi]
		if !v.active {
			continue
		}
		for i := 0; i < frames; i++ {
			if v.released {
				v.env -= releaseStep
				if v.env <= 0 {
					v.env = 0
					v.active = false
					for ; i < frames; i++ {
						buf[i] = 0
					}
					break
				}
			} else if v.env < 1 {
				v.env += attackStep
				if v.env > 1 {
					v.env = 1
				}
			}
			buf[i] = float32(math.Sin(2*math.Pi*v.phase)) * v.amplitude * v.env
			v.phase += v.phaseInc
			if v.phase >= 1 {
				v.phase -= 1
			}
		}
		for i := 0; i < frames; i++ {
			s := buf[i] * volume
			outL[i] += s
			outR[i] += s
		}
	}
}

func (p *toneProcessor) trigger(note, velocity uint8) {
	v := p.allocate(note)
	v.note = note
	v.phase = 0
	v.phaseInc = midi.NoteToFrequency(note, 0) / p.sampleRate
	v.amplitude = float32(velocity) / 127.0
	v.env = 0
	v.released = false
	v.active = true
	p.counter++
	v.age = p.counter
}

// allocate returns a free voice, the voice already playing the note, or
// the oldest voice when everything is sounding.
func (p *toneProcessor) allocate(note uint8) *toneVoice {
	var oldest *toneVoice
	for i := range p.voices {
		v := &p.voices[i]
		if !v.active {
			return v
		}
		if v.note == note {
			return v
		}
		if oldest == nil || v.age < oldest.age {
			oldest = v
		}
	}
	return oldest
}

func (p *toneProcessor) release(note uint8) {
	for i := range p.voices {
		v := &p.voices[i]
		if v.active && v.note == note {
			v.released = true
		}
	}
}

func (p *toneProcessor) silence() {
	for i := range p.voices {
		p.voices[i].released = true
	}
}
