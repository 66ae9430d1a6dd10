package host

import (
	"github.com/justyntemme/plughost/pkg/engine"
	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/framework/event"
	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/midi"
	"github.com/justyntemme/plughost/pkg/plugin"
)

func silence(bufs [][]float32, frames uint32) {
	for ch := range bufs {
		buf := bufs[ch]
		if uint32(len(buf)) > frames {
			buf = buf[:frames]
		}
		for k := range buf {
			buf[k] = 0
		}
	}
}

// ProcessSingle runs one block through the plugin. audioIn and audioOut
// are indexed by port, cvIn by CV port; all must carry at least frames
// samples. timeOffset is the block's position inside the engine cycle when
// the caller slices a cycle.
//
// The call runs on the processing path. When the engine is offline it may
// wait for the control side; in real time it outputs silence instead of
// waiting. It reports whether the plugin produced the block.
func (i *Instance) ProcessSingle(audioIn, audioOut, cvIn [][]float32, frames, timeOffset uint32) bool {
	if !debug.Checkf(frames > 0, "frames > 0") {
		return false
	}
	if !debug.Checkf(frames <= i.eng.BufferSize(), "frames %d within engine buffer", frames) {
		silence(audioOut, frames)
		return false
	}

	if !i.enabled.Load() {
		// The engine side of this callback is processing-safe; report the
		// surprise once per disable episode, not per block.
		if !i.disabledWarned.Swap(true) {
			i.eng.Callback(engine.ActionDebug, i.id, 0, 0, 0, "processing a disabled plugin")
		}
		silence(audioOut, frames)
		return false
	}

	// Exclusive control work holds this lock for its whole critical
	// section. Offline rendering can afford to wait for it; real time
	// cannot and ships silence instead.
	if i.eng.IsOffline() {
		i.masterMu.Lock()
	} else if !i.masterMu.TryLock() {
		silence(audioOut, frames)
		return false
	}
	defer i.masterMu.Unlock()

	if !i.active.Load() {
		silence(audioOut, frames)
		return false
	}
	if uint32(len(audioIn)) < i.audioIn.Count() || uint32(len(audioOut)) < i.audioOut.Count() {
		debug.Checkf(false, "buffer counts match ports (%d/%d in, %d/%d out)",
			len(audioIn), i.audioIn.Count(), len(audioOut), i.audioOut.Count())
		silence(audioOut, frames)
		return false
	}

	i.audioIn.InitBuffers(frames)
	i.audioOut.InitBuffers(frames)
	i.cvIn.InitBuffers(frames)

	i.block.Events.Clear()
	i.block.OutEvents.Clear()

	if i.needsReset.CompareAndSwap(true, false) {
		i.resetRt()
	}

	// Injected notes land at the start of the block. A contended queue
	// keeps its notes for the next block rather than stalling this one.
	i.extNotes.TryDrain(func(n event.ExternalNote) {
		ch := uint8(n.Channel)
		if n.IsNoteOff() {
			i.block.Events.Add(midi.NoteOff(ch, n.Note, 0))
		} else {
			i.block.Events.Add(midi.NoteOn(ch, n.Note, n.Velo, 0))
		}
	})

	if i.events.In != nil {
		ctrl := int8(i.ctrlChannel.Load())
		nextBank := uint32(0)
		if cur := i.midiPrograms.Current(); cur >= 0 {
			if p := i.midiPrograms.At(uint32(cur)); p != nil {
				nextBank = p.Bank
			}
		}
		for _, e := range i.events.In.Events().Events() {
			i.routeEventRt(e, ctrl, &nextBank)
		}
		i.events.In.InitBuffer()
	}
	if i.events.Out != nil {
		i.events.Out.InitBuffer()
	}

	i.bindViewsRt(audioIn, audioOut, cvIn, frames)
	i.block.Frames = frames
	i.block.TimeOffset = timeOffset

	// Concurrent ProcessSingle calls take turns here under the same
	// offline/real-time rule as the master lock.
	if i.eng.IsOffline() {
		i.singleMu.Lock()
	} else if !i.singleMu.TryLock() {
		silence(audioOut, frames)
		return false
	}

	i.proc.Process(i.block)

	if i.forcedStereoOut && len(audioOut) >= 2 {
		copy(audioOut[1][:frames], audioOut[0][:frames])
	}
	i.postProcessRt(audioIn, audioOut, frames)
	i.saveLatencyRt(audioIn, frames)

	if i.events.Out != nil {
		outQ := i.events.Out.Events()
		for _, e := range i.block.OutEvents.Events() {
			outQ.Add(e)
		}
	}

	i.singleMu.Unlock()
	i.reports.TrySplice()
	return true
}

// resetRt flushes latency history and releases anything still sounding.
// Runs with the master lock held.
func (i *Instance) resetRt() {
	for c := range i.latencyBuffers {
		buf := i.latencyBuffers[c]
		for k := range buf {
			buf[k] = 0
		}
	}
	if i.events.In == nil {
		return
	}
	if i.options&plugin.OptionSendAllSoundOff != 0 {
		for ch := uint8(0); ch < 16; ch++ {
			i.block.Events.Add(midi.ControlChange(ch, midi.CCAllSoundOff, 0, 0))
			i.block.Events.Add(midi.ControlChange(ch, midi.CCAllNotesOff, 0, 0))
		}
	} else if ctrl := int8(i.ctrlChannel.Load()); ctrl >= 0 {
		for note := uint8(0); note < 128; note++ {
			i.block.Events.Add(midi.NoteOff(uint8(ctrl), note, 0))
		}
	}
}

// routeEventRt files one incoming event: to the instance's own controls,
// to a mapped parameter, or into the block for the plugin, as the options
// allow.
func (i *Instance) routeEventRt(e midi.Event, ctrl int8, nextBank *uint32) {
	onCtrl := ctrl >= 0 && e.Channel == uint8(ctrl)

	switch e.Type {
	case midi.EventTypeNoteOn:
		if e.Data2 == 0 {
			i.block.Events.Add(midi.NoteOff(e.Channel, e.Data1, e.Offset))
			i.postponeRt(event.PostEvent{Type: event.PostNoteOff, Value1: int32(e.Channel), Value2: int32(e.Data1)})
			return
		}
		i.block.Events.Add(e)
		i.postponeRt(event.PostEvent{Type: event.PostNoteOn, Value1: int32(e.Channel), Value2: int32(e.Data1), Value3: float32(e.Data2)})

	case midi.EventTypeNoteOff:
		i.block.Events.Add(e)
		i.postponeRt(event.PostEvent{Type: event.PostNoteOff, Value1: int32(e.Channel), Value2: int32(e.Data1)})

	case midi.EventTypeControlChange:
		i.routeControlChangeRt(e, onCtrl, nextBank)

	case midi.EventTypeProgramChange:
		if i.options&plugin.OptionMapProgramChanges != 0 {
			if onCtrl {
				if idx := i.midiPrograms.Find(*nextBank, uint32(e.Data1)); idx >= 0 {
					i.setMidiProgramRt(idx)
				}
			}
			return
		}
		i.block.Events.Add(e)

	case midi.EventTypeChannelPressure:
		if i.options&plugin.OptionSendChannelPressure != 0 {
			i.block.Events.Add(e)
		}

	case midi.EventTypePolyPressure:
		if i.options&plugin.OptionSendNoteAftertouch != 0 {
			i.block.Events.Add(e)
		}

	case midi.EventTypePitchBend:
		if i.options&plugin.OptionSendPitchbend != 0 {
			i.block.Events.Add(e)
		}
	}
}

func (i *Instance) routeControlChangeRt(e midi.Event, onCtrl bool, nextBank *uint32) {
	cc := e.Data1
	normalized := float32(e.Data2) / 127.0

	if cc == midi.CCAllSoundOff || cc == midi.CCAllNotesOff {
		if i.options&plugin.OptionSendAllSoundOff != 0 {
			i.block.Events.Add(e)
		}
		return
	}

	handled := false
	if onCtrl {
		switch {
		case cc == 0 && i.options&plugin.OptionMapProgramChanges != 0:
			// Bank select applies to the next program change.
			*nextBank = uint32(e.Data2)
			handled = true
		case cc == midi.CCVolume && i.hints&plugin.HintCanVolume != 0:
			// 0-127 maps to 0-1.27, leaving headroom above unity.
			i.setVolumeRt(float32(e.Data2) / 100.0)
			handled = true
		case cc == midi.CCBalance && i.hints&plugin.HintCanBalance != 0:
			pos := normalized/0.5 - 1.0
			left, right := float32(-1), float32(1)
			if pos < 0 {
				right = pos*2 + 1
			} else if pos > 0 {
				left = pos*2 - 1
			}
			i.setBalanceLeftRt(left)
			i.setBalanceRightRt(right)
			handled = true
		case cc == midi.CCPan && i.hints&plugin.HintCanPanning != 0:
			i.setPanningRt(normalized/0.5 - 1.0)
			handled = true
		}
	}

	if !handled {
		for j := uint32(0); j < i.params.Count(); j++ {
			d := i.params.DataAt(j)
			if d.MidiCC != int16(cc) || d.MidiChannel != e.Channel {
				continue
			}
			if !d.IsInput() || !d.IsAutomatable() {
				continue
			}
			i.setParameterValueRt(j, i.params.RangesAt(j).Unnormalized(normalized))
			handled = true
		}
	}

	if !handled && i.options&plugin.OptionSendControlChanges != 0 {
		i.block.Events.Add(e)
	}
}

// bindViewsRt points the block's channel views at the caller's buffers.
// Port rindexes map ports onto plugin channels; under forced stereo two
// ports share one plugin channel and the first port wins.
func (i *Instance) bindViewsRt(audioIn, audioOut, cvIn [][]float32, frames uint32) {
	for j := int(i.audioIn.Count()) - 1; j >= 0; j-- {
		rindex := i.audioIn.At(uint32(j)).RIndex
		if int(rindex) < len(i.inViews) && j < len(audioIn) {
			i.inViews[rindex] = audioIn[j][:frames]
		}
	}
	for j := int(i.audioOut.Count()) - 1; j >= 0; j-- {
		rindex := i.audioOut.At(uint32(j)).RIndex
		if int(rindex) < len(i.outViews) && j < len(audioOut) {
			i.outViews[rindex] = audioOut[j][:frames]
		}
	}
	for j := 0; j < len(i.cvViews); j++ {
		if j < len(cvIn) {
			i.cvViews[j] = cvIn[j][:frames]
		} else {
			i.cvViews[j] = nil
		}
	}
	i.block.In = i.inViews
	i.block.Out = i.outViews
	i.block.CV = i.cvViews
}

// postProcessRt applies dry/wet, balance and volume in place over the
// output buffers. Panning is reported but never applied here; hosts that
// place plugins in a space do that themselves.
func (i *Instance) postProcessRt(audioIn, audioOut [][]float32, frames uint32) {
	dryWet := i.dryWet.Load()
	volume := i.volume.Load()
	balL := i.balanceL.Load()
	balR := i.balanceR.Load()

	doDryWet := i.hints&plugin.HintCanDryWet != 0 && dryWet != 1.0
	doBalance := i.hints&plugin.HintCanBalance != 0 && !(balL == -1.0 && balR == 1.0)
	doVolume := i.hints&plugin.HintCanVolume != 0 && volume != 1.0
	if !doDryWet && !doBalance && !doVolume {
		return
	}

	isMono := len(audioIn) == 1
	oldBufLeft := i.block.WorkBuffer()
	balRangeL := (balL + 1.0) / 2.0
	balRangeR := (balR + 1.0) / 2.0

	for ch := 0; ch < len(audioOut); ch++ {
		out := audioOut[ch][:frames]

		if doDryWet {
			c := ch
			if isMono {
				c = 0
			}
			if c < len(audioIn) {
				in := audioIn[c][:frames]
				for k := range out {
					out[k] = out[k]*dryWet + in[k]*(1.0-dryWet)
				}
			}
		}

		if doBalance {
			if ch%2 == 0 {
				if ch+1 < len(audioOut) {
					// Left of a pair: mix using a copy, the right channel
					// still needs the original.
					copy(oldBufLeft, out)
					right := audioOut[ch+1][:frames]
					for k := range out {
						out[k] = oldBufLeft[k]*(1.0-balRangeL) + right[k]*(1.0-balRangeR)
					}
				}
			} else {
				for k := range out {
					out[k] = out[k]*balRangeR + oldBufLeft[k]*balRangeL
				}
			}
		}

		if doVolume {
			for k := range out {
				out[k] *= volume
			}
		}
	}
}

// saveLatencyRt keeps the last latency frames of each input for plugins
// that re-sync after a discontinuity.
func (i *Instance) saveLatencyRt(audioIn [][]float32, frames uint32) {
	lat := i.latency.Load()
	if lat == 0 || len(i.latencyBuffers) == 0 {
		return
	}
	for c := range i.latencyBuffers {
		if c >= len(audioIn) {
			break
		}
		buf := i.latencyBuffers[c]
		in := audioIn[c][:frames]
		if frames >= lat {
			copy(buf, in[frames-lat:])
		} else {
			copy(buf, buf[frames:])
			copy(buf[lat-frames:], in)
		}
	}
}

func (i *Instance) setVolumeRt(value float32) {
	fixed := clamp(value, 0, 1.27)
	i.volume.Store(fixed)
	i.postponeRt(event.PostEvent{Type: event.PostParameterChange, Value1: param.IndexVolume, Value3: fixed})
}

func (i *Instance) setBalanceLeftRt(value float32) {
	fixed := clamp(value, -1, 1)
	i.balanceL.Store(fixed)
	i.postponeRt(event.PostEvent{Type: event.PostParameterChange, Value1: param.IndexBalanceLeft, Value3: fixed})
}

func (i *Instance) setBalanceRightRt(value float32) {
	fixed := clamp(value, -1, 1)
	i.balanceR.Store(fixed)
	i.postponeRt(event.PostEvent{Type: event.PostParameterChange, Value1: param.IndexBalanceRight, Value3: fixed})
}

func (i *Instance) setPanningRt(value float32) {
	fixed := clamp(value, -1, 1)
	i.panning.Store(fixed)
	i.postponeRt(event.PostEvent{Type: event.PostParameterChange, Value1: param.IndexPanning, Value3: fixed})
}

func (i *Instance) setParameterValueRt(index uint32, value float32) {
	fixed := i.params.FixedValue(index, value)
	i.proc.SetParameterValue(index, fixed)
	i.postponeRt(event.PostEvent{Type: event.PostParameterChange, Value1: int32(index), Value3: fixed})
}

func (i *Instance) setMidiProgramRt(index int32) {
	i.midiPrograms.SetCurrent(index)
	if p := i.midiPrograms.At(uint32(index)); p != nil {
		i.proc.SetMidiProgram(p.Bank, p.Program)
	}
	i.postponeRt(event.PostEvent{Type: event.PostMidiProgramChange, Value1: index})
}
