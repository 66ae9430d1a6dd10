package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/justyntemme/plughost/pkg/host"
)

// blockReader adapts the instance's processing call to the io.Reader the
// audio library pulls from. Each refill renders one whole block and
// interleaves it as little-endian stereo float32, the format the player
// is opened with.
type blockReader struct {
	inst *host.Instance
	out  [][]float32
	buf  []byte
	off  int
}

func newBlockReader(inst *host.Instance, blockSize uint32) *blockReader {
	out := make([][]float32, 2)
	for c := range out {
		out[c] = make([]float32, blockSize)
	}
	r := &blockReader{
		inst: inst,
		out:  out,
		buf:  make([]byte, blockSize*8),
	}
	r.off = len(r.buf)
	return r
}

func (r *blockReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if r.off == len(r.buf) {
			r.render()
			r.off = 0
		}
		c := copy(p[n:], r.buf[r.off:])
		r.off += c
		n += c
	}
	return n, nil
}

// render processes one block. A skipped block still leaves the buffers
// silent, so the stream never carries stale samples.
func (r *blockReader) render() {
	frames := uint32(len(r.out[0]))
	r.inst.ProcessSingle(nil, r.out, nil, frames, 0)
	k := 0
	for i := range r.out[0] {
		binary.LittleEndian.PutUint32(r.buf[k:], math.Float32bits(r.out[0][i]))
		binary.LittleEndian.PutUint32(r.buf[k+4:], math.Float32bits(r.out[1][i]))
		k += 8
	}
}

// audioDriver owns the output device. The device pulls blocks from the
// instance on its own goroutine until Close.
type audioDriver struct {
	ctx    *oto.Context
	player *oto.Player
}

func startAudio(inst *host.Instance, sampleRate float64, blockSize uint32) (*audioDriver, error) {
	op := &oto.NewContextOptions{
		SampleRate:   int(sampleRate),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("audio: open output: %w", err)
	}
	<-ready

	d := &audioDriver{ctx: ctx}
	d.player = ctx.NewPlayer(newBlockReader(inst, blockSize))
	d.player.Play()
	return d, nil
}

func (d *audioDriver) Close() error {
	return d.player.Close()
}

// runSilent drives processing at block cadence without an audio device,
// for machines with no output and for listening to reports only. Buffer
// counts follow the instance's ports so any plugin can run under it.
func runSilent(stop <-chan struct{}, inst *host.Instance, sampleRate float64, blockSize uint32) {
	makeBufs := func(count uint32) [][]float32 {
		if count == 0 {
			return nil
		}
		bufs := make([][]float32, count)
		for c := range bufs {
			bufs[c] = make([]float32, blockSize)
		}
		return bufs
	}
	in := makeBufs(inst.AudioInCount())
	out := makeBufs(inst.AudioOutCount())
	cv := makeBufs(inst.CVInCount())

	interval := time.Duration(float64(blockSize) / sampleRate * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			inst.ProcessSingle(in, out, cv, blockSize, 0)
		}
	}
}
