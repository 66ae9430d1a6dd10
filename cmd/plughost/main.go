// Command plughost runs one plugin instance standalone. It hosts the
// built-in tone synth, plays an arpeggio through the note-injection
// queue, prints every report the instance sends back and can mirror
// them to an OSC target. It is both a demo and a hardware smoke test:
// if this command makes sound, the whole processing path works.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justyntemme/plughost/pkg/config"
	"github.com/justyntemme/plughost/pkg/engine"
	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/host"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "plughost:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "configuration file (YAML)")
		useOSC     = flag.Bool("osc", false, "send report notifications to the configured OSC target")
		duration   = flag.Duration("duration", 10*time.Second, "how long to play before exiting")
		statePath  = flag.String("state", "", "save instance state to this file on exit")
		silent     = flag.Bool("silent", false, "process without opening an audio device")
		logLevel   = flag.String("log-level", "", "override the configured log level")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *useOSC {
		cfg.OSC.Enabled = true
	}

	debug.SetLevel(debug.LevelFromString(cfg.Log.Level))
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		debug.SetOutput(f)
	}

	eng := engine.NewMemEngine(cfg.Audio.SampleRate, cfg.Audio.BlockSize)
	eng.SetCallback(printReport)

	inst, err := host.New(eng, 1, tonePlugin{}, host.Settings{
		NotePool:   cfg.Queues.NotePool,
		ReportPool: cfg.Queues.ReportPool,
	})
	if err != nil {
		return err
	}
	if err := inst.Reload(); err != nil {
		inst.Close()
		return err
	}
	if cfg.OSC.Enabled {
		inst.Notifier().SetTarget(cfg.OSC.Host, cfg.OSC.Port)
		debug.Info("reports mirrored to osc://%s:%d", cfg.OSC.Host, cfg.OSC.Port)
	}
	if err := inst.Activate(); err != nil {
		inst.Close()
		return err
	}

	stop := make(chan struct{})
	var drv *audioDriver
	if *silent {
		go runSilent(stop, inst, cfg.Audio.SampleRate, cfg.Audio.BlockSize)
	} else {
		drv, err = startAudio(inst, cfg.Audio.SampleRate, cfg.Audio.BlockSize)
		if err != nil {
			debug.Warn("%v; processing silently", err)
			go runSilent(stop, inst, cfg.Audio.SampleRate, cfg.Audio.BlockSize)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	playNotes(inst, *duration, sigCh)

	// Stop the pull side before tearing the instance down.
	close(stop)
	if drv != nil {
		debug.CheckErr(drv.Close(), "close audio output")
	}

	if *statePath != "" {
		if err := saveState(inst, *statePath); err != nil {
			debug.Error("save state: %v", err)
		} else {
			debug.Info("state saved to %s", *statePath)
		}
	}

	if err := inst.Deactivate(); err != nil {
		debug.Error("deactivate: %v", err)
	}

	// A straggling device callback can hold the instance for one more
	// block; closing is retried as the error asks.
	err = inst.Close()
	for errors.Is(err, host.ErrInstanceBusy) {
		time.Sleep(time.Millisecond)
		err = inst.Close()
	}
	return err
}

// playNotes injects a rising arpeggio until the duration elapses or a
// signal arrives, switching to the pad program halfway through. Notes
// travel the same queue external callers use, so each one also shows up
// as a report.
func playNotes(inst *host.Instance, d time.Duration, sigCh <-chan os.Signal) {
	notes := []uint8{60, 64, 67, 72}

	step := time.NewTicker(250 * time.Millisecond)
	defer step.Stop()
	deadline := time.After(d)
	switchAt := time.After(d / 2)

	pos := 0
	sounding := int16(-1)
	for {
		select {
		case sig := <-sigCh:
			debug.Info("%v received, stopping", sig)
			releaseNote(inst, &sounding)
			return
		case <-deadline:
			releaseNote(inst, &sounding)
			// Let the release tail and the last reports play out.
			time.Sleep(300 * time.Millisecond)
			return
		case <-switchAt:
			if err := inst.SetProgram(1, true); err != nil {
				debug.Error("switch program: %v", err)
			}
		case <-step.C:
			releaseNote(inst, &sounding)
			n := notes[pos%len(notes)]
			if inst.InjectNote(0, n, 100, true) {
				sounding = int16(n)
			}
			pos++
		}
	}
}

func releaseNote(inst *host.Instance, sounding *int16) {
	if *sounding >= 0 {
		inst.InjectNote(0, uint8(*sounding), 0, true)
		*sounding = -1
	}
}

func saveState(inst *host.Instance, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := inst.SaveState(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// printReport logs every engine callback. With OSC enabled the notifier
// mirrors the queued reports to the configured target as well.
func printReport(action engine.Action, pluginID uint32, v1, v2 int32, v3 float32, name string) {
	switch action {
	case engine.ActionNoteOn:
		debug.Info("plugin %d report: note on ch=%d note=%d velo=%g", pluginID, v1, v2, v3)
	case engine.ActionNoteOff:
		debug.Info("plugin %d report: note off ch=%d note=%d", pluginID, v1, v2)
	case engine.ActionParameterValueChanged:
		debug.Info("plugin %d report: parameter %d -> %g", pluginID, v1, v3)
	case engine.ActionProgramChanged:
		debug.Info("plugin %d report: program -> %d", pluginID, v1)
	case engine.ActionMidiProgramChanged:
		debug.Info("plugin %d report: midi program -> %d", pluginID, v1)
	case engine.ActionDebug:
		debug.Warn("plugin %d report: %s", pluginID, name)
	default:
		debug.Info("plugin %d report: %s", pluginID, action)
	}
}
