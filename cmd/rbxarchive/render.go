package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/polydawn/rbxarchive/api"
)

/*
	Prints monitor events as they arrive.

	In json mode every event goes to stdout, one per line.
	In dumb mode log lines go to stderr, colored by level, and progress
	events are only shown if asked for.
*/
type eventPrinter struct {
	format   string
	progress bool
	verbose  bool
	stdout   io.Writer
	stderr   io.Writer
}

func newEventPrinter(cli baseCLI, stdout, stderr io.Writer) *eventPrinter {
	return &eventPrinter{
		format:   cli.Format,
		progress: cli.ProgressEnable,
		verbose:  cli.Verbose,
		stdout:   stdout,
		stderr:   stderr,
	}
}

var levelColors = map[api.LogLevel]*color.Color{
	api.LogError: color.New(color.FgRed, color.Bold),
	api.LogWarn:  color.New(color.FgYellow),
	api.LogInfo:  color.New(color.Reset),
	api.LogDebug: color.New(color.Faint),
}

func (p *eventPrinter) Print(ev api.Event) {
	switch p.format {
	case FmtJson:
		if ev.Progress != nil && !p.progress {
			return
		}
		if ev.Log != nil && ev.Log.Level == api.LogDebug && !p.verbose {
			return
		}
		writeJsonEvent(p.stdout, ev)
	case FmtDumb:
		switch {
		case ev.Log != nil:
			p.printLog(*ev.Log)
		case ev.Progress != nil:
			if p.progress {
				fmt.Fprintf(p.stderr, "[%s] %s (%d of %d)\n", ev.Progress.Phase, ev.Progress.Desc, ev.Progress.TotalProg, ev.Progress.TotalWork)
			}
		}
	}
}

func (p *eventPrinter) printLog(ev api.Event_Log) {
	if ev.Level == api.LogDebug && !p.verbose {
		return
	}
	c, ok := levelColors[ev.Level]
	if !ok {
		c = levelColors[api.LogInfo]
	}
	c.Fprintln(p.stderr, ev.Msg)
	if ev.Level < api.LogWarn && !p.verbose {
		return
	}
	for _, kv := range ev.Detail {
		c.Fprintf(p.stderr, "\t%s: %s\n", kv[0], kv[1])
	}
}
