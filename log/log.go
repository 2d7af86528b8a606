/*
	Helper functions for emitting structured logs to the api.Monitor.

	These functions encompass the common lifecycle events of a run,
	and using them A) saves typing and B) keeps the common stuff formatted
	in a common way between the fetching and committing halves.
	Anything can of course also write its own log events raw; it is freetext.
*/
package log

import (
	"fmt"
	"strconv"
	"time"

	"github.com/polydawn/rbxarchive/api"
)

func send(mon api.Monitor, ev api.Event) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- ev
}

func Log(mon api.Monitor, lvl api.LogLevel, msg string, detail ...[2]string) {
	send(mon, api.Event{
		Log: &api.Event_Log{
			Time:   time.Now(),
			Level:  lvl,
			Msg:    msg,
			Detail: detail,
		},
	})
}

func Info(mon api.Monitor, msg string, detail ...[2]string) {
	Log(mon, api.LogInfo, msg, detail...)
}

func Progress(mon api.Monitor, phase string, desc string, prog, work int64) {
	send(mon, api.Event{
		Progress: &api.Event_Progress{
			Phase:     phase,
			Desc:      desc,
			TotalProg: prog,
			TotalWork: work,
		},
	})
}

func MetadataPage(mon api.Monitor, place api.PlaceID, page int) {
	Info(mon, fmt.Sprintf("Getting version metadata page %d...", page),
		[2]string{"place", place.String()},
	)
}

func MetadataComplete(mon api.Monitor, place api.PlaceID, idx api.VersionIndex) {
	Info(mon, fmt.Sprintf("Listed %d versions (highest %d)", len(idx.Versions), idx.Highest),
		[2]string{"place", place.String()},
	)
}

// Typically called with an 'api.ErrUpstream'; the body is whatever the server said.
func DownloadRetry(mon api.Monitor, version int64, err error, body string, wait time.Duration) {
	Log(mon, api.LogWarn, fmt.Sprintf("Error downloading version %d, retrying in %s: %s", version, wait, err),
		[2]string{"version", strconv.FormatInt(version, 10)},
		[2]string{"wait", wait.String()},
		[2]string{"error", err.Error()},
		[2]string{"body", body},
	)
}

/*
	The status is the server's answer, eg "400 Bad Request"; blank if unknown.
*/
func VersionAbsent(mon api.Monitor, version int64, status string) {
	msg := fmt.Sprintf("Version %d not found, ending download", version)
	if status != "" {
		msg = fmt.Sprintf("Got %s for version %d, ending download", status, version)
	}
	Info(mon, msg,
		[2]string{"version", strconv.FormatInt(version, 10)},
		[2]string{"status", status},
	)
}

func Committed(mon api.Monitor, version int64, meta api.VersionMetadata, tag string) {
	detail := [][2]string{
		{"version", strconv.FormatInt(version, 10)},
		{"created", meta.Created},
	}
	if tag != "" {
		detail = append(detail, [2]string{"tag", tag})
	}
	Info(mon, fmt.Sprintf("Committed version %d", version), detail...)
}
