package api

import (
	"time"
)

/*
	Monitoring configuration structs, and message types used.
*/
type (
	/*
		Slot for the channel the caller wishes progress reports to be sent to.
	*/
	Monitor struct {
		// Channel to which events will be sent as the run proceeds.
		// The channel will be closed when the run is done or cancelled.
		// A nil channel will disable all intermediate progress reporting.
		Chan chan<- Event
	}

	/*
		A "union" type of all the kinds of event that may be generated in the
		course of a run.

		The "Result" message is never sent to Monitor.Chan --
		its values are converted into the function returns --
		but *is* seen in the serial form on the wire.
	*/
	Event struct {
		Log      *Event_Log      `refmt:"log,omitempty"`
		Progress *Event_Progress `refmt:"prog,omitempty"`
		Result   *Event_Result   `refmt:"result,omitempty"`
	}

	/*
		Freetext log lines, with a level and some optional structured details.
	*/
	Event_Log struct {
		Time   time.Time   `refmt:"t"`
		Level  LogLevel    `refmt:"lvl"`
		Msg    string      `refmt:"msg"`
		Detail [][2]string `refmt:"detail,omitempty"`
	}

	/*
		Notifications about progress updates.

		For the download loop, 'totalProg' is the version we're on and
		'totalWork' is the highest version the listing knows of.
		(The requested range can exceed that; the loop will just stop
		at the first absent version.)
	*/
	Event_Progress struct {
		Phase     string `refmt:"phase"`
		Desc      string `refmt:"desc,omitempty"`
		TotalProg int64  `refmt:"prog"`
		TotalWork int64  `refmt:"work"`
	}

	Event_Result struct {
		Run      *RunResult        `refmt:"run,omitempty"`
		Versions []ArchivedVersion `refmt:"versions,omitempty"`
		Error    *ErrorInfo        `refmt:"error,omitempty"`
	}

	/*
		The serial form of a categorized error.
	*/
	ErrorInfo struct {
		Category ErrorCategory     `refmt:"category"`
		Msg      string            `refmt:"msg"`
		Details  map[string]string `refmt:"details,omitempty"`
	}
)

type LogLevel int8

const (
	LogError LogLevel = 4
	LogWarn  LogLevel = 3
	LogInfo  LogLevel = 2
	LogDebug LogLevel = 1
)

func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "error"
	case LogWarn:
		return "warn"
	case LogInfo:
		return "info"
	case LogDebug:
		return "debug"
	default:
		return "???"
	}
}

/*
	One "Version <n>" commit in an archive, as read back by the inspector.
*/
type ArchivedVersion struct {
	Version       int64     `refmt:"version"`
	Commit        string    `refmt:"commit"`
	AuthorTime    time.Time `refmt:"authored"`
	CommitterTime time.Time `refmt:"committed"`
	Tag           string    `refmt:"tag,omitempty"`
	TagMessage    string    `refmt:"tagMsg,omitempty"`
}
