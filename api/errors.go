package api

/*
	Error categories and exit codes.

	Every error returned across a package boundary in rbxarchive has one of
	these categories (see `github.com/warpfork/go-errcat`), and each category
	that can end a run has exactly one exit code.
*/

type ErrorCategory string
type ExitCode int

const (
	ExitSuccess                                       = ExitCode(0)
	ExitUsage, ErrUsage                               = ExitCode(1), ErrorCategory("rbx-usage-error")           // Some piece of user input was invalid and unrunnable, or the output path is unusable.
	ExitPanic                                         = ExitCode(2)                                             // Placeholder.  We don't use this.  '2' happens when golang exits due to panic.
	ExitUpstream, ErrUpstream                         = ExitCode(3), ErrorCategory("rbx-upstream-error")        // Roblox APIs answered with something we can't continue from.
	ErrVersionAbsent                                  = ErrorCategory("rbx-version-absent")                     // Version 404 -- not a failure; it ends the download loop.
	ExitMetadataInconsistent, ErrMetadataInconsistent = ExitCode(5), ErrorCategory("rbx-metadata-inconsistent") // A downloaded version has no (or incomplete) listing metadata.
	ExitProcessFailed, ErrProcessFailed               = ExitCode(6), ErrorCategory("rbx-process-failed")        // git or the expansion tool exited non-zero, or couldn't be started.
	ExitLocalIO, ErrLocalIO                           = ExitCode(7), ErrorCategory("rbx-io-error")              // Writing to the local filesystem failed.
	ExitCancelled, ErrCancelled                       = ExitCode(8), ErrorCategory("rbx-cancelled")             // The operation was interrupted.
	ExitTODO                                          = ExitCode(254)                                           // This exit code should be replaced with something more specific
)

/*
	Returns the exit code a process should use when exiting with an error
	of the given category.  Nil means success.
*/
func ExitCodeForCategory(category interface{}) ExitCode {
	switch category {
	case nil:
		return ExitSuccess
	case ErrUsage:
		return ExitUsage
	case ErrUpstream:
		return ExitUpstream
	case ErrVersionAbsent:
		return ExitSuccess
	case ErrMetadataInconsistent:
		return ExitMetadataInconsistent
	case ErrProcessFailed:
		return ExitProcessFailed
	case ErrLocalIO:
		return ExitLocalIO
	case ErrCancelled:
		return ExitCancelled
	default:
		return ExitTODO
	}
}

/*
	The inverse of ExitCodeForCategory, for anyone wrapping us as a subprocess.
*/
func CategoryForExitCode(code int) ErrorCategory {
	switch ExitCode(code) {
	case ExitSuccess:
		return ""
	case ExitUsage:
		return ErrUsage
	case ExitUpstream:
		return ErrUpstream
	case ExitMetadataInconsistent:
		return ErrMetadataInconsistent
	case ExitProcessFailed:
		return ErrProcessFailed
	case ExitLocalIO:
		return ErrLocalIO
	case ExitCancelled:
		return ErrCancelled
	default:
		return ErrorCategory("rbx-unknown")
	}
}
