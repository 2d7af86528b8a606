package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	. "github.com/warpfork/go-errcat"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/polydawn/rbxarchive/api"
	"github.com/polydawn/rbxarchive/archive"
	"github.com/polydawn/rbxarchive/config"
	"github.com/polydawn/rbxarchive/expand"
	"github.com/polydawn/rbxarchive/gitcli"
	"github.com/polydawn/rbxarchive/history"
	"github.com/polydawn/rbxarchive/prompt"
	"github.com/polydawn/rbxarchive/warehouse/impl/roblox"
)

/*
	Output serialization formats
*/
const (
	FmtJson = "json"
	FmtDumb = "dumb"
)

type baseCLI struct {
	Format         string        // Output api format, eg. json
	ProgressEnable bool          // Emit progress notification yes/no
	Verbose        bool          // Show debug log lines
	Timeout        time.Duration // Timeout for the whole run eg. "60s"
	ArchiveCLI     struct {
		Presets          prompt.Presets
		CookieFile       string        // Cookie cache path
		NoCookieCache    bool          // Never read or write the cookie cache
		AuthorName       string        // Commit identity name
		AuthorEmail      string        // Commit identity email
		DevelopURL       string        // Base URL of the versions listing API
		AssetDeliveryURL string        // Base URL of the asset download API
		BackoffStart     time.Duration // First retry wait
		BackoffStep      time.Duration // Added to the wait after each failure
	}
	InspectCLI struct {
		Path string // Archive to read
	}
}

func configureArchive(cli *baseCLI, appArchive *kingpin.CmdClause) {
	// Prompt presets
	appArchive.Flag("output", "Output directory (must not exist)").
		StringVar(&cli.ArchiveCLI.Presets.OutputDir)
	appArchive.Flag("place", "Place Id").
		SetValue(optionalInt64{&cli.ArchiveCLI.Presets.Place})
	appArchive.Flag("min", "Minimum version").
		SetValue(optionalInt64{&cli.ArchiveCLI.Presets.Min})
	appArchive.Flag("max", "Maximum version").
		SetValue(optionalInt64{&cli.ArchiveCLI.Presets.Max})

	// Cookie cache
	appArchive.Flag("cookie-file", "Where the cookie is cached").
		Default(config.GetCookieCachePath()).
		StringVar(&cli.ArchiveCLI.CookieFile)
	appArchive.Flag("no-cookie-cache", "Don't read or offer to write the cookie cache").
		BoolVar(&cli.ArchiveCLI.NoCookieCache)

	// Commit identity
	appArchive.Flag("author-name", "Name to commit as (default: git's config)").
		StringVar(&cli.ArchiveCLI.AuthorName)
	appArchive.Flag("author-email", "Email to commit as (default: git's config)").
		StringVar(&cli.ArchiveCLI.AuthorEmail)

	// Upstream
	appArchive.Flag("develop-url", "Base URL of the versions listing API").
		Default(roblox.DefaultDevelopURL).
		StringVar(&cli.ArchiveCLI.DevelopURL)
	appArchive.Flag("assetdelivery-url", "Base URL of the asset download API").
		Default(roblox.DefaultAssetDeliveryURL).
		StringVar(&cli.ArchiveCLI.AssetDeliveryURL)
	appArchive.Flag("backoff-start", "Wait before the first download retry").
		Default(roblox.DefaultBackoffStart.String()).
		DurationVar(&cli.ArchiveCLI.BackoffStart)
	appArchive.Flag("backoff-step", "Increase of the wait after each failed retry").
		Default(roblox.DefaultBackoffStep.String()).
		DurationVar(&cli.ArchiveCLI.BackoffStep)
}

/*
	An int64 flag that stays nil unless given, so "--place=0" is
	told apart from no flag at all.
*/
type optionalInt64 struct {
	target **int64
}

func (o optionalInt64) Set(s string) error {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*o.target = &v
	return nil
}

func (o optionalInt64) String() string {
	if *o.target == nil {
		return ""
	}
	return strconv.FormatInt(**o.target, 10)
}

func configureInspect(cli *baseCLI, appInspect *kingpin.CmdClause) {
	appInspect.Arg("path", "Archive directory").
		Required().
		StringVar(&cli.InspectCLI.Path)
}

/*
	Blocks until a sigint is received, then calls cancel.
	Returns without cancelling if the context ends first.
*/
func CancelOnInterrupt(ctx context.Context, cancel context.CancelFunc) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	defer signal.Stop(signalChan)
	select {
	case <-signalChan:
		cancel()
	case <-ctx.Done():
	}
}

func main() {
	ctx := context.Background()
	exitCode := Main(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	os.Exit(int(exitCode))
}

func Main(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) api.ExitCode {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go CancelOnInterrupt(ctx, cancel)

	cli := baseCLI{}

	app := kingpin.New("rbxarchive", "Archive the version history of a Roblox place into git")
	app.HelpFlag.Short('h')

	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	app.Flag("timeout", "Timeout for command").
		DurationVar(&cli.Timeout)
	app.Flag("format", "Output api format").
		Default(FmtDumb).
		EnumVar(&cli.Format, FmtJson, FmtDumb)
	app.Flag("progress", "Emit progress notification").
		BoolVar(&cli.ProgressEnable)
	app.Flag("verbose", "Show debug logs").
		Short('v').
		BoolVar(&cli.Verbose)

	appArchive := app.Command("archive", "download a place's versions into a new git repository")
	configureArchive(&cli, appArchive)

	appInspect := app.Command("inspect", "list the versions in an archive")
	configureInspect(&cli, appInspect)

	var termErr error
	app.Terminate(func(status int) {
		termErr = fmt.Errorf("parsing error: %d\n", status)
	})
	cmd, err := app.Parse(args[1:])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return api.ExitUsage
	}
	if termErr != nil {
		fmt.Fprintln(stderr, termErr)
		return api.ExitUsage
	}
	if cli.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, cli.Timeout)
		defer cancelTimeout()
	}

	var result api.Event_Result
	switch cmd {
	case appArchive.FullCommand():
		var run api.RunResult
		run, err = executeArchive(ctx, cli, stdin, stdout, stderr)
		result.Run = &run
	case appInspect.FullCommand():
		result.Versions, err = executeInspect(cli)
	}
	result.SetError(err)
	SerializeResult(cli.Format, &result, stdout, stderr)
	return api.ExitCodeForCategory(Category(err))
}

func executeArchive(ctx context.Context, cli baseCLI, stdin io.Reader, stdout, stderr io.Writer) (api.RunResult, error) {
	// No point asking for a cookie if nothing could be committed.
	if _, err := gitcli.Version(ctx); err != nil {
		return api.RunResult{}, err
	}
	// In json mode stdout is reserved for the event stream.
	promptOut := stdout
	if cli.Format == FmtJson {
		promptOut = stderr
	}
	toolchain, expandAvailable := config.DetectExpandToolchain()
	cache := prompt.CookieCache{
		Path:    cli.ArchiveCLI.CookieFile,
		Enabled: !cli.ArchiveCLI.NoCookieCache,
	}
	cfg, err := prompt.New(stdin, promptOut).Collect(cli.ArchiveCLI.Presets, &cache, expandAvailable)
	if err != nil {
		return api.RunResult{}, err
	}
	cfg.AuthorName = cli.ArchiveCLI.AuthorName
	cfg.AuthorEmail = cli.ArchiveCLI.AuthorEmail

	ctrl, err := roblox.NewController(roblox.Config{
		DevelopURL:       cli.ArchiveCLI.DevelopURL,
		AssetDeliveryURL: cli.ArchiveCLI.AssetDeliveryURL,
		Cookie:           cfg.Cookie,
		BackoffStart:     cli.ArchiveCLI.BackoffStart,
		BackoffStep:      cli.ArchiveCLI.BackoffStep,
	})
	if err != nil {
		return api.RunResult{}, err
	}

	evs := make(chan api.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		printer := newEventPrinter(cli, stdout, stderr)
		for ev := range evs {
			printer.Print(ev)
		}
	}()
	result, err := archive.Run(ctx, cfg, ctrl, expand.Expander{Toolchain: toolchain, Mode: cfg.Expand}, api.Monitor{Chan: evs})
	<-done
	return result, err
}

func executeInspect(cli baseCLI) ([]api.ArchivedVersion, error) {
	arch, err := history.Open(cli.InspectCLI.Path)
	if err != nil {
		return nil, err
	}
	return arch.Versions()
}

func SerializeResult(format string, result *api.Event_Result, stdout io.Writer, stderr io.Writer) {
	switch format {
	case FmtJson:
		writeJsonEvent(stdout, api.Event{Result: result})
	case FmtDumb:
		if result.Error != nil {
			fmt.Fprintln(stderr, result.Error.Msg)
			return
		}
		if result.Run != nil {
			printRunResult(stdout, *result.Run)
		}
		if result.Versions != nil || result.Run == nil {
			printVersions(stdout, result.Versions)
		}
	default:
		panic(fmt.Errorf("rbxarchive: invalid format %s", format))
	}
}

func writeJsonEvent(w io.Writer, ev api.Event) {
	var buf bytes.Buffer
	marshaller := refmt.NewMarshallerAtlased(json.EncodeOptions{}, &buf, api.Atlas)
	if err := marshaller.Marshal(&ev); err != nil {
		panic(err)
	}
	buf.WriteByte('\n')
	w.Write(buf.Bytes())
}

func printRunResult(w io.Writer, run api.RunResult) {
	if run.Commits == 0 {
		fmt.Fprintln(w, "Done! No versions were committed.")
		return
	}
	fmt.Fprintf(w, "Done! Committed versions %d through %d (%d commits, %d tags).\n",
		run.FirstCommitted, run.LastCommitted, run.Commits, run.Tags)
}

func printVersions(w io.Writer, versions []api.ArchivedVersion) {
	for _, v := range versions {
		line := fmt.Sprintf("%d\t%s\t%s", v.Version, v.Commit[:12], v.CommitterTime.UTC().Format(time.RFC3339))
		if v.Tag != "" {
			line += "\t" + v.Tag + "\t" + v.TagMessage
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "Highest archived version: %d\n", history.Highest(versions))
}
