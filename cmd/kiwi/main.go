// Package main implements the kiwi NES emulator executable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"kiwi/internal/app"
	"kiwi/internal/debug"
	"kiwi/internal/logger"
	"kiwi/internal/statsview"
	"kiwi/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("kiwi", flag.ContinueOnError)
	var (
		romFile     = flags.String("rom", "", "Path to NES ROM file or a zip, 7z or rar archive holding one")
		configFile  = flags.String("config", app.GetDefaultConfigPath(), "Path to configuration file")
		nogui       = flags.Bool("nogui", false, "Run without a window")
		frames      = flags.Int("frames", 120, "Frames to run with -nogui")
		snapshots   = flags.String("snapshot", "", "Comma separated frame numbers saved as PNG with -nogui")
		snapshotDir = flags.String("snapshotdir", ".", "Directory for -snapshot images")
		record      = flags.String("record", "", "Record audio to a WAV file")
		dumpState   = flags.String("dumpstate", "", "Write the final machine state as a Graphviz file")
		dumpFrames  = flags.String("dumpframes", "", "Write frames as text into this directory")
		stats       = flags.Bool("statsview", false, "Serve runtime statistics over HTTP")
		debugMode   = flags.Bool("debug", false, "Echo the log to stderr")
		showVersion = flags.Bool("version", false, "Show version information")
	)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: kiwi [options]\n\n")
		flags.PrintDefaults()
		fmt.Fprintf(flags.Output(), "\nHotkeys: F1-F10 save state, Shift+F1-F10 load state, P pause, F11 step while paused,\n")
		fmt.Fprintf(flags.Output(), "F12 screenshot, Backspace reset, Escape twice to quit\n")
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		version.PrintBuildInfo(os.Stdout)
		return 0
	}
	if *debugMode {
		logger.SetEcho(os.Stderr)
	}
	if *stats {
		statsview.Launch(os.Stdout)
	}

	snapshotFrames, err := parseFrames(*snapshots)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kiwi: %v\n", err)
		return 2
	}
	if *nogui && *romFile == "" {
		fmt.Fprintln(os.Stderr, "kiwi: -nogui needs -rom")
		return 2
	}

	opts := app.Options{
		Headless:       *nogui,
		SnapshotFrames: snapshotFrames,
		SnapshotDir:    *snapshotDir,
		RecordPath:     *record,
	}
	if *dumpFrames != "" {
		dumper := debug.NewFrameDumper(*dumpFrames)
		dumper.SetMaxDumps(*frames)
		opts.FrameHook = func(frameBuffer []uint32, frame uint64) error {
			_, err := dumper.Dump(frameBuffer, frame)
			return err
		}
	}

	application, err := app.NewApplicationWithOptions(*configFile, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kiwi: %v\n", err)
		return 1
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			fmt.Fprintf(os.Stderr, "kiwi: cleanup: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		application.Stop()
	}()

	if *romFile != "" {
		if err := application.LoadROM(*romFile); err != nil {
			fmt.Fprintf(os.Stderr, "kiwi: %v\n", err)
			return 1
		}
	}

	if *nogui {
		err = application.RunHeadless(*frames)
	} else {
		err = application.Run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "kiwi: %v\n", err)
		return 1
	}

	if *dumpState != "" {
		state, err := application.GetConsole().Snapshot()
		if err == nil {
			err = debug.DumpStateFile(*dumpState, state)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "kiwi: %v\n", err)
			return 1
		}
	}

	summary := application.GetEmulator().GetStats()
	logger.Logf(logger.Allow, "kiwi", "%d frames, %.1f fps, %.2fx real time",
		summary.FrameCount, application.GetFPS(), summary.EmulationSpeed)
	return 0
}

// parseFrames parses "60,120" into frame numbers
func parseFrames(list string) ([]int, error) {
	if list == "" {
		return nil, nil
	}
	var frames []int
	for _, field := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid snapshot frame %q", field)
		}
		frames = append(frames, n)
	}
	return frames, nil
}
