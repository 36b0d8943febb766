package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"headterm/internal/config"
	"headterm/internal/control"
	"headterm/internal/recorder"
)

type recordFlags struct {
	out           string
	title         string
	idleTimeLimit float64
	captureInput  bool
	captureEnv    string
	append        bool
	themeFg       string
	themeBg       string
	termType      string
}

// newRecordCmd builds the `record` subcommand (§6): spawns CMD in a PTY
// and appends its observable events to an asciicast v3 recording, with
// the same stdin/stdout control protocol and optional HTTP server any
// other subcommand exposes.
func newRecordCmd(root *rootFlags) *cobra.Command {
	flags := &recordFlags{}

	recordCmd := &cobra.Command{
		Use:   "record [CMD...]",
		Short: "Record a session to an asciicast v3 file",
		RunE: func(c *cobra.Command, args []string) error {
			return runRecord(c, root, flags, args)
		},
	}

	fl := recordCmd.Flags()
	fl.StringVar(&flags.out, "out", "", "path to write the .cast recording to (required)")
	fl.StringVar(&flags.title, "title", "", "recording title")
	fl.Float64Var(&flags.idleTimeLimit, "idle-time-limit", 0, "clamp idle gaps between events to this many seconds")
	fl.BoolVar(&flags.captureInput, "capture-input", false, "record operator input as Input events")
	fl.StringVar(&flags.captureEnv, "capture-env", "", "comma-separated environment variable names to store in the header")
	fl.BoolVar(&flags.append, "append", false, "append to an existing recording instead of truncating it")
	fl.StringVar(&flags.themeFg, "theme-fg", "", "recorded foreground color, #RRGGBB")
	fl.StringVar(&flags.themeBg, "theme-bg", "", "recorded background color, #RRGGBB")
	fl.StringVar(&flags.termType, "term-type", "", "recorded TERM value")

	return recordCmd
}

func runRecord(c *cobra.Command, root *rootFlags, flags *recordFlags, args []string) error {
	if flags.out == "" {
		return fmt.Errorf("record: --out is required")
	}

	cols, rows, err := resolveSize(root.size)
	if err != nil {
		return err
	}

	theme, err := config.ResolveTheme(flags.themeFg, flags.themeBg)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	captureEnv := config.ParseCaptureEnv(flags.captureEnv, lookupEnv)

	command, cmdArgs := resolveCommand(args)

	rt, err := spawn(command, cmdArgs, cols, rows, flags.captureInput, nil)
	if err != nil {
		return err
	}

	rec, err := recorder.Open(recorder.Config{
		Path: flags.out,
		Header: recorder.Header{
			Term: recorder.TermInfo{
				Cols:  cols,
				Rows:  rows,
				Type:  flags.termType,
				Theme: recorderTheme(theme),
			},
			IdleTimeLimit: flags.idleTimeLimit,
			Command:       strings.Join(append([]string{command}, cmdArgs...), " "),
			Title:         flags.title,
			Env:           captureEnv,
		},
		IdleTimeLimit: flags.idleTimeLimit,
		Append:        flags.append,
	})
	if err != nil {
		rt.driver.Kill()
		return fmt.Errorf("record: %w", err)
	}
	defer rec.Close()

	ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	_, recSub := rt.sess.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		rec.Run(ctx, recSub)
	}()

	var printer *control.Printer
	if c.Flags().Changed("subscribe") || root.subscribe != "" {
		printer = control.NewPrinter(c.OutOrStdout())
		types := config.ParseSubscribe(root.subscribe)
		init, sub := rt.sess.Subscribe()
		if types == nil || types[init.Kind.String()] {
			_ = printer.Emit(init)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			control.RunPrinter(ctx, sub, printer, types)
		}()
	}

	rt.maybeServeHTTP(c.Flags().Changed("listen") || root.listen != "", root.listen, theme)

	// Every consumer above has subscribed; only now is it safe to let the
	// child's output start flowing (see spawn's doc comment).
	rt.start()

	go rt.runCommandReader(ctx, printer)

	rt.waitExit()
	waitDrain(&wg)
	return nil
}

// resolveSize parses the top-level --size flag, falling back to the
// default 80x24 when it was not supplied.
func resolveSize(size string) (cols, rows int, err error) {
	if size == "" {
		return config.DefaultCols, config.DefaultRows, nil
	}
	return config.ParseSize(size)
}

func lookupEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}
