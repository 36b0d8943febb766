package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"headterm/internal/alis"
	"headterm/internal/config"
)

type streamFlags struct {
	server         string
	protocol       string
	installIDPath  string
	installIDValue string
	title          string
	visibility     string
	captureInput   bool
}

// newStreamCmd builds the `stream` subcommand (§6): spawns CMD in a PTY
// and uploads its observable events to a remote asciinema-compatible
// server over one long-lived websocket connection.
func newStreamCmd(root *rootFlags) *cobra.Command {
	flags := &streamFlags{}

	streamCmd := &cobra.Command{
		Use:   "stream [CMD...]",
		Short: "Stream a session to a remote asciinema-compatible server",
		RunE: func(c *cobra.Command, args []string) error {
			return runStream(c, root, flags, args)
		},
	}

	fl := streamCmd.Flags()
	fl.StringVar(&flags.server, "server", "", "websocket URL of the remote server (required)")
	fl.StringVar(&flags.protocol, "protocol", "alis", "wire protocol to use: alis or v3")
	fl.StringVar(&flags.installIDPath, "install-id-path", "", "path to the persisted install-id file")
	fl.StringVar(&flags.installIDValue, "install-id-value", "", "install-id value to use instead of reading/creating a file")
	fl.StringVar(&flags.title, "title", "", "stream title")
	fl.StringVar(&flags.visibility, "visibility", "", "requested stream visibility: public, unlisted, or private")
	fl.BoolVar(&flags.captureInput, "capture-input", false, "record operator input as Input events")

	return streamCmd
}

func runStream(c *cobra.Command, root *rootFlags, flags *streamFlags, args []string) error {
	if flags.server == "" {
		return fmt.Errorf("stream: --server is required")
	}

	protocol, err := resolveProtocol(flags.protocol)
	if err != nil {
		return err
	}

	installID, err := resolveInstallID(flags)
	if err != nil {
		return fmt.Errorf("stream: %w", err)
	}

	if err := validateVisibility(flags.visibility); err != nil {
		return err
	}

	cols, rows, err := resolveSize(root.size)
	if err != nil {
		return err
	}

	theme, err := config.ResolveTheme("", "")
	if err != nil {
		return fmt.Errorf("stream: %w", err)
	}

	command, cmdArgs := resolveCommand(args)

	rt, err := spawn(command, cmdArgs, cols, rows, flags.captureInput, nil)
	if err != nil {
		return err
	}

	remoteCfg := alis.RemoteConfig{
		ServerURL:  flags.server,
		InstallID:  installID,
		Protocol:   protocol,
		Title:      flags.title,
		Visibility: flags.visibility,
		Theme:      theme,
	}

	conn, err := alis.DialRemote(remoteCfg)
	if err != nil {
		rt.driver.Kill()
		return fmt.Errorf("stream: %w", err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	init, sub := rt.sess.Subscribe()
	streamErr := make(chan error, 1)
	go func() {
		streamErr <- alis.RunRemote(ctx, conn, init, sub, remoteCfg)
	}()

	rt.maybeServeHTTP(c.Flags().Changed("listen") || root.listen != "", root.listen, theme)

	// The remote streamer above has already subscribed; only now is it
	// safe to let the child's output start flowing (see spawn's doc
	// comment).
	rt.start()

	go rt.runCommandReader(ctx, nil)

	rt.waitExit()
	select {
	case err := <-streamErr:
		if err != nil {
			return fmt.Errorf("stream: %w", err)
		}
	case <-time.After(drainGrace):
	}
	return nil
}

func resolveProtocol(flag string) (alis.Protocol, error) {
	switch flag {
	case "", "alis":
		return alis.ProtocolALiS, nil
	case "v3":
		return alis.ProtocolAsciicast, nil
	default:
		return "", fmt.Errorf("stream: invalid --protocol %q: want alis or v3", flag)
	}
}

func validateVisibility(v string) error {
	switch v {
	case "", "public", "unlisted", "private":
		return nil
	default:
		return fmt.Errorf("stream: invalid --visibility %q: want public, unlisted, or private", v)
	}
}

// resolveInstallID honors --install-id-value over --install-id-path,
// falling back to the default path (creating a fresh UUID there if none
// exists yet) when neither flag is given.
func resolveInstallID(flags *streamFlags) (string, error) {
	if flags.installIDValue != "" {
		return flags.installIDValue, nil
	}
	path := flags.installIDPath
	if path == "" {
		var err error
		path, err = config.DefaultInstallIDPath()
		if err != nil {
			return "", err
		}
	}
	return config.LoadOrCreateInstallID(path)
}
