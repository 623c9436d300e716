package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ttlform/cmd/ttlform/ui"
	"ttlform/internal/logging"
	"ttlform/internal/watch"
)

var (
	editOrigin   string
	editWatchDir string
)

// editCmd opens the editor, optionally preloaded with a file
var editCmd = &cobra.Command{
	Use:   "edit [file]",
	Short: "Open the Turtle editor",
	Long: `Opens the editor. A file argument is loaded as if pasted, or as
automated content when --origin is given (for example --origin agent:importer).

With --watch (or watch.dir in the config), every .ttl file written to that
directory is loaded as automated content credited to agent:file:<name>.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editOrigin, "origin", "", "Automated origin tag for the loaded file")
	editCmd.Flags().StringVar(&editWatchDir, "watch", "", "Load .ttl files dropped into this directory")
}

func runEdit(cmd *cobra.Command, args []string) error {
	var initial string
	if len(args) == 1 {
		text, err := readDocument(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		initial = text
	}
	return openEditor(cmd.Context(), initial, editOrigin)
}

// openEditor runs the terminal host until the user quits.
func openEditor(parent context.Context, initial, origin string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pump := ui.NewEventPump()
	a, err := newApp(cfg, logs, pump)
	if err != nil {
		return err
	}
	defer a.Close()

	log := logs.Get(logging.CategoryUI)
	a.attach(ctx, log)

	if initial != "" {
		res := a.ctrl.LoadContent(initial, origin)
		log.Debug("initial document loaded", zap.Stringer("validity", res.Validity))
	}

	dir := editWatchDir
	if dir == "" {
		dir = cfg.Watch.Dir
	}
	if dir != "" {
		w, err := watch.New(dir, a.ctrl, cfg.GetWatchDebounce(), logs.Get(logging.CategoryWatch))
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer w.Stop()
		if err := w.Start(ctx); err != nil {
			return err
		}
	}

	m := ui.NewModel(ctx, ui.Config{
		Controller:  a.ctrl,
		Destination: a.picker,
		Pump:        pump,
		Styles:      ui.DefaultStyles(),
		Refresh:     cfg.GetAsOfRefresh(),
		Logger:      log,
	})
	return ui.Run(ctx, m)
}

// readDocument reads a file, or stdin for "-".
func readDocument(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
