package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"minisynth/internal/buildpipeline"
	"minisynth/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// wantUI decides whether a run over n targets shows the progress view.
// Auto mode needs more than one target and a terminal on stderr.
func wantUI(cmd *cobra.Command, n int) (bool, error) {
	flags := cmd.Root().PersistentFlags()
	value, _ := flags.GetString("ui")
	mode, err := readUIMode(value)
	if err != nil {
		return false, err
	}
	if quiet, _ := flags.GetBool("quiet"); quiet {
		return false, nil
	}
	switch mode {
	case uiModeOn:
		return true, nil
	case uiModeOff:
		return false, nil
	}
	return n > 1 && isTerminal(os.Stderr), nil
}

// runWithUI runs work in the background while the progress view renders
// its events on stderr.
func runWithUI(title string, targets []string, work func(sink buildpipeline.ProgressSink) error) error {
	events := make(chan buildpipeline.Event, 256)
	errCh := make(chan error, 1)
	go func() {
		err := work(buildpipeline.ChannelSink{Ch: events})
		close(events)
		errCh <- err
	}()

	program := tea.NewProgram(ui.NewProgressModel(title, targets, events), tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// the view may quit early; keep the worker from blocking on a full channel
	go func() {
		for range events {
		}
	}()
	err := <-errCh
	if err != nil {
		return err
	}
	return uiErr
}
