package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	gomidi "gitlab.com/gomidi/midi/v2"

	"smfplay/config"
	"smfplay/debug"
	"smfplay/midi"
	"smfplay/player"
	"smfplay/smf"
	"smfplay/theme"
	"smfplay/tui"
)

var errUsage = errors.New("usage: smfplay <file.mid>")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Printf("Error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run owns every resource; deferred cleanup happens before main exits
func run(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	path := args[0]

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}
	if cfg.Debug {
		if err := debug.Enable(debug.DefaultPath()); err != nil {
			fmt.Printf("Debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	f, parseErr := openFile(path, cfg.ParseOptions()...)
	if f == nil {
		return parseErr
	}

	// Load theme
	th := theme.New(theme.DefaultPalette())
	if cfg.UI.Palette != "" {
		palette, err := theme.LoadGPL(cfg.UI.Palette)
		if err != nil {
			fmt.Printf("Palette: %v (using default)\n", err)
		} else {
			th = theme.New(palette)
		}
	}

	// Output port, or play silently
	send, portName, err := midi.OpenOut(cfg.Output.PortName)
	if err != nil {
		debug.Log("midi", "no output: %v", err)
		send = func(gomidi.Message) error { return nil }
		portName = cfg.Output.PortName
	} else {
		defer gomidi.CloseDriver()
	}

	p := player.New(send, player.WithTempo(cfg.Playback.Tempo))
	defer p.Close()
	if err := p.Load(f); err != nil {
		return err
	}

	// Port watcher in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ports := midi.NewPortWatcher()
	go ports.Run(ctx)

	m := tui.NewModel(path, f, p, th)
	m.Ports = ports
	m.PortName = portName
	m.ParseErr = parseErr

	prog := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return err
	}
	return nil
}

func openFile(path string, opts ...smf.Option) (*smf.File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return smf.Parse(r, opts...)
}
