package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/remeh/sizedwaitgroup"
	gomidi "gitlab.com/gomidi/midi/v2"

	"smfplay/config"
	"smfplay/debug"
	"smfplay/midi"
	"smfplay/player"
	"smfplay/render"
	"smfplay/smf"
	"smfplay/theme"
	"smfplay/tui"
	"smfplay/widgets"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches a subcommand. Deferred cleanup runs before main exits.
func run(args []string) error {
	if len(args) < 1 {
		usage()
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}
	if cfg.Debug {
		if err := debug.Enable(debug.DefaultPath()); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	rest := args[1:]
	switch args[0] {
	case "list":
		return listPorts()
	case "watch":
		return watchPorts()
	case "dump":
		return dump(cfg, rest)
	case "roll":
		return roll(cfg, rest)
	case "play":
		return play(cfg, rest)
	case "config":
		return configure(os.Stdout, cfg, rest)
	}
	usage()
	return nil
}

func usage() {
	fmt.Println("smfdump - Standard MIDI File tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                      - List MIDI output ports")
	fmt.Println("  watch                     - Report output ports as they come and go")
	fmt.Println("  dump [-n N] <files...>    - Print header, tracks and the first N notes")
	fmt.Println("  roll <file> <out.png>     - Render a piano roll")
	fmt.Println("  play <file>               - Play to the configured output port")
	fmt.Println("  config [-port P] [-tempo T] [-overlap O] [-palette F] [-debug]")
	fmt.Println("                            - Show the config, or change and save it")
}

// configure prints the config file, or applies the given flags and saves it
func configure(w io.Writer, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	port := fs.String("port", cfg.Output.PortName, "output port name (substring match)")
	tempo := fs.Int("tempo", cfg.Playback.Tempo, "tempo in BPM for PPQN files")
	overlap := fs.String("overlap", cfg.Playback.Overlap, "same-pitch overlap policy: replace or stack")
	palette := fs.String("palette", cfg.UI.Palette, "GPL palette file")
	dbg := fs.Bool("debug", cfg.Debug, "write the debug log")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if fs.NFlag() > 0 {
		cfg.Output.PortName = *port
		cfg.Playback.Tempo = *tempo
		cfg.Playback.Overlap = *overlap
		cfg.UI.Palette = *palette
		cfg.Debug = *dbg
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(w, "wrote %s\n", path)
		return nil
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "# %s\n%s\n", path, data)
	return nil
}

func listPorts() error {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	names, err := midi.OutPortNames(midi.ScanTimeout)
	if errors.Is(err, midi.ErrScanTimeout) {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return nil
	}
	if err != nil {
		return err
	}
	for i, n := range names {
		fmt.Printf("  %d: %s\n", i, n)
	}
	if len(names) == 0 {
		fmt.Println("  (none)")
	}
	return nil
}

func watchPorts() error {
	fmt.Println("Watching output ports. Ctrl+C to exit.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := midi.NewPortWatcher()
	go w.Run(ctx)
	for ev := range w.Events() {
		fmt.Printf("[%s] %s: %s\n", time.Now().Format("15:04:05"), ev.Type, ev.Name)
	}
	return nil
}

type dumpResult struct {
	path string
	size int
	file *smf.File
	err  error
}

func dump(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	limit := fs.Int("n", 20, "number of merged notes to print")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("dump: no files given")
	}

	results := make([]dumpResult, fs.NArg())
	wg := sizedwaitgroup.New(runtime.NumCPU())
	for i, path := range fs.Args() {
		wg.Add()
		go func(i int, path string) {
			defer wg.Done()
			results[i] = parseFile(path, cfg.ParseOptions()...)
		}(i, path)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.file == nil {
			failed++
		}
		printResult(r, cfg.Playback.Tempo, *limit)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", failed, len(results))
	}
	return nil
}

func parseFile(path string, opts ...smf.Option) dumpResult {
	r := dumpResult{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		r.err = err
		return r
	}
	r.size = len(data)
	r.file, r.err = smf.ParseBytes(data, opts...)
	return r
}

func printResult(r dumpResult, tempo, limit int) {
	fmt.Printf("%s (%s)\n", r.path, humanize.Bytes(uint64(r.size)))
	if r.file == nil {
		fmt.Printf("  error: %v\n\n", r.err)
		return
	}

	f := r.file
	fmt.Printf("  format %d, %d tracks, %s\n", f.Format, len(f.Tracks), tui.DivisionString(f.Division))
	length := fmt.Sprintf("  length %s ticks", humanize.Comma(int64(f.Length())))
	if d, err := player.TickDuration(f.Division, tempo); err == nil {
		length += fmt.Sprintf(" (%s at %d bpm)", tui.FormatDuration(time.Duration(f.Length())*d), tempo)
	}
	fmt.Println(length)

	for i, t := range f.Tracks {
		name := fmt.Sprintf("%q", t.Name)
		if t.Instrument != "" {
			name += fmt.Sprintf(" / %q", t.Instrument)
		}
		port := ""
		if t.HasPort {
			port = fmt.Sprintf(" port %d", t.Port)
		}
		fmt.Printf("  track %d %s%s: %s events, %s notes\n", i, name, port,
			humanize.Comma(int64(len(t.Events))), humanize.Comma(int64(len(t.Notes))))
	}

	if r.err != nil {
		for _, line := range strings.Split(r.err.Error(), "\n") {
			fmt.Printf("  recovered: %s\n", line)
		}
	}

	merged := f.Merged()
	if limit > 0 && len(merged) > 0 {
		fmt.Printf("  %8s  %3s  %-4s  %-5s %3s %6s\n", "tick", "trk", "ch", "note", "vel", "dur")
		for _, n := range merged[:min(limit, len(merged))] {
			fmt.Printf("  %8d  %3d  %-4d  %-5s %3d %6d\n", n.Start, n.Track, n.Channel+1,
				widgets.NoteName(n.Note.Note), n.Velocity, n.Duration)
		}
		if len(merged) > limit {
			fmt.Printf("  ... %s more\n", humanize.Comma(int64(len(merged)-limit)))
		}
	}
	fmt.Println()
}

func loadTheme(cfg *config.Config) *theme.Theme {
	if cfg.UI.Palette != "" {
		p, err := theme.LoadGPL(cfg.UI.Palette)
		if err == nil {
			return theme.New(p)
		}
		fmt.Fprintf(os.Stderr, "palette: %v (using default)\n", err)
	}
	return theme.New(theme.DefaultPalette())
}

func roll(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("roll", flag.ExitOnError)
	width := fs.Int("w", 1600, "image width")
	height := fs.Int("h", 600, "image height")
	fs.Parse(args)
	if fs.NArg() != 2 {
		return errors.New("usage: roll [-w W] [-h H] <file> <out.png>")
	}

	r := parseFile(fs.Arg(0), cfg.ParseOptions()...)
	if r.file == nil {
		return r.err
	}
	if r.err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", r.err)
	}

	img, err := render.PianoRoll(r.file, loadTheme(cfg), render.Options{
		Width:  *width,
		Height: *height,
		Labels: true,
	})
	if err != nil {
		return err
	}
	if err := render.SavePNG(fs.Arg(1), img); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d notes)\n", fs.Arg(1), r.file.NoteCount())
	return nil
}

func play(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: play <file>")
	}
	r := parseFile(args[0], cfg.ParseOptions()...)
	if r.file == nil {
		return r.err
	}
	if r.err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", r.err)
	}

	send, portName, err := midi.OpenOut(cfg.Output.PortName)
	if err != nil {
		return err
	}
	defer gomidi.CloseDriver()

	p := player.New(send, player.WithTempo(cfg.Playback.Tempo))
	defer p.Close()
	if err := p.Load(r.file); err != nil {
		return err
	}

	fmt.Printf("Playing %s on %s (%s). Ctrl+C to stop.\n", args[0], portName, tui.FormatDuration(p.Duration()))
	if err := p.Play(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.Pause()
	}
	return nil
}
