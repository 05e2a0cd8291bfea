package player

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"smfplay/debug"
	"smfplay/smf"
)

// ErrNotLoaded is returned by Play before a file has been loaded
var ErrNotLoaded = errors.New("player: no file loaded")

// Sender delivers one MIDI message, typically to an output port
type Sender func(msg gomidi.Message) error

// State is the transport state
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "PLAY"
	case Paused:
		return "PAUSE"
	}
	return "STOP"
}

// TickDuration returns the length of one tick. PPQN files have no tempo map
// here, so bpm stands in for it; SMPTE divisions fix the tick rate.
func TickDuration(div smf.Division, bpm int) (time.Duration, error) {
	if div.SMPTE {
		tps := div.TicksPerSecond()
		if tps == 0 {
			return 0, fmt.Errorf("smpte division %d fps x %d subframes has no tick rate", div.FramesPerSecond, div.SubframeResolution)
		}
		return time.Second / time.Duration(tps), nil
	}
	if div.TicksPerQuarter == 0 || bpm <= 0 {
		return 0, fmt.Errorf("cannot time %d ticks per quarter at %d bpm", div.TicksPerQuarter, bpm)
	}
	return time.Minute / time.Duration(bpm*int(div.TicksPerQuarter)), nil
}

// cue is one scheduled note-on or note-off
type cue struct {
	tick     uint64
	on       bool
	channel  uint8
	note     uint8
	velocity uint8
}

// Option configures a Player
type Option func(*Player)

// WithTempo sets the BPM used for PPQN files (default 120)
func WithTempo(bpm int) Option {
	return func(p *Player) {
		p.tempo = bpm
	}
}

// WithTickDuration fixes the tick length regardless of the file's division
func WithTickDuration(d time.Duration) Option {
	return func(p *Player) {
		p.fixedTick = d
	}
}

// Player sends a parsed file's notes to a Sender in real time.
// It implements load/play/pause/rewind; all methods are safe for concurrent use.
type Player struct {
	send      Sender
	tempo     int
	fixedTick time.Duration

	mu       sync.Mutex
	file     *smf.File
	schedule []cue
	tickDur  time.Duration
	next     int    // index of the next cue to send
	baseTick uint64 // position when the clock was last (re)started
	t0       time.Time
	state    State
	sounding map[[2]uint8]int // channel, note -> open note-ons

	stopChan chan struct{}
	doneChan chan struct{}
}

// New creates a player that sends through send
func New(send Sender, opts ...Option) *Player {
	p := &Player{
		send:     send,
		tempo:    120,
		sounding: make(map[[2]uint8]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load replaces the current file and rewinds to the start
func (p *Player) Load(f *smf.File) error {
	tick := p.fixedTick
	if tick <= 0 {
		var err error
		if tick, err = TickDuration(f.Division, p.tempo); err != nil {
			return err
		}
	}

	p.halt()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.silence()
	p.file = f
	p.schedule = buildSchedule(f)
	p.tickDur = tick
	p.next = 0
	p.baseTick = 0
	p.state = Stopped
	debug.Log("player", "loaded %d cues, tick=%v", len(p.schedule), tick)
	return nil
}

// buildSchedule flattens the merged notes into time-ordered cues. At equal
// ticks note-offs go first so a repeated pitch retriggers.
func buildSchedule(f *smf.File) []cue {
	merged := f.Merged()
	cues := make([]cue, 0, 2*len(merged))
	for _, n := range merged {
		cues = append(cues,
			cue{tick: n.Start, on: true, channel: n.Channel, note: n.Note.Note, velocity: n.Velocity},
			cue{tick: n.End(), channel: n.Channel, note: n.Note.Note},
		)
	}
	slices.SortStableFunc(cues, func(a, b cue) int {
		if c := cmp.Compare(a.tick, b.tick); c != 0 {
			return c
		}
		if a.on == b.on {
			return 0
		}
		if a.on {
			return 1
		}
		return -1
	})
	return cues
}

// Play starts or resumes playback
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrNotLoaded
	}
	if p.state == Playing {
		return nil
	}

	p.state = Playing
	p.t0 = time.Now()
	p.stopChan = make(chan struct{})
	p.doneChan = make(chan struct{})
	go p.run(p.stopChan, p.doneChan)
	return nil
}

// Pause stops the clock at the current position and silences sounding notes
func (p *Player) Pause() {
	p.mu.Lock()
	playing := p.state == Playing
	p.mu.Unlock()
	if !playing {
		return
	}

	pos := p.Position()
	p.halt()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.silence()
	if p.state == Playing {
		p.baseTick = pos
		p.state = Paused
	}
}

// Rewind stops playback and returns to tick 0
func (p *Player) Rewind() {
	p.halt()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.silence()
	p.next = 0
	p.baseTick = 0
	p.state = Stopped
}

// Close stops playback and sends all-notes-off on every channel
func (p *Player) Close() error {
	p.Rewind()

	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for ch := uint8(0); ch < 16; ch++ {
		if err := p.send(gomidi.ControlChange(ch, 123, 0)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until the playback goroutine, if any, has exited
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.doneChan
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// State returns the transport state
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position returns the current tick
func (p *Player) Position() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing || p.tickDur <= 0 {
		return p.baseTick
	}
	return p.baseTick + uint64(time.Since(p.t0)/p.tickDur)
}

// Duration returns the time the loaded file takes to play
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return 0
	}
	return time.Duration(p.file.Length()) * p.tickDur
}

// TickDuration returns the tick length in use
func (p *Player) TickDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tickDur
}

// halt stops the playback goroutine and waits for it. Must not hold mu.
func (p *Player) halt() {
	p.mu.Lock()
	stop, done := p.stopChan, p.doneChan
	p.stopChan, p.doneChan = nil, nil
	p.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// silence sends note-off for every note the player left sounding. Holds mu.
func (p *Player) silence() {
	for key, n := range p.sounding {
		if n > 0 {
			p.sendLocked(gomidi.NoteOff(key[0], key[1]))
		}
	}
	clear(p.sounding)
}

func (p *Player) sendLocked(msg gomidi.Message) {
	if err := p.send(msg); err != nil {
		debug.Log("player", "send %v: %v", msg, err)
	}
}

// run dispatches cues at their wall-clock time until the schedule ends or
// stop is closed.
func (p *Player) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		p.mu.Lock()
		if p.next >= len(p.schedule) {
			// finished: back to the start, ready to play again
			p.next = 0
			p.baseTick = 0
			p.state = Stopped
			p.stopChan, p.doneChan = nil, nil
			p.mu.Unlock()
			debug.Log("player", "finished")
			return
		}
		c := p.schedule[p.next]
		var wait time.Duration
		if c.tick > p.baseTick {
			wait = time.Duration(c.tick-p.baseTick)*p.tickDur - time.Since(p.t0)
		}
		p.mu.Unlock()

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-stop:
				timer.Stop()
				return
			case <-timer.C:
			}
		} else {
			select {
			case <-stop:
				return
			default:
			}
		}

		p.mu.Lock()
		key := [2]uint8{c.channel, c.note}
		if c.on {
			p.sendLocked(gomidi.NoteOn(c.channel, c.note, c.velocity))
			p.sounding[key]++
		} else {
			p.sendLocked(gomidi.NoteOff(c.channel, c.note))
			if p.sounding[key] > 0 {
				p.sounding[key]--
			}
		}
		p.next++
		p.mu.Unlock()
		debug.LogEvery(100, "player", "tick=%d on=%v ch=%d note=%d", c.tick, c.on, c.channel, c.note)
	}
}
