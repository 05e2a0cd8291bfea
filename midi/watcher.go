package midi

import (
	"context"
	"sort"
	"sync"
	"time"

	"smfplay/debug"
)

// PortEvent is emitted when an output port appears or disappears
type PortEvent struct {
	Type PortEventType
	Name string
}

type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

func (t PortEventType) String() string {
	if t == PortConnected {
		return "connected"
	}
	return "disconnected"
}

// PortWatcher polls the output port list for hot-plug changes
type PortWatcher struct {
	ports    map[string]bool
	mu       sync.RWMutex
	events   chan PortEvent
	pollRate time.Duration
	list     func() ([]string, error)
}

// NewPortWatcher creates a watcher over the system's output ports
func NewPortWatcher() *PortWatcher {
	return newPortWatcher(func() ([]string, error) {
		return OutPortNames(ScanTimeout)
	})
}

func newPortWatcher(list func() ([]string, error)) *PortWatcher {
	return &PortWatcher{
		ports:    make(map[string]bool),
		events:   make(chan PortEvent, 16),
		pollRate: time.Second,
		list:     list,
	}
}

// Events returns a channel of connect/disconnect events. It is closed when Run returns.
func (w *PortWatcher) Events() <-chan PortEvent {
	return w.events
}

// Ports returns a sorted snapshot of the ports seen in the last scan
func (w *PortWatcher) Ports() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.ports))
	for n := range w.ports {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a port matching name is present
func (w *PortWatcher) Has(name string) bool {
	_, ok := MatchPort(w.Ports(), name)
	return ok
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *PortWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()
	defer close(w.events)

	// Initial scan
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *PortWatcher) scan(ctx context.Context) {
	names, err := w.list()
	if err != nil {
		// skip this scan, the driver may recover
		debug.Log("ports", "scan failed: %v", err)
		return
	}

	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}

	w.mu.Lock()
	var changes []PortEvent
	for n := range seen {
		if !w.ports[n] {
			changes = append(changes, PortEvent{Type: PortConnected, Name: n})
		}
	}
	for n := range w.ports {
		if !seen[n] {
			changes = append(changes, PortEvent{Type: PortDisconnected, Name: n})
		}
	}
	w.ports = seen
	w.mu.Unlock()

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Name < changes[j].Name
	})
	for _, ev := range changes {
		debug.Log("ports", "%s %s", ev.Type, ev.Name)
		select {
		case w.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
