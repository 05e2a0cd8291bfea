package midi

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestMatchPort(t *testing.T) {
	names := []string{"Midi Through Port-0", "FluidSynth virtual port", "IAC Driver Bus 1"}
	tests := []struct {
		want string
		idx  int
		ok   bool
	}{
		{"", 0, true},
		{"IAC Driver Bus 1", 2, true},
		{"fluidsynth", 1, true},
		{"launchpad", -1, false},
	}
	for _, tt := range tests {
		idx, ok := MatchPort(names, tt.want)
		if idx != tt.idx || ok != tt.ok {
			t.Errorf("MatchPort(%q) = %d, %v; want %d, %v", tt.want, idx, ok, tt.idx, tt.ok)
		}
	}
	if _, ok := MatchPort(nil, ""); ok {
		t.Error("MatchPort on no ports succeeded")
	}
}

func TestWatcherScan(t *testing.T) {
	lists := [][]string{
		{"b", "a"},
		{"a", "c"},
	}
	var failNext bool
	w := newPortWatcher(func() ([]string, error) {
		if failNext {
			return nil, errors.New("driver hung")
		}
		l := lists[0]
		lists = lists[1:]
		return l, nil
	})
	ctx := context.Background()

	w.scan(ctx)
	got := []PortEvent{<-w.events, <-w.events}
	want := []PortEvent{{PortConnected, "a"}, {PortConnected, "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("first scan events = %+v, want %+v", got, want)
	}

	w.scan(ctx)
	got = []PortEvent{<-w.events, <-w.events}
	want = []PortEvent{{PortDisconnected, "b"}, {PortConnected, "c"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("second scan events = %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(w.Ports(), []string{"a", "c"}) {
		t.Fatalf("Ports() = %v", w.Ports())
	}

	failNext = true
	w.scan(ctx)
	if len(w.events) != 0 || !w.Has("c") {
		t.Fatal("failed scan changed the port set")
	}
}

func TestWatcherRunClosesEvents(t *testing.T) {
	w := newPortWatcher(func() ([]string, error) { return []string{"x"}, nil })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	if ev := <-w.Events(); ev.Name != "x" || ev.Type != PortConnected {
		t.Fatalf("event = %+v", ev)
	}
	cancel()
	<-done
	if _, ok := <-w.Events(); ok {
		t.Fatal("events channel still open after Run returned")
	}
}
