package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrScanTimeout is returned when the driver does not answer a port listing.
// CoreMIDI can hang; the fix is: sudo killall coreaudiod midiserver
var ErrScanTimeout = errors.New("midi port scan timed out")

// ScanTimeout bounds a single port listing
const ScanTimeout = 3 * time.Second

// OutPorts lists MIDI output ports, giving up after timeout
func OutPorts(timeout time.Duration) ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		return outs, nil
	case <-time.After(timeout):
		return nil, ErrScanTimeout
	}
}

// OutPortNames lists output port names
func OutPortNames(timeout time.Duration) ([]string, error) {
	outs, err := OutPorts(timeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outs))
	for i, p := range outs {
		names[i] = p.String()
	}
	return names, nil
}

// MatchPort picks a port name: an exact match wins, then a case-insensitive
// substring match. An empty want selects the first port.
func MatchPort(names []string, want string) (int, bool) {
	if len(names) == 0 {
		return -1, false
	}
	if want == "" {
		return 0, true
	}
	for i, n := range names {
		if n == want {
			return i, true
		}
	}
	want = strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return i, true
		}
	}
	return -1, false
}

// OpenOut opens the output port matching name and returns its sender
func OpenOut(name string) (send func(gomidi.Message) error, portName string, err error) {
	outs, err := OutPorts(ScanTimeout)
	if err != nil {
		return nil, "", err
	}
	names := make([]string, len(outs))
	for i, p := range outs {
		names[i] = p.String()
	}
	idx, ok := MatchPort(names, name)
	if !ok {
		return nil, "", fmt.Errorf("output port %q not found (%d ports)", name, len(outs))
	}
	send, err = gomidi.SendTo(outs[idx])
	if err != nil {
		return nil, "", fmt.Errorf("open output %s: %w", names[idx], err)
	}
	return send, names[idx], nil
}
