package smf

import (
	"errors"
	"fmt"
)

// ErrorKind classifies parse failures
type ErrorKind int

const (
	InvalidHeader ErrorKind = iota + 1
	UnexpectedEndOfStream
	MalformedVLQ
	UnknownMetaEvent
	InvalidStatus
)

// Sentinels for errors.Is
var (
	ErrInvalidHeader         = errors.New("invalid header")
	ErrUnexpectedEndOfStream = errors.New("unexpected end of stream")
	ErrMalformedVLQ          = errors.New("malformed variable-length quantity")
	ErrUnknownMetaEvent      = errors.New("unknown meta event")
	ErrInvalidStatus         = errors.New("invalid status byte")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case InvalidHeader:
		return ErrInvalidHeader
	case UnexpectedEndOfStream:
		return ErrUnexpectedEndOfStream
	case MalformedVLQ:
		return ErrMalformedVLQ
	case UnknownMetaEvent:
		return ErrUnknownMetaEvent
	case InvalidStatus:
		return ErrInvalidStatus
	}
	return nil
}

func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseError reports where decoding failed. Track is -1 for the header.
type ParseError struct {
	Kind   ErrorKind
	Offset int
	Track  int
	Detail string
}

func (e *ParseError) Error() string {
	where := "header"
	if e.Track >= 0 {
		where = fmt.Sprintf("track %d", e.Track)
	}
	msg := fmt.Sprintf("smf: %s at offset %d (%s)", e.Kind, e.Offset, where)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches the kind's sentinel
func (e *ParseError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// inTrack stamps a cursor error with the track it happened in
func inTrack(err error, track int) error {
	var pe *ParseError
	if errors.As(err, &pe) && pe.Track < 0 {
		pe.Track = track
	}
	return err
}
