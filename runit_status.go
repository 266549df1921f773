package svcinstall

import (
	"encoding/binary"
	"fmt"
)

// runit supervise directory layout
const (
	// superviseDir is the subdirectory runsv creates for control files
	superviseDir = "supervise"

	// controlFile is the control FIFO file name
	controlFile = "control"

	// statusFile is the binary status file name
	statusFile = "status"

	// downFile keeps runsv from starting the service on its own
	downFile = "down"

	// runitStatusSize is the exact size of the binary status record in bytes
	// Reference: https://github.com/g-pape/runit/blob/master/src/sv.c
	runitStatusSize = 20
)

// Status file layout offsets (from runit source)
const (
	offsetPID    = 12 // bytes 12-15: PID, little-endian
	offsetPaused = 16 // byte 16: paused flag
	offsetWant   = 17 // byte 17: want flag ('u' or 'd')
	offsetTerm   = 18 // byte 18: term flag
	offsetRun    = 19 // byte 19: supervisor state
)

// supervisor states stored at offsetRun
const (
	runitDown   = 0
	runitRun    = 1
	runitFinish = 2
)

// runitStatus is the decoded supervise/status record
type runitStatus struct {
	PID    int
	Paused bool
	WantUp bool
	Term   bool
	Run    byte
}

// decodeRunitStatus decodes a 20-byte runit status record
func decodeRunitStatus(data []byte) (runitStatus, error) {
	if len(data) != runitStatusSize {
		return runitStatus{}, fmt.Errorf("decoding runit status: expected %d bytes, got %d", runitStatusSize, len(data))
	}

	return runitStatus{
		PID:    int(binary.LittleEndian.Uint32(data[offsetPID:offsetPaused])),
		Paused: data[offsetPaused] != 0,
		WantUp: data[offsetWant] == 'u',
		Term:   data[offsetTerm] != 0,
		Run:    data[offsetRun],
	}, nil
}

// State maps the record onto ServiceState
func (s runitStatus) State() ServiceState {
	switch s.Run {
	case runitRun:
		if !s.WantUp || s.Term {
			return StateStopPending
		}
		return StateRunning
	case runitFinish:
		// finish script is running; runsv restarts the service when wanted up
		if s.WantUp {
			return StateStartPending
		}
		return StateStopPending
	case runitDown:
		if s.WantUp {
			return StateStartPending
		}
		return StateStopped
	default:
		return StateUnknown
	}
}
