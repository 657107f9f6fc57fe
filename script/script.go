// Package script hosts the writer programs that drive the display
// controller: the Lua engine and the built-in demo. A program runs on
// the device's single writer goroutine and touches the device only
// through its store/load window.
package script

import (
	"context"
	"errors"

	"github.com/user-none/emld/emu"
)

// ErrStopped reports that a program was aborted by a stop or reset
// request rather than failing on its own.
var ErrStopped = errors.New("program stopped")

// Control lets a running program honor the UI's pause and stop requests.
// CheckPause blocks while paused and reports false once the program
// should abort.
type Control interface {
	CheckPause() bool
}

// Program is a writer program for the device. Run returns when the
// program completes, ctx is canceled, or ctrl reports a stop.
type Program interface {
	Run(ctx context.Context, dev *emu.LDC, ctrl Control) error
}
