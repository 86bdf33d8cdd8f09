package cascade

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrNoInput is returned when a run has no call rows to process.
var ErrNoInput = eris.New("cascade: no call records")

// UnavailableError reports a contact store that could not be reached or
// read. A run that hits one writes no output.
type UnavailableError struct {
	Source string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("cascade: source %s unavailable: %v", e.Source, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
