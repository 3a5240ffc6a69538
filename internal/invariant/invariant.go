// Package invariant reports internal-consistency failures of the engines.
package invariant

import (
	"fmt"

	"github.com/btcsuite/btclog"
)

// Violation is the panic value raised when a node is found in a state the
// engines never produce. It means an engine bug, or a node mutated after it
// was shared; it is never the result of bad user input.
type Violation struct {
	Msg string
}

func (v Violation) Error() string {
	return "internal invariant violated: " + v.Msg
}

// Panicf logs the violation at critical level and panics with a Violation.
func Panicf(log btclog.Logger, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Criticalf("%s", msg)
	panic(Violation{Msg: msg})
}
