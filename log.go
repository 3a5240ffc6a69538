package persistent

import (
	"github.com/btcsuite/btclog"

	"github.com/jrhy/persistent/hamt"
	"github.com/jrhy/persistent/keys"
	"github.com/jrhy/persistent/tree"
)

// UseLogger directs the logging of every package in this module to logger.
// Nothing is logged until it is called.
func UseLogger(logger btclog.Logger) {
	keys.UseLogger(logger)
	tree.UseLogger(logger)
	hamt.UseLogger(logger)
}

// DisableLog silences every package in this module.
func DisableLog() {
	keys.DisableLog()
	tree.DisableLog()
	hamt.DisableLog()
}
