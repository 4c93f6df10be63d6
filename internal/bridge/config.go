package bridge

import (
	"github.com/danmuck/httpebble/internal/providers"
	"github.com/danmuck/httpebble/internal/upstream"
)

// Config configures a Router.
type Config struct {
	// DeviceID is the textual identifier of the connected watch,
	// usually its Bluetooth address.
	DeviceID string
	// StrictCommands rejects messages naming more than one command
	// instead of keeping the first one.
	StrictCommands bool
	Upstream       upstream.Config
	Location       providers.Fix
}

// DefaultConfig is lenient dispatch, unbounded upstream calls and the mock fix.
func DefaultConfig() Config {
	return Config{
		StrictCommands: false,
		Upstream: upstream.Config{
			MaxBodyBytes: upstream.DefaultMaxBodyBytes,
		},
		Location: providers.MockFix,
	}
}
