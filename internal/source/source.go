// Package source defines the frame source contract.
//
// A source delivers opaque byte buffers, one per radio notification. How
// the bytes reach the process (MQTT bridge, captured trace, simulator) is
// the source's concern; the pipeline only sees RawFrames.
package source

import (
	"context"

	"flowstate.dev/cortex/internal/core"
)

// Source pushes raw frames into the pipeline channel until ctx is
// cancelled or the source is exhausted. A nil return means clean shutdown
// or end of input; the source must not close the channel.
type Source interface {
	Name() string
	Run(ctx context.Context, frames chan<- core.RawFrame) error
}
