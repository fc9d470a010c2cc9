package dispatcher

import (
	"time"

	"github.com/sabouaram/tcpcomm/protocol"
)

// idleLoop kicks the dispatcher every period, so timeout processing and
// queued sends advance even when no socket I/O is arriving. It exits when
// done is closed (Stop).
func (d *Dispatcher) idleLoop(period time.Duration, done chan struct{}) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			d.Kick(protocol.UndefinedConnID)
		}
	}
}
