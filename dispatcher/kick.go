package dispatcher

import "github.com/sabouaram/tcpcomm/protocol"

// Kick implements the wake-up protocol of spec §4.E: atomically increments
// kick-count provided it stays at or below run-count, then posts id onto
// the wake channel. If the bound is already hit, the call is dropped — a
// kick already in flight for every running worker makes an additional one
// redundant, since each worker's processPass drains every ready
// communicator, not just the one named in its kick token.
func (d *Dispatcher) Kick(id protocol.ConnID) {
	for {
		cur := d.kickCount.Load()
		run := d.runCount.Load()
		if run == 0 {
			return
		}
		if cur >= run {
			return
		}
		if !d.kickCount.CompareAndSwap(cur, cur+1) {
			continue
		}
		ch := d.kickCh
		if ch == nil {
			d.kickCount.Add(-1)
			return
		}
		select {
		case ch <- id:
		default:
			d.kickCount.Add(-1)
		}
		return
	}
}
