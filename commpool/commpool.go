// Package commpool implements the two-set communicator container from
// spec §4.D: a primary set of communicators available for check-out, and
// an excluded set holding whichever ones a dispatcher worker currently
// owns. Moving a communicator from primary to excluded and back is the
// mechanism that gives a worker exclusive processing rights without
// holding the container's lock across the (potentially long) Process()
// call.
//
// Grounded on original_source/include/unicomm/comm_container.hpp, whose
// insert/take_out/get_back/get/erase/send_all/disconnect_all surface this
// package mirrors one-for-one. The original serializes all operations
// with one recursive mutex; Go has no recursive mutex, so call paths that
// would re-enter (send_all calling send, which would otherwise re-lock)
// are restructured here to take a snapshot under the lock and do the
// actual work after releasing it — see DESIGN.md.
package commpool

import (
	"sync"

	"github.com/sabouaram/tcpcomm/comm"
	"github.com/sabouaram/tcpcomm/errs"
	"github.com/sabouaram/tcpcomm/protocol"
)

// Pool is the communicator container. The zero value is not usable; use
// New.
type Pool struct {
	mu       sync.Mutex
	primary  map[protocol.ConnID]*comm.Communicator
	excluded map[protocol.ConnID]*comm.Communicator
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{
		primary:  make(map[protocol.ConnID]*comm.Communicator),
		excluded: make(map[protocol.ConnID]*comm.Communicator),
	}
}

// Insert adds c to the primary set. Idempotent on c.ID(): inserting an id
// already present in either set is a no-op.
func (p *Pool) Insert(c *comm.Communicator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := c.ID()
	if _, ok := p.primary[id]; ok {
		return
	}
	if _, ok := p.excluded[id]; ok {
		return
	}
	p.primary[id] = c
}

// TakeOut atomically moves one communicator from the primary set to the
// excluded set and returns it, or returns (nil, false) if primary is
// empty. Map iteration order is intentionally unspecified: callers must
// not rely on any particular communicator being chosen.
func (p *Pool) TakeOut() (*comm.Communicator, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, c := range p.primary {
		delete(p.primary, id)
		p.excluded[id] = c
		return c, true
	}
	return nil, false
}

// TakeOutID moves a specific communicator to the excluded set, for callers
// that target one connection by id. The dispatcher's single-connection
// Send and Disconnect use Get instead.
func (p *Pool) TakeOutID(id protocol.ConnID) (*comm.Communicator, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.primary[id]
	if !ok {
		return nil, false
	}
	delete(p.primary, id)
	p.excluded[id] = c
	return c, true
}

// GetBack returns a previously checked-out communicator to the primary
// set. A no-op if id is not in the excluded set (e.g. it was erased while
// checked out).
func (p *Pool) GetBack(id protocol.ConnID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.excluded[id]
	if !ok {
		return
	}
	delete(p.excluded, id)
	p.primary[id] = c
}

// GetBackAll moves every excluded communicator back to primary. Nothing in
// this module calls it; the dispatcher returns communicators one by one
// with GetBack.
func (p *Pool) GetBackAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, c := range p.excluded {
		delete(p.excluded, id)
		p.primary[id] = c
	}
}

// Get returns the communicator for id from whichever set holds it, or
// SessionNotFound if absent from both.
func (p *Pool) Get(id protocol.ConnID) (*comm.Communicator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.primary[id]; ok {
		return c, nil
	}
	if c, ok := p.excluded[id]; ok {
		return c, nil
	}
	return nil, errs.New(errs.SessionNotFound, "no communicator with this id")
}

// Erase removes id from whichever set holds it and marks it removed so
// any in-flight callback chain knows not to expect further processing.
func (p *Pool) Erase(id protocol.ConnID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.primary[id]; ok {
		delete(p.primary, id)
		c.MarkRemoved()
		return
	}
	if c, ok := p.excluded[id]; ok {
		delete(p.excluded, id)
		c.MarkRemoved()
	}
}

// snapshot copies both sets under the lock; callers then iterate the copy
// without holding the lock, which is how send_all/disconnect_all avoid
// re-entering the (non-recursive) mutex through Communicator.Send or
// Disconnect.
func (p *Pool) snapshot() []*comm.Communicator {
	p.mu.Lock()
	defer p.mu.Unlock()
	all := make([]*comm.Communicator, 0, len(p.primary)+len(p.excluded))
	for _, c := range p.primary {
		all = append(all, c)
	}
	for _, c := range p.excluded {
		all = append(all, c)
	}
	return all
}

// SendAll enqueues msg on every live communicator and returns the
// resulting connection-id to message-id map, per spec §4.D. onSent, if
// non-nil, is invoked once per connection on that connection's write
// completion.
func (p *Pool) SendAll(msg protocol.Message, onSent func()) map[protocol.ConnID]protocol.MsgID {
	results := make(map[protocol.ConnID]protocol.MsgID)
	for _, c := range p.snapshot() {
		id, err := c.SendWithCallback(msg, onSent)
		if err != nil {
			continue
		}
		results[c.ID()] = id
	}
	return results
}

// DisconnectAll iterates both sets and disconnects every communicator.
// Disconnect is itself no-throw and idempotent, so this never blocks on a
// single bad connection.
func (p *Pool) DisconnectAll() {
	for _, c := range p.snapshot() {
		c.Disconnect()
	}
}

// Connections enumerates the ids of every communicator currently held by
// the pool, across both sets. This resolves the connections() open
// question: the runtime does implement connection enumeration rather than
// leaving it unavailable.
func (p *Pool) Connections() []protocol.ConnID {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]protocol.ConnID, 0, len(p.primary)+len(p.excluded))
	for id := range p.primary {
		ids = append(ids, id)
	}
	for id := range p.excluded {
		ids = append(ids, id)
	}
	return ids
}

// Len reports the total number of communicators held, in either set.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.primary) + len(p.excluded)
}
