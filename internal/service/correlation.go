package service

import "sync"

// CorrelationMap is a thread-safe bidirectional map between ticket ids
// and Discord thread ids. It is a cache over the persisted ticket rooms:
// a restart empties it, and thread-name parsing refills it lazily.
type CorrelationMap struct {
	mu           sync.Mutex
	ticketThread map[uint32]uint64
	threadTicket map[uint64]uint32
}

// NewCorrelationMap creates an empty correlation map.
func NewCorrelationMap() *CorrelationMap {
	return &CorrelationMap{
		ticketThread: make(map[uint32]uint64),
		threadTicket: make(map[uint64]uint32),
	}
}

// Put records a ticket<->thread pair, replacing any previous pair for
// either side.
func (c *CorrelationMap) Put(ticketID uint32, threadID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.ticketThread[ticketID]; ok {
		delete(c.threadTicket, old)
	}
	if old, ok := c.threadTicket[threadID]; ok {
		delete(c.ticketThread, old)
	}
	c.ticketThread[ticketID] = threadID
	c.threadTicket[threadID] = ticketID
}

// ThreadFor returns the thread correlated with a ticket.
func (c *CorrelationMap) ThreadFor(ticketID uint32) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	threadID, ok := c.ticketThread[ticketID]
	return threadID, ok
}

// TicketFor returns the ticket correlated with a thread.
func (c *CorrelationMap) TicketFor(threadID uint64) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ticketID, ok := c.threadTicket[threadID]
	return ticketID, ok
}

// Delete removes the pair for a ticket.
func (c *CorrelationMap) Delete(ticketID uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if threadID, ok := c.ticketThread[ticketID]; ok {
		delete(c.threadTicket, threadID)
		delete(c.ticketThread, ticketID)
	}
}
