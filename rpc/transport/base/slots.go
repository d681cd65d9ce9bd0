package base

import (
	"net"

	"github.com/ValentinKolb/dReact/rpc/transport"
)

// slot holds the state of one client position. Only the reactor goroutine touches it
type slot struct {
	conn     net.Conn
	buf      []byte // fixed window of the arena, len(buf) == InputBufferSize
	off      int    // number of buffered bytes not yet consumed by the decoder
	occupied bool

	// gen changes with every occupancy so events of an old connection are ignored
	gen uint64

	// resume hands the reader goroutine the number of bytes it may read next
	resume chan int
	// done is closed on teardown and releases the reader goroutine
	done chan struct{}
}

// free returns the number of bytes that can still be appended to the input buffer
func (s *slot) free() int {
	return len(s.buf) - s.off
}

// slotTable is a fixed array of slots whose input buffers are carved out of one arena
type slotTable struct {
	slots    []slot
	occupied int
}

// newSlotTable allocates n slots with bufSize bytes of input buffer each
func newSlotTable(n, bufSize int) *slotTable {
	arena := make([]byte, n*bufSize)
	slots := make([]slot, n)
	for i := range slots {
		// full slice expression so a slot can never grow into its neighbour
		slots[i].buf = arena[i*bufSize : (i+1)*bufSize : (i+1)*bufSize]
	}
	return &slotTable{slots: slots}
}

// acquire occupies the lowest free slot with conn. ok is false if all slots are taken
func (t *slotTable) acquire(conn net.Conn) (id transport.SlotID, ok bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.occupied {
			continue
		}
		s.conn = conn
		s.off = 0
		s.occupied = true
		s.gen++
		s.resume = make(chan int, 1)
		s.done = make(chan struct{})
		t.occupied++
		return transport.SlotID(i), true
	}
	return -1, false
}

// release frees the slot and closes its connection. It reports false if the slot was not occupied
func (t *slotTable) release(id transport.SlotID) bool {
	s := t.get(id)
	if s == nil || !s.occupied {
		return false
	}
	_ = s.conn.Close()
	close(s.done)
	s.conn = nil
	s.off = 0
	s.occupied = false
	s.gen++
	s.resume = nil
	s.done = nil
	t.occupied--
	return true
}

// get returns the slot for id or nil if id is out of range
func (t *slotTable) get(id transport.SlotID) *slot {
	if id < 0 || int(id) >= len(t.slots) {
		return nil
	}
	return &t.slots[id]
}

// live returns the slot for id if it is occupied by the connection generation gen
func (t *slotTable) live(id transport.SlotID, gen uint64) *slot {
	s := t.get(id)
	if s == nil || !s.occupied || s.gen != gen {
		return nil
	}
	return s
}
