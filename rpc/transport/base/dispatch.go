package base

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/transport"
)

// --------------------------------------------------------------------------
// Protocol Dispatcher
// --------------------------------------------------------------------------

// dispatch decodes every complete frame in the input buffer of a slot and invokes
// the request handler for each. It stops when the buffer holds no complete frame
// or the slot was torn down by a handler
func (t *serverTransport) dispatch(id transport.SlotID) {
	s := t.slots.get(id)
	gen := s.gen

	for s.occupied && s.gen == gen && s.off > 0 {
		n, err := t.codec.Decode(s.buf[:s.off], &t.request)
		if errors.Is(err, common.ErrIncompleteFrame) {
			return
		}
		if err != nil {
			Logger.Warningf("[%s] Closing slot %d: %v", t.config.Name, id, err)
			t.metrics.ProtocolError()
			t.teardown(id)
			return
		}

		// shift the remainder to the start of the buffer before the handler runs
		s.off = copy(s.buf, s.buf[n:s.off])
		t.metrics.FrameIn()

		if t.handlers.OnRequest == nil {
			continue
		}
		if err := t.handlers.OnRequest(t, id, &t.request); err != nil {
			switch {
			case errors.Is(err, common.ErrUnsupportedRequest):
				Logger.Warningf("[%s] Closing slot %d: %v", t.config.Name, id, err)
				t.metrics.ProtocolError()
				t.teardown(id)
				return
			case errors.Is(err, common.ErrSlotClosed):
				// already torn down, the loop condition ends the dispatch
			default:
				Logger.Errorf("[%s] Handler for %s on slot %d failed: %v", t.config.Name, t.request.MsgType, id, err)
			}
		}
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IReactor)
// --------------------------------------------------------------------------

func (t *serverTransport) Reply(id transport.SlotID, msg *common.Message) error {
	s := t.slots.get(id)
	if s == nil || !s.occupied {
		return fmt.Errorf("reply to slot %d: %w", id, common.ErrSlotClosed)
	}

	frame, err := t.encode(msg)
	if err != nil {
		return err
	}

	return t.write(id, s, frame)
}

func (t *serverTransport) Broadcast(msg *common.Message) (int, error) {
	frame, err := t.encode(msg)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for i := range t.slots.slots {
		s := &t.slots.slots[i]
		if !s.occupied {
			continue
		}
		// a failed recipient is torn down by write, delivery continues
		if err := t.write(transport.SlotID(i), s, frame); err == nil {
			delivered++
		}
	}
	return delivered, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// encode writes the frame for msg into the encode workspace
func (t *serverTransport) encode(msg *common.Message) ([]byte, error) {
	frame, err := t.codec.Encode(t.workspaceOut[:0], msg)
	if err != nil {
		return nil, err
	}
	if len(frame) > cap(t.workspaceOut) {
		return nil, fmt.Errorf("%s frame of %d bytes: %w (%d bytes)",
			msg.MsgType, len(frame), common.ErrFrameTooLarge, cap(t.workspaceOut))
	}
	return frame, nil
}

// write sends a frame to an occupied slot. Any failure is local to the slot and tears it down
func (t *serverTransport) write(id transport.SlotID, s *slot, frame []byte) error {
	if err := writeFull(s.conn, frame, t.config.WriteTimeout()); err != nil {
		Logger.Warningf("[%s] Write to slot %d failed: %v", t.config.Name, id, err)
		t.teardown(id)
		return fmt.Errorf("write to slot %d: %w: %v", id, common.ErrSlotClosed, err)
	}
	t.metrics.FrameOut()
	return nil
}
