package server

import (
	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/transport"
)

// chunker splits a result buffer into output frames of at most size bytes
type chunker struct {
	size int
	out  common.Message
}

// send writes ceil(len(data)/size) output frames to slot, in order. Empty data sends nothing.
// It returns the number of frames written and stops at the first failed frame
func (c *chunker) send(r transport.IReactor, slot transport.SlotID, data []byte) (int, error) {
	frames := 0
	for start := 0; start < len(data); start += c.size {
		end := start + c.size
		if end > len(data) {
			end = len(data)
		}

		c.out.Reset()
		c.out.MsgType = common.MsgTExecOutput
		c.out.Output = data[start:end]

		if err := r.Reply(slot, &c.out); err != nil {
			return frames, err
		}
		frames++
	}
	return frames, nil
}
