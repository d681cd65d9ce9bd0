package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dReact/rpc/common"
)

// HeaderSize is the size of the length prefix of every frame
const HeaderSize = 4

// FrameCodec turns messages into length prefixed frames and back.
//
// Wire format: payload length (uint32, big endian) | payload (IRPCSerializer output).
// The codec holds no per-call state and is safe for concurrent use.
type FrameCodec struct {
	s        IRPCSerializer
	maxFrame int
}

// NewFrameCodec creates a codec using the given payload serializer. Frames whose
// declared size (header included) exceeds maxFrame are rejected as malformed by Decode.
func NewFrameCodec(s IRPCSerializer, maxFrame int) *FrameCodec {
	return &FrameCodec{s: s, maxFrame: maxFrame}
}

// MaxFrame returns the largest frame size (header included) Decode accepts
func (c *FrameCodec) MaxFrame() int {
	return c.maxFrame
}

// Encode appends the frame for msg to dst and returns the extended slice
func (c *FrameCodec) Encode(dst []byte, msg *common.Message) ([]byte, error) {
	start := len(dst)
	dst = append(dst, 0, 0, 0, 0)

	out, err := c.s.Serialize(dst, msg)
	if err != nil {
		return dst[:start], fmt.Errorf("failed to serialize %s: %w", msg.MsgType, err)
	}

	binary.BigEndian.PutUint32(out[start:start+HeaderSize], uint32(len(out)-start-HeaderSize))
	return out, nil
}

// Decode decodes the first frame in src into msg.
//
// It returns the number of bytes the frame occupies and nil on success,
// common.ErrIncompleteFrame if src holds only a prefix of a frame, or an error
// wrapping common.ErrMalformedFrame if src can never become a valid frame.
func (c *FrameCodec) Decode(src []byte, msg *common.Message) (int, error) {
	if len(src) < HeaderSize {
		return 0, common.ErrIncompleteFrame
	}

	payloadLen := binary.BigEndian.Uint32(src[:HeaderSize])
	if payloadLen == 0 {
		return 0, fmt.Errorf("%w: empty payload", common.ErrMalformedFrame)
	}
	if uint64(payloadLen)+HeaderSize > uint64(c.maxFrame) {
		return 0, fmt.Errorf("%w: frame of %d bytes exceeds limit of %d bytes",
			common.ErrMalformedFrame, uint64(payloadLen)+HeaderSize, c.maxFrame)
	}

	frameLen := HeaderSize + int(payloadLen)
	if len(src) < frameLen {
		return 0, common.ErrIncompleteFrame
	}

	if err := c.s.Deserialize(src[HeaderSize:frameLen], msg); err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrMalformedFrame, err)
	}
	if !msg.MsgType.Valid() {
		return 0, fmt.Errorf("%w: invalid message type %d", common.ErrMalformedFrame, msg.MsgType)
	}

	return frameLen, nil
}
