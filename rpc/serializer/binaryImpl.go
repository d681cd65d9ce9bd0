package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dReact/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: MsgType (1 byte) | flags (1 byte) | present fields in flag order,
// every field encoded as uint32 length (big endian) followed by its bytes.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasUser    byte = 1 << 0
	hasText    byte = 1 << 1
	hasCommand byte = 1 << 2
	hasOutput  byte = 1 << 3
	hasErr     byte = 1 << 4

	knownFlags = hasUser | hasText | hasCommand | hasOutput | hasErr
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(dst []byte, msg *common.Message) ([]byte, error) {
	// Grow once so the field writes below never reallocate
	start := len(dst)
	need := b.sizeBytes(msg)
	if cap(dst)-start < need {
		grown := make([]byte, start, start+need)
		copy(grown, dst)
		dst = grown
	}

	// Message type and a placeholder for the flags
	dst = append(dst, byte(msg.MsgType), 0)

	var flags byte = 0

	if msg.User != "" {
		flags |= hasUser
		dst = appendString(dst, msg.User)
	}
	if msg.Text != "" {
		flags |= hasText
		dst = appendString(dst, msg.Text)
	}
	if msg.Command != "" {
		flags |= hasCommand
		dst = appendString(dst, msg.Command)
	}
	if msg.Output != nil {
		flags |= hasOutput
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(msg.Output)))
		dst = append(dst, msg.Output...)
	}
	if msg.Err != "" {
		flags |= hasErr
		dst = appendString(dst, msg.Err)
	}

	// Set flags byte after knowing which fields are present
	dst[start+1] = flags

	return dst, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type
	msg.MsgType = common.MessageType(data[0])

	// Read flags
	flags := data[1]
	if flags&^knownFlags != 0 {
		return fmt.Errorf("unknown flags 0x%02x", flags&^knownFlags)
	}

	// Initialize read position
	pos := 2
	var err error

	if msg.User, pos, err = readString(data, pos, flags&hasUser != 0, "user"); err != nil {
		return err
	}
	if msg.Text, pos, err = readString(data, pos, flags&hasText != 0, "text"); err != nil {
		return err
	}
	if msg.Command, pos, err = readString(data, pos, flags&hasCommand != 0, "command"); err != nil {
		return err
	}

	// Read Output if present
	if flags&hasOutput != 0 {
		var field []byte
		if field, pos, err = readField(data, pos, "output"); err != nil {
			return err
		}

		// Create an empty slice (not nil) if length is 0, allocate only if needed
		if msg.Output == nil || cap(msg.Output) < len(field) {
			msg.Output = make([]byte, len(field))
		} else {
			msg.Output = msg.Output[:len(field)]
		}
		copy(msg.Output, field)
	} else {
		msg.Output = nil
	}

	if msg.Err, pos, err = readString(data, pos, flags&hasErr != 0, "error"); err != nil {
		return err
	}

	if pos != len(data) {
		return fmt.Errorf("%d trailing bytes after message", len(data)-pos)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg *common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	// Add sizes for fields that require length encoding (4 bytes for length + data)
	if msg.User != "" {
		size += 4 + len(msg.User)
	}
	if msg.Text != "" {
		size += 4 + len(msg.Text)
	}
	if msg.Command != "" {
		size += 4 + len(msg.Command)
	}
	if msg.Output != nil {
		size += 4 + len(msg.Output)
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}

	return size
}

// appendString appends a length prefixed string
func appendString(dst []byte, s string) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(s)))
	return append(dst, s...)
}

// readField reads a length prefixed field starting at pos. The returned slice aliases data
func readField(data []byte, pos int, name string) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s length", name)
	}

	fieldLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4

	if fieldLen < 0 || fieldLen > len(data)-pos {
		return nil, pos, fmt.Errorf("data too short for %s data", name)
	}

	return data[pos : pos+fieldLen], pos + fieldLen, nil
}

// readString reads an optional length prefixed string. Absent fields yield ""
func readString(data []byte, pos int, present bool, name string) (string, int, error) {
	if !present {
		return "", pos, nil
	}
	field, pos, err := readField(data, pos, name)
	if err != nil {
		return "", pos, err
	}
	return string(field), pos, nil
}
