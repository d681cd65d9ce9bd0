package serializer

import (
	"bytes"
	"encoding/gob"

	"github.com/ValentinKolb/dReact/rpc/common"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format
func NewGOBSerializer() IRPCSerializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the IRPCSerializer interface using gob encoding.
// Every payload is self-describing (a fresh encoder per message) since frames
// are decoded independently of each other.
type gobSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) Serialize(dst []byte, msg *common.Message) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	enc := gob.NewEncoder(buf)
	if err := enc.Encode(msg); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	// gob skips zero values on the wire, so absent fields must be cleared first
	msg.Reset()
	dec := gob.NewDecoder(bytes.NewReader(b))
	return dec.Decode(msg)
}
