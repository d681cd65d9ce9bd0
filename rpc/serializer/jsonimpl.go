package serializer

import (
	"encoding/json"

	"github.com/ValentinKolb/dReact/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(dst []byte, msg *common.Message) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return dst, err
	}
	return append(dst, b...), nil
}

func (j jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	// json leaves absent fields untouched
	msg.Reset()
	return json.Unmarshal(b, msg)
}
