package serializer

import "github.com/ValentinKolb/dReact/rpc/common"

// IRPCSerializer is the interface for all Message Serializers
type IRPCSerializer interface {
	// Serialize appends the serialized form of msg to dst and returns the extended slice.
	// Passing a slice with enough spare capacity avoids any allocation
	Serialize(dst []byte, msg *common.Message) ([]byte, error)
	// Deserialize deserializes a byte array into a Message
	// It takes a byte array and a pointer to a Message as parameters.
	// All fields of msg are overwritten, the capacity of msg.Output is reused if possible.
	// It returns an error if any
	Deserialize(b []byte, msg *common.Message) error
}
