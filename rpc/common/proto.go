package common

import (
	"encoding/json"
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single frame payload used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Chat fields
	User string `json:"user,omitempty"` // Used for: ChatConnect, ChatMessage
	Text string `json:"text,omitempty"` // Used for: ChatMessage

	// Exec fields
	Command string `json:"command,omitempty"` // Used for: ExecCommand (request)
	Output  []byte `json:"output,omitempty"`  // Used for: ExecOutput (response)

	// Response only fields
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error reason
}

// Reset clears all fields but keeps the capacity of Output so the message can be reused
func (m *Message) Reset() {
	m.MsgType = MsgTUnknown
	m.User = ""
	m.Text = ""
	m.Command = ""
	m.Output = m.Output[:0]
	m.Err = ""
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewChatConnectRequest creates a new chat connect request
func NewChatConnectRequest(user string) *Message {
	return &Message{
		MsgType: MsgTChatConnect,
		User:    user,
	}
}

// NewChatConnectedResponse creates the acknowledgement for a chat connect request
func NewChatConnectedResponse() *Message {
	return &Message{
		MsgType: MsgTChatConnected,
	}
}

// NewChatMessage creates a new chat message indication
func NewChatMessage(user, text string) *Message {
	return &Message{
		MsgType: MsgTChatMessage,
		User:    user,
		Text:    text,
	}
}

// NewExecCommandRequest creates a new command execution request
func NewExecCommandRequest(command string) *Message {
	return &Message{
		MsgType: MsgTExecCommand,
		Command: command,
	}
}

// NewExecOutputResponse creates a new output frame carrying a chunk of command output
func NewExecOutputResponse(output []byte) *Message {
	return &Message{
		MsgType: MsgTExecOutput,
		Output:  output,
	}
}

// NewOkResponse creates a new Ok terminal response
func NewOkResponse() *Message {
	return &Message{
		MsgType: MsgTOk,
	}
}

// NewErrorResponse creates a new Error terminal response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// IsTerminal reports whether the message ends a command execution exchange
func (m *Message) IsTerminal() bool {
	return m.MsgType == MsgTOk || m.MsgType == MsgTError
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrIncompleteFrame is returned by a codec when more bytes are needed to decode a frame
	ErrIncompleteFrame = errors.New("incomplete frame")
	// ErrMalformedFrame is returned (wrapped) by a codec when the bytes can never form a valid frame
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrFrameTooLarge is returned when an encoded frame does not fit into the encode workspace
	ErrFrameTooLarge = errors.New("frame exceeds workspace")
	// ErrSlotClosed is returned when writing to a slot that is not occupied (anymore)
	ErrSlotClosed = errors.New("slot closed")
	// ErrUnsupportedRequest is returned when no handler is registered for a request kind
	ErrUnsupportedRequest = errors.New("unsupported request")
)

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTOk:
		return "ok"
	case MsgTError:
		return "error"
	case MsgTChatConnect:
		return "chatConnect"
	case MsgTChatConnected:
		return "chatConnected"
	case MsgTChatMessage:
		return "chatMessage"
	case MsgTExecCommand:
		return "execCommand"
	case MsgTExecOutput:
		return "execOutput"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the known message types (MsgTUnknown excluded)
func (t MessageType) Valid() bool {
	return t > MsgTUnknown && t < MsgTCount
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "ok":
		*t = MsgTOk
	case "error":
		*t = MsgTError
	case "chatConnect":
		*t = MsgTChatConnect
	case "chatConnected":
		*t = MsgTChatConnected
	case "chatMessage":
		*t = MsgTChatMessage
	case "execCommand":
		*t = MsgTExecCommand
	case "execOutput":
		*t = MsgTExecOutput
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTOk                  // Terminal frame: operation completed
	MsgTError               // Terminal frame: operation failed, Err holds the reason

	// Chat operations

	MsgTChatConnect   // Client announces its display name
	MsgTChatConnected // Acknowledgement of ChatConnect
	MsgTChatMessage   // Message indication, broadcast to all clients

	// Exec operations

	MsgTExecCommand // Execute a command string
	MsgTExecOutput  // One chunk of command output

	// MsgTCount is the number of message types, used to size dispatch tables
	MsgTCount
)
