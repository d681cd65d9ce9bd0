package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate = validator.New()

// --------------------------------------------------------------------------
// Shared transport configuration
// --------------------------------------------------------------------------

// SocketConf holds kernel socket buffer sizes (0 keeps the OS default)
type SocketConf struct {
	WriteBufferSize int `mapstructure:"write_buffer_size" validate:"min=0"`
	ReadBufferSize  int `mapstructure:"read_buffer_size" validate:"min=0"`
}

// TCPConf holds TCP specific connection options. They are ignored for unix sockets
type TCPConf struct {
	TCPNoDelay      bool `mapstructure:"tcp_nodelay"`
	TCPKeepAliveSec int  `mapstructure:"tcp_keepalive_sec" validate:"min=0"`
	// TCPLingerSec > 0 sets SO_LINGER, otherwise the OS default is kept
	TCPLingerSec int `mapstructure:"tcp_linger_sec" validate:"min=0"`
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds the configuration of one reactor server instance.
// All sizes are fixed at construction; the instance never resizes a buffer.
type ServerConfig struct {
	// Name identifies the instance in logs and metrics (e.g. "chat", "exec")
	Name string `mapstructure:"name" validate:"required"`

	// Endpoint is the listen address (e.g. ":6000" or "/tmp/chat.sock")
	Endpoint string `mapstructure:"endpoint" validate:"required"`

	// MaxClients is the number of slots. Connections beyond it are closed right away
	MaxClients int `mapstructure:"max_clients" validate:"min=1,max=65536"`

	// InputBufferSize is the size of every slot's private input buffer
	InputBufferSize int `mapstructure:"input_buffer_size" validate:"min=8"`

	// MessageSize bounds the payload of a single outbound message
	MessageSize int `mapstructure:"message_size" validate:"min=1"`

	// WorkspaceInSize is the largest frame (header included) the decoder accepts
	WorkspaceInSize int `mapstructure:"workspace_in_size" validate:"min=8,ltefield=InputBufferSize"`

	// WorkspaceOutSize is the size of the shared encode workspace
	WorkspaceOutSize int `mapstructure:"workspace_out_size" validate:"min=8,gtefield=MessageSize"`

	// ChunkSize is the payload size of output frames. 0 disables chunked responses
	ChunkSize int `mapstructure:"chunk_size" validate:"min=0,ltfield=MessageSize"`

	// WriteTimeoutSecond bounds a single frame write. 0 means no deadline
	WriteTimeoutSecond int64 `mapstructure:"write_timeout_second" validate:"min=0"`

	SocketConf `mapstructure:",squash"`
	TCPConf    `mapstructure:",squash"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// WriteTimeout returns the write deadline duration (0 if disabled)
func (c *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSecond) * time.Second
}

// Validate checks the configuration using struct tags
func (c *ServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Instance settings
	addSection(fmt.Sprintf("Reactor Server (%s)", c.Name))
	addField("Endpoint", c.Endpoint)
	addField("Max Clients", strconv.Itoa(c.MaxClients))
	addField("Write Timeout", fmt.Sprintf("%d sec", c.WriteTimeoutSecond))

	// Buffers
	addSection("Buffers")
	addField("Input Buffer (slot)", fmt.Sprintf("%d bytes", c.InputBufferSize))
	addField("Message", fmt.Sprintf("%d bytes", c.MessageSize))
	addField("Workspace In", fmt.Sprintf("%d bytes", c.WorkspaceInSize))
	addField("Workspace Out", fmt.Sprintf("%d bytes", c.WorkspaceOutSize))
	if c.ChunkSize > 0 {
		addField("Chunk Size", fmt.Sprintf("%d bytes", c.ChunkSize))
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the configuration of a chat or exec client
type ClientConfig struct {
	Endpoint      string `validate:"required"`
	TimeoutSecond int    `validate:"min=0"`
	// MaxFrameSize bounds a single received frame (header included)
	MaxFrameSize int `validate:"min=8"`

	SocketConf
	TCPConf
}

// Timeout returns the client timeout duration (0 if disabled)
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// Validate checks the configuration using struct tags
func (c *ClientConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Max Frame Size", fmt.Sprintf("%d bytes", c.MaxFrameSize))

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		if e.Param() != "" {
			return fmt.Errorf("%s: validation failed on '%s=%s' (value: %v)",
				e.Namespace(), e.Tag(), e.Param(), e.Value())
		}
		return fmt.Errorf("%s: validation failed on '%s' (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return fmt.Errorf("validation error: %w", err)
}
