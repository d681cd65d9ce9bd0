package server

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ValentinKolb/dReact/lib/shell"
	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/transport"
)

// NewExecServerAdapter creates the adapter of the command execution service.
// Output is streamed in frames of config.ChunkSize bytes, which must be positive and,
// once encoded with codec, fit into the encode workspace. metrics may be nil
func NewExecServerAdapter(config common.ServerConfig, executor shell.IExecutor, codec transport.ICodec, metrics *Metrics) (IRPCServerAdapter, error) {
	if config.ChunkSize <= 0 {
		return nil, fmt.Errorf("exec adapter: chunk size must be positive, got %d", config.ChunkSize)
	}
	if executor == nil {
		return nil, fmt.Errorf("exec adapter: executor is nil")
	}
	if err := checkChunkFits(config, codec); err != nil {
		return nil, err
	}
	return &execServerAdapterImpl{
		config:   config,
		executor: executor,
		metrics:  metrics,
		chunker:  chunker{size: config.ChunkSize},
	}, nil
}

// execServerAdapterImpl only runs on the reactor goroutine, so it needs no locking
type execServerAdapterImpl struct {
	config   common.ServerConfig
	executor shell.IExecutor
	metrics  *Metrics
	chunker  chunker

	// out is reused for the terminal frame
	out common.Message
}

// --------------------------------------------------------------------------
// Interface Methods (docu see server.IRPCServerAdapter)
// --------------------------------------------------------------------------

func (a *execServerAdapterImpl) Name() string {
	return "exec"
}

func (a *execServerAdapterImpl) Routes() Routes {
	var routes Routes
	routes[common.MsgTExecCommand] = a.handleCommand
	return routes
}

func (a *execServerAdapterImpl) OnConnected(r transport.IReactor, slot transport.SlotID) {
	Logger.Infof("[%s] Client connected in slot %d (%d/%d)", a.config.Name, slot, r.Occupied(), r.Capacity())
}

func (a *execServerAdapterImpl) OnDisconnected(r transport.IReactor, slot transport.SlotID) {
	Logger.Infof("[%s] Client of slot %d disconnected (%d/%d)", a.config.Name, slot, r.Occupied(), r.Capacity())
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

// handleCommand runs the command, streams its output and ends with exactly one terminal frame.
// The executor blocks the reactor until the command returns
func (a *execServerAdapterImpl) handleCommand(r transport.IReactor, slot transport.SlotID, req *common.Message) error {
	Logger.Infof("[%s] Executing command of slot %d: %s", a.config.Name, slot, req.Command)

	status, output, err := a.executor.Execute(req.Command)

	reason := ""
	switch {
	case err != nil:
		reason = err.Error()
	case status != 0:
		reason = fmt.Sprintf("command exited with status %d", status)
	}

	frames, err := a.chunker.send(r, slot, output)
	if err != nil {
		if errors.Is(err, common.ErrSlotClosed) {
			// no one is left to receive the terminal frame
			a.metrics.Command(true)
			return err
		}
		Logger.Errorf("[%s] Failed to send output frame %d of %q: %v", a.config.Name, frames+1, req.Command, err)
		reason = fmt.Sprintf("failed to send output: %v", err)
	}

	a.metrics.Command(reason != "")
	Logger.Debugf("[%s] Command of slot %d produced %d bytes in %d frames", a.config.Name, slot, len(output), frames)

	return a.sendTerminal(r, slot, reason)
}

// sendTerminal writes Ok if reason is empty, Error{reason} otherwise. A reason that does not
// fit the encode workspace is shortened until it does
func (a *execServerAdapterImpl) sendTerminal(r transport.IReactor, slot transport.SlotID, reason string) error {
	if reason == "" {
		a.out.Reset()
		a.out.MsgType = common.MsgTOk
		return r.Reply(slot, &a.out)
	}

	reason = truncate(reason, a.config.MessageSize)
	for {
		a.out.Reset()
		a.out.MsgType = common.MsgTError
		a.out.Err = reason

		err := r.Reply(slot, &a.out)
		if !errors.Is(err, common.ErrFrameTooLarge) || reason == "" {
			return err
		}
		reason = truncate(reason, len(reason)/2)
	}
}

// checkChunkFits encodes one output frame of a full chunk and fails if it exceeds the workspace
func checkChunkFits(config common.ServerConfig, codec transport.ICodec) error {
	if codec == nil {
		return fmt.Errorf("exec adapter: codec is nil")
	}
	frame, err := codec.Encode(make([]byte, 0, config.WorkspaceOutSize), common.NewExecOutputResponse(make([]byte, config.ChunkSize)))
	if err != nil {
		return fmt.Errorf("exec adapter: failed to encode output frame: %w", err)
	}
	if len(frame) > config.WorkspaceOutSize {
		return fmt.Errorf("exec adapter: output frame of %d bytes for chunk size %d: %w (%d bytes)",
			len(frame), config.ChunkSize, common.ErrFrameTooLarge, config.WorkspaceOutSize)
	}
	return nil
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
