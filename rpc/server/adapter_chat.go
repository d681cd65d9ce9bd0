package server

import (
	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/transport"
)

// NewChatServerAdapter creates the adapter of the broadcast chat service.
// metrics may be nil
func NewChatServerAdapter(config common.ServerConfig, metrics *Metrics) IRPCServerAdapter {
	return &chatServerAdapterImpl{
		config:  config,
		metrics: metrics,
		users:   make([]string, config.MaxClients),
	}
}

// chatServerAdapterImpl only runs on the reactor goroutine, so it needs no locking
type chatServerAdapterImpl struct {
	config  common.ServerConfig
	metrics *Metrics

	// users holds the display name of every slot ("" until connect)
	users     []string
	connected int

	// out is reused for every outgoing frame
	out common.Message
}

// --------------------------------------------------------------------------
// Interface Methods (docu see server.IRPCServerAdapter)
// --------------------------------------------------------------------------

func (a *chatServerAdapterImpl) Name() string {
	return "chat"
}

func (a *chatServerAdapterImpl) Routes() Routes {
	var routes Routes
	routes[common.MsgTChatConnect] = a.handleConnect
	routes[common.MsgTChatMessage] = a.handleMessage
	return routes
}

func (a *chatServerAdapterImpl) OnConnected(r transport.IReactor, slot transport.SlotID) {
	a.users[slot] = ""
	a.connected++
	Logger.Infof("[%s] Number of connected clients: %d", a.config.Name, a.connected)
}

func (a *chatServerAdapterImpl) OnDisconnected(r transport.IReactor, slot transport.SlotID) {
	if a.users[slot] != "" {
		Logger.Infof("[%s] %s left the chat", a.config.Name, a.users[slot])
	}
	a.users[slot] = ""
	a.connected--
	Logger.Infof("[%s] Number of connected clients: %d", a.config.Name, a.connected)
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

// handleConnect associates the display name with the slot and acknowledges with exactly one frame
func (a *chatServerAdapterImpl) handleConnect(r transport.IReactor, slot transport.SlotID, req *common.Message) error {
	a.users[slot] = req.User
	Logger.Infof("[%s] %s joined the chat in slot %d", a.config.Name, req.User, slot)

	a.out.Reset()
	a.out.MsgType = common.MsgTChatConnected
	return r.Reply(slot, &a.out)
}

// handleMessage fans the message out to every connected client, the sender included.
// The sender gets no other reply
func (a *chatServerAdapterImpl) handleMessage(r transport.IReactor, slot transport.SlotID, req *common.Message) error {
	if len(req.Text) > a.config.MessageSize {
		Logger.Warningf("[%s] Dropping message of slot %d: %d bytes exceed the message size of %d bytes",
			a.config.Name, slot, len(req.Text), a.config.MessageSize)
		return nil
	}

	// the name announced on connect wins over the name in the message
	user := a.users[slot]
	if user == "" {
		user = req.User
	}

	a.out.Reset()
	a.out.MsgType = common.MsgTChatMessage
	a.out.User = user
	a.out.Text = req.Text

	a.metrics.Broadcast()
	delivered, err := r.Broadcast(&a.out)
	if err != nil {
		return err
	}
	Logger.Debugf("[%s] Message of %s delivered to %d clients", a.config.Name, user, delivered)
	return nil
}
