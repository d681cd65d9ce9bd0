package server

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// InstanceStatus is a point in time view of a server instance
type InstanceStatus struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Address  string `json:"address,omitempty"`
	Running  bool   `json:"running"`
	Capacity int    `json:"capacity"`
	Occupied int    `json:"occupied"`
}

// Registry keeps track of the server instances of a process so their state can be
// reported (e.g. over HTTP) without touching the reactor goroutines
type Registry struct {
	servers *xsync.MapOf[string, *RPCServer]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{servers: xsync.NewMapOf[string, *RPCServer]()}
}

// Register adds a server under its configured name, replacing a previous one with the same name
func (r *Registry) Register(s *RPCServer) {
	r.servers.Store(s.config.Name, s)
}

// Unregister removes the server with the given name
func (r *Registry) Unregister(name string) {
	r.servers.Delete(name)
}

// Snapshot returns the status of all registered servers sorted by name
func (r *Registry) Snapshot() []InstanceStatus {
	result := make([]InstanceStatus, 0, r.servers.Size())
	r.servers.Range(func(_ string, s *RPCServer) bool {
		result = append(result, s.Status())
		return true
	})
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}
