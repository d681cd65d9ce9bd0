package base

import (
	"net"
	"time"
)

// writeFull writes the complete frame to the connection. A timeout > 0 sets a write
// deadline first. net.Conn.Write only returns without error once every byte was written
func writeFull(conn net.Conn, frame []byte, timeout time.Duration) error {
	if timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	_, err := conn.Write(frame)
	return err
}

// noopMetrics is used when no metrics sink is configured
type noopMetrics struct{}

func (noopMetrics) Accepted()       {}
func (noopMetrics) Rejected()       {}
func (noopMetrics) Disconnected()   {}
func (noopMetrics) ProtocolError()  {}
func (noopMetrics) FrameIn()        {}
func (noopMetrics) FrameOut()       {}
func (noopMetrics) SetOccupied(int) {}
