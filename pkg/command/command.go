// Package command defines internal daemon commands.
package command

// InternalCommand represents a command type for internal daemon operations.
type InternalCommand int

// Internal commands emitted on the daemon's command channel.
const (
	// CmdUpdateDaemonState signals that the daemon state changed.
	CmdUpdateDaemonState InternalCommand = iota
	// CmdRemotesChanged signals that a remote was registered.
	CmdRemotesChanged
)

func (c InternalCommand) String() string {
	switch c {
	case CmdUpdateDaemonState:
		return "UpdateDaemonState"
	case CmdRemotesChanged:
		return "RemotesChanged"
	}
	return "Unknown"
}
