package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalCommandString(t *testing.T) {
	assert.Equal(t, "UpdateDaemonState", CmdUpdateDaemonState.String())
	assert.Equal(t, "RemotesChanged", CmdRemotesChanged.String())
	assert.Equal(t, "Unknown", InternalCommand(42).String())
}
