package agent_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/cmds/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoCmd_Exec(t *testing.T) {
	for name, addr := range map[string]string{"memory": "", "http": "127.0.0.1:0"} {
		addr := addr
		t.Run(name, func(t *testing.T) {
			c := agent.DemoCmd{
				Addr:    addr,
				Message: "Hello Alice",
				Reply:   "Hello Bob",
				Timeout: 5 * time.Second,
			}
			require.NoError(t, c.Validate())

			var out bytes.Buffer
			r, err := c.Exec(&out)
			require.NoError(t, err)
			assert.Equal(t, agent.DemoResult{
				Alice:    psm.Active.String(),
				Bob:      psm.Active.String(),
				Received: "Hello Alice",
				Replied:  "Hello Bob",
			}, r)
			assert.Contains(t, out.String(), "alice received: Hello Alice")
			assert.Contains(t, out.String(), "bob received: Hello Bob")
		})
	}
}

func TestDemoCmd_Validate(t *testing.T) {
	assert.Error(t, agent.DemoCmd{Reply: "Hello Bob"}.Validate())
	assert.Error(t, agent.DemoCmd{Message: "Hello Alice"}.Validate())
}
