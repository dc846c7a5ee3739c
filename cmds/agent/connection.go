package agent

import (
	"encoding/json"
	"io"

	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/cmds"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ConnectionsCmd lists the connections of the wallet. With Remove the
// connections are removed after listing.
type ConnectionsCmd struct {
	cmds.Cmd
	Remove bool
}

type Connection struct {
	ID          string `json:"id"`
	State       string `json:"state"`
	MyDID       string `json:"my_did,omitempty"`
	TheirDID    string `json:"their_did,omitempty"`
	TheirLabel  string `json:"their_label,omitempty"`
	TheirVerkey string `json:"their_verkey,omitempty"`
}

type ConnectionsResult struct {
	Connections []Connection `json:"connections"`
	Removed     bool         `json:"removed,omitempty"`
}

func (r ConnectionsResult) JSON() ([]byte, error) {
	return json.Marshal(r)
}

func (c ConnectionsCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "connections of %s", c.WalletName)

	wallet := try.To1(c.OpenWallet(ssi.NativeBackend{}))
	defer func() {
		if err := wallet.Close(); err != nil {
			glog.Warningln("close wallet:", err)
		}
	}()

	res := ConnectionsResult{Connections: make([]Connection, 0)}
	for _, conn := range wallet.Connections() {
		res.Connections = append(res.Connections, Connection{
			ID:          conn.ID,
			State:       conn.State().String(),
			MyDID:       conn.MyDID.Qualified(),
			TheirDID:    conn.TheirDID.Qualified(),
			TheirLabel:  conn.TheirLabel,
			TheirVerkey: conn.TheirVerkey(),
		})
		cmds.Fprintf(w, "%s\t%-9s\t%s\n", conn.ID, conn.State(), conn.TheirLabel)
	}
	if c.Remove {
		try.To(wallet.RemoveConnections())
		res.Removed = true
		cmds.Fprintf(w, "removed %d connections\n", len(res.Connections))
	}
	return res, nil
}
