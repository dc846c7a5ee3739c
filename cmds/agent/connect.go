package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/findy-network/findy-exchange/agent/handshake"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/cmds"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ConnectCmd connects the wallet to the inviter of the invitation. The
// wallet's endpoint is served at Addr during the command. Host is the public
// base URL of Addr, by default http://Addr.
type ConnectCmd struct {
	cmds.Cmd
	Host       string
	Addr       string
	Invitation string
	Timeout    time.Duration
}

func (c ConnectCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	switch {
	case c.Addr == "":
		return errors.New("listen address cannot be empty")
	case c.Invitation == "":
		return errors.New("invitation cannot be empty")
	}
	return nil
}

type ConnectResult struct {
	ID         string `json:"id"`
	State      string `json:"state"`
	MyDID      string `json:"my_did"`
	TheirDID   string `json:"their_did"`
	TheirLabel string `json:"their_label"`
}

func (r ConnectResult) JSON() ([]byte, error) {
	return json.Marshal(r)
}

func (c ConnectCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "connect")

	a := cmds.NewAgent(c.Host)
	try.To(a.Start(c.Addr, false))
	defer func() {
		_ = a.Close(context.Background())
	}()
	wallet := try.To1(c.OpenWallet(ssi.NativeBackend{URL: a.Endpoint(c.WalletName)}))
	defer func() {
		if err := wallet.Close(); err != nil {
			glog.Warningln("close wallet:", err)
		}
	}()
	a.Mount(wallet)

	done := cmds.Progress(w)
	res, err := handshake.Accept(context.Background(), a.Svc, wallet, c.Invitation, c.Timeout)
	close(done)
	cmds.Fprintln(w)
	try.To(err)

	conn := res.Invitee
	cmds.Fprintf(w, "connected to %s: %s\n", conn.TheirLabel, conn.ID)
	return ConnectResult{
		ID:         conn.ID,
		State:      conn.State().String(),
		MyDID:      conn.MyDID.Qualified(),
		TheirDID:   conn.TheirDID.Qualified(),
		TheirLabel: conn.TheirLabel,
	}, nil
}
