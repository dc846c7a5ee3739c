package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/cmds"
	"github.com/findy-network/findy-exchange/protocol/outofband"
	std "github.com/findy-network/findy-exchange/std/outofband"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// InvitationCmd creates an out-of-band invitation of the wallet. The wallet
// must be served at the Host with the serve command to accept the requests.
type InvitationCmd struct {
	cmds.Cmd
	Host    string
	Label   string
	BaseURL string // URL form base, empty prints the JSON
}

func (c InvitationCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.Host == "" {
		return errors.New("host URL cannot be empty")
	}
	return nil
}

type InvitationResult struct {
	Invitation *std.Invitation `json:"invitation"`
	URL        string          `json:"url,omitempty"`
}

func (r InvitationResult) JSON() ([]byte, error) {
	return json.Marshal(r)
}

func (c InvitationCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "invitation")

	a := cmds.NewAgent(c.Host)
	wallet := try.To1(c.OpenWallet(ssi.NativeBackend{URL: a.Endpoint(c.WalletName)}))
	defer func() {
		if err := wallet.Close(); err != nil {
			glog.Warningln("close wallet:", err)
		}
	}()

	oob := try.To1(prot.With(a.Svc, a.Svc.NewExchange(), outofband.Key))
	try.To1(oob.CreateInvitation(context.Background(), wallet, c.Label))
	inv := try.To1(oob.Invitation())

	res := InvitationResult{Invitation: inv}
	if c.BaseURL != "" {
		res.URL = try.To1(inv.URL(c.BaseURL))
		cmds.Fprintln(w, res.URL)
	} else {
		cmds.Fprintln(w, string(try.To1(json.Marshal(inv))))
	}
	return res, nil
}
