/*
Package connection has the commands which run a protocol over an existing
connection of the wallet: trust ping and basic message.
*/
package connection

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/findy-network/findy-exchange/agent/acapy"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/cmds"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Cmd is the connection of the wallet. The wallet's endpoint is served at
// Addr during the command so the responses can be received. Host is the
// public base URL of Addr, by default http://Addr. When AdminURL
// is set the wallet is served by the ACA-Py agent of the admin API.
type Cmd struct {
	cmds.Cmd
	ID      string
	Host    string
	Addr    string
	Timeout time.Duration

	AdminURL string
	APIKey   string
}

func (c Cmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	switch {
	case c.ID == "":
		return errors.New("connection id cannot be empty")
	case c.Addr == "" && c.AdminURL == "":
		return errors.New("listen address cannot be empty")
	}
	return nil
}

type Result struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Info  string `json:"info,omitempty"`
}

func (r Result) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// run opens the wallet, serves it and calls f with the connection's exchange.
func (c Cmd) run(
	w io.Writer,
	f func(ctx context.Context, a *cmds.Agent, x *mex.Exchange, conn *psm.Connection) (info string, err error),
) (
	r cmds.Result,
	err error,
) {
	defer err2.Handle(&err, "connection %s", c.ID)

	a := cmds.NewAgent(c.Host)
	if c.AdminURL == "" {
		try.To(a.Start(c.Addr, false))
		defer func() {
			_ = a.Close(context.Background())
		}()
	}
	wallet := try.To1(c.OpenWallet(c.backend(a)))
	defer func() {
		if err := wallet.Close(); err != nil {
			glog.Warningln("close wallet:", err)
		}
	}()
	conn := try.To1(wallet.GetConnection(c.ID))
	if c.AdminURL == "" {
		a.Mount(wallet)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout())
	defer cancel()
	x := a.Svc.ExchangeFor(wallet, conn)
	info := try.To1(f(ctx, a, x, conn))

	cmds.Fprintf(w, "%s: %s %s\n", conn.ID, conn.State(), info)
	return Result{ID: conn.ID, State: conn.State().String(), Info: info}, nil
}

func (c Cmd) backend(a *cmds.Agent) ssi.AgentBackend {
	if c.AdminURL != "" {
		return &acapy.Backend{
			AdminURL: c.AdminURL,
			APIKey:   c.APIKey,
			Client:   &http.Client{},
		}
	}
	return ssi.NativeBackend{URL: a.Endpoint(c.WalletName)}
}

func (c Cmd) timeout() time.Duration {
	if c.Timeout == 0 {
		return time.Minute
	}
	return c.Timeout
}
