/*
Package agent has the commands of the agent process itself: serving the
wallets' endpoints, creating invitations, connecting with an invitation and
running the in process demo.
*/
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/cmds"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ServeCmd serves the wallets until the process is signaled. Requests to
// the wallets' invitations are accepted automatically when AutoAccept is set.
type ServeCmd struct {
	Wallets    []string
	DBDir      string
	DBKey      string
	Addr       string
	Host       string
	AutoAccept bool
}

func (c ServeCmd) Validate() error {
	if len(c.Wallets) == 0 {
		return errors.New("at least one wallet is needed")
	}
	for _, name := range c.Wallets {
		if err := c.wallet(name).Validate(); err != nil {
			return err
		}
	}
	if c.Addr == "" {
		return errors.New("listen address cannot be empty")
	}
	if c.Host == "" {
		return errors.New("host URL cannot be empty")
	}
	return nil
}

func (c ServeCmd) wallet(name string) cmds.Cmd {
	return cmds.Cmd{WalletName: name, DBDir: c.DBDir, DBKey: c.DBKey}
}

type ServeResult struct {
	Endpoints map[string]string `json:"endpoints"`
}

func (r ServeResult) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// Exec serves until SIGINT or SIGTERM.
func (c ServeCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.ExecContext(ctx, w)
}

// ExecContext serves until the ctx is done.
func (c ServeCmd) ExecContext(ctx context.Context, w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "serve")

	utils.Settings.SetAutoAccept(c.AutoAccept)
	a := cmds.NewAgent(c.Host)
	res := ServeResult{Endpoints: make(map[string]string, len(c.Wallets))}
	for _, name := range c.Wallets {
		wallet := try.To1(c.wallet(name).OpenWallet(ssi.NativeBackend{URL: a.Endpoint(name)}))
		defer func() {
			if err := wallet.Close(); err != nil {
				glog.Warningln("close wallet:", err)
			}
		}()
		a.Mount(wallet)
		res.Endpoints[name] = a.Endpoint(name)
		cmds.Fprintf(w, "%s: %s (%d connections)\n", name, a.Endpoint(name), len(wallet.Connections()))
	}

	try.To(a.Start(c.Addr, true))
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(sctx); err != nil {
			glog.Warningln("agent close:", err)
		}
	}()
	cmds.Fprintln(w, "listening", a.Addr())

	try.To(a.Wait(ctx))
	return res, nil
}
