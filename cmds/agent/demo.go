package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/findy-network/findy-exchange/agent/handshake"
	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/cmds"
	"github.com/findy-network/findy-exchange/protocol/basicmessage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// DemoCmd connects two in memory wallets, bob sends a basic message to alice
// and alice replies. The wallets talk over HTTP when Addr is set, otherwise
// over the memory transport.
type DemoCmd struct {
	Addr    string
	Message string
	Reply   string
	Timeout time.Duration
}

func (c DemoCmd) Validate() error {
	if c.Message == "" || c.Reply == "" {
		return fmt.Errorf("%w: message and reply cannot be empty", cmds.ErrInvalid)
	}
	return nil
}

type DemoResult struct {
	Alice    string `json:"alice"`
	Bob      string `json:"bob"`
	Received string `json:"received"`
	Replied  string `json:"replied"`
}

func (r DemoResult) JSON() ([]byte, error) {
	return json.Marshal(r)
}

func (c DemoCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "demo")

	ctx := context.Background()
	a, endpoint := try.To2(c.agent())
	defer func() {
		_ = a.Close(ctx)
	}()

	wallet := func(name string) *ssi.Wallet {
		w := try.To1(ssi.NewWallet(name, ssi.NativeBackend{URL: endpoint(name)}))
		a.Mount(w)
		return w
	}
	alice, bob := wallet("alice"), wallet("bob")

	cmds.Fprintln(w, "connecting bob to alice")
	res := try.To1(handshake.Connect(ctx, a.Svc, alice, bob, c.Timeout))
	cmds.Fprintf(w, "alice: %s\nbob:   %s\n", res.Inviter, res.Invitee)

	ba := try.To1(prot.With(a.Svc, a.Svc.ExchangeFor(alice, res.Inviter), basicmessage.Key))
	bb := try.To1(prot.With(a.Svc, a.Svc.ExchangeFor(bob, res.Invitee), basicmessage.Key))

	content := try.To1(c.message(ctx, bb, ba, c.Message))
	cmds.Fprintf(w, "alice received: %s\n", content)
	reply := try.To1(c.message(ctx, ba, bb, c.Reply))
	cmds.Fprintf(w, "bob received: %s\n", reply)

	return DemoResult{
		Alice:    res.Inviter.State().String(),
		Bob:      res.Invitee.State().String(),
		Received: content,
		Replied:  reply,
	}, nil
}

// message sends the content and returns what the recipient got.
func (c DemoCmd) message(
	ctx context.Context,
	from, to *basicmessage.Protocol,
	content string,
) (
	got string,
	err error,
) {
	defer err2.Handle(&err)

	try.To(to.ExpectMessage())
	try.To1(from.SendMessage(ctx, content))
	m := try.To1(to.AwaitMessage(ctx, c.Timeout))
	return basicmessage.Content(m)
}

// agent returns the agent and the endpoint function of the wallet names.
func (c DemoCmd) agent() (a *cmds.Agent, endpoint func(string) string, err error) {
	defer err2.Handle(&err)

	a = cmds.NewAgent("")
	if c.Addr == "" {
		return a, a.Mem.URL, nil
	}
	try.To(a.Start(c.Addr, false))
	return a, a.Endpoint, nil
}
