package connection

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/cmds"
	"github.com/findy-network/findy-exchange/protocol/basicmessage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Protections of the V2 basic message.
const (
	ProtectionPlain     = "plain"
	ProtectionSigned    = "signed"
	ProtectionEncrypted = "encrypted"
)

// BasicMsgCmd sends the message over the ACTIVE connection. With V2 the
// message is the DIDComm V2 preview, sent with the Protection.
type BasicMsgCmd struct {
	Cmd
	Message    string
	V2         bool
	Protection string
}

func (c BasicMsgCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.Message == "" {
		return errors.New("message cannot be empty")
	}
	switch c.Protection {
	case "", ProtectionPlain, ProtectionSigned, ProtectionEncrypted:
	default:
		return fmt.Errorf("unknown protection %q", c.Protection)
	}
	if c.Protection != "" && !c.V2 {
		return errors.New("protection can be set only for V2 messages")
	}
	return nil
}

func (c BasicMsgCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return c.run(w, func(ctx context.Context, a *cmds.Agent, x *mex.Exchange, _ *psm.Connection) (_ string, err error) {
		defer err2.Handle(&err)

		key := basicmessage.Key
		if c.V2 {
			key = basicmessage.KeyV2
		}
		p := try.To1(prot.With(a.Svc, x, key))
		switch c.Protection {
		case ProtectionSigned:
			try.To1(p.SendSignedMessage(ctx, c.Message))
		case ProtectionEncrypted:
			try.To1(p.SendEncryptedMessage(ctx, c.Message))
		default:
			try.To1(p.SendMessage(ctx, c.Message))
		}
		return "sent", nil
	})
}
