/*
Package cmds is the command layer of the CLI. A command is a struct with
Validate and Exec, so it can be used without cobra as well. The base Cmd
opens the wallet of the command from its bolt store.
*/
package cmds

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/completionhelp"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// dbKeyLength is the hex length of the 32 byte store key.
const dbKeyLength = 64

var ErrInvalid = errors.New("invalid command, check arguments")

// Cmd is the wallet of the command. DBKey is optional and seals the store.
type Cmd struct {
	WalletName string
	DBDir      string
	DBKey      string
}

func (c Cmd) Validate() error {
	if c.WalletName == "" {
		return errors.New("wallet name cannot be empty")
	}
	if strings.ContainsAny(c.WalletName, `/\ `) {
		return fmt.Errorf("wallet name %q isn't a valid file name", c.WalletName)
	}
	if c.DBDir == "" {
		return errors.New("db dir cannot be empty")
	}
	return ValidateKey(c.DBKey)
}

// ValidateKey accepts the empty key or a 32 byte key in hex.
func ValidateKey(k string) error {
	if k == "" {
		return nil
	}
	if len(k) != dbKeyLength {
		return fmt.Errorf("db key must be %d hex characters", dbKeyLength)
	}
	if _, err := hex.DecodeString(k); err != nil {
		return fmt.Errorf("db key: %w", err)
	}
	return nil
}

// DBFile returns the bolt file of the wallet.
func (c Cmd) DBFile() string {
	return filepath.Join(c.DBDir, c.WalletName+completionhelp.WalletExt)
}

// OpenWallet opens the wallet with its store. The wallet must be closed by
// the caller.
func (c Cmd) OpenWallet(backend ssi.AgentBackend) (w *ssi.Wallet, err error) {
	defer err2.Handle(&err, "open wallet %s", c.WalletName)

	var key []byte
	if c.DBKey != "" {
		key = try.To1(hex.DecodeString(c.DBKey))
	}
	try.To(os.MkdirAll(c.DBDir, 0o700))
	store := try.To1(psm.Open(c.DBFile(), key))
	return ssi.NewWallet(c.WalletName, backend, ssi.WithStore(store))
}

type Result interface {
	JSON() ([]byte, error)
}

type Command interface {
	Validate() error
	Exec(w io.Writer) (r Result, err error)
}

// ParseLoggingArgs sets the glog flags from the string, e.g.
// "-logtostderr=true -v=2".
func ParseLoggingArgs(s string) {
	args := make([]string, 1, 12)
	args[0] = os.Args[0]
	args = append(args, strings.Fields(s)...)
	orgArgs := os.Args
	os.Args = args
	flag.Parse()
	os.Args = orgArgs
}

// Fprintln is fmt.Fprintln but it allows writer to be nil. Note! it throws an
// error.
func Fprintln(w io.Writer, a ...any) {
	if w != nil {
		try.To1(fmt.Fprintln(w, a...))
	}
}

// Fprintf is fmt.Fprintf but it allows writer to be nil. Note! it throws an
// error.
func Fprintf(w io.Writer, format string, a ...any) {
	if w != nil {
		try.To1(fmt.Fprintf(w, format, a...))
	}
}

// Fprint is fmt.Fprint but it allows writer to be nil. Note! it throws an
// error.
func Fprint(w io.Writer, a ...any) {
	if w != nil {
		try.To1(fmt.Fprint(w, a...))
	}
}

// Progress prints dots until the returned channel is closed.
func Progress(w io.Writer) chan<- struct{} {
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(300 * time.Millisecond):
				if w != nil {
					_, _ = fmt.Fprint(w, ".")
				}
			}
		}
	}()
	return done
}
