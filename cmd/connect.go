package cmd

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/findy-network/findy-exchange/cmds/agent"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var connectEnvs = map[string]string{
	"addr":    "ADDR",
	"host":    "HOST",
	"timeout": "TIMEOUT",
}

// connectCmd represents the connect subcommand
var connectCmd = &cobra.Command{
	Use:   "connect [invitation|file|-]",
	Short: "Command for connecting the wallet with an invitation",
	Long: `
Connects the wallet to the inviter of the out-of-band invitation with DID
exchange, and pings the new connection. The invitation is given in JSON or in
the URL form, directly, as a file, or from standard input with -.

The wallet's endpoint is served at --addr during the command. The inviter
sends the responses of the connection there later as well, so use the same
address with the ping and send commands.

Example
	findy-exchange connect \
		--wallet-name bob \
		--addr localhost:8091 \
		"http://example.com?oob=eyJAdHlwZSI6..."
	`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connectEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		connCmd.Cmd = walletFlags.Cmd()
		connCmd.Invitation = try.To1(readInvitation(args[0]))
		return exec(cmd, connCmd)
	},
}

// readInvitation returns the invitation of the argument: stdin with "-", the
// argument itself if it looks like an invitation, otherwise the file's
// content.
func readInvitation(arg string) (s string, err error) {
	defer err2.Handle(&err, "read invitation")

	switch {
	case arg == "-":
		return string(try.To1(io.ReadAll(os.Stdin))), nil
	case strings.HasPrefix(strings.TrimSpace(arg), "{"), strings.Contains(arg, "oob="):
		return arg, nil
	}
	return string(try.To1(os.ReadFile(arg))), nil
}

var connCmd = agent.ConnectCmd{}

func init() {
	defer err2.Catch(func(err error) {
		log.Println(err)
	})

	flags := connectCmd.Flags()
	flags.StringVar(&connCmd.Addr, "addr", "localhost:8091", flagInfo("listen address of the wallet's endpoint", connectCmd.Name(), connectEnvs["addr"]))
	flags.StringVar(&connCmd.Host, "host", "", flagInfo("public base URL of --addr, default http://<addr>", connectCmd.Name(), connectEnvs["host"]))
	flags.DurationVar(&connCmd.Timeout, "timeout", 30*time.Second, flagInfo("timeout of each response", connectCmd.Name(), connectEnvs["timeout"]))

	rootCmd.AddCommand(connectCmd)
}
