package cmd

import (
	"log"

	"github.com/findy-network/findy-exchange/cmds/agent"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var serveEnvs = map[string]string{
	"wallets":     "WALLETS",
	"addr":        "ADDR",
	"host":        "HOST",
	"auto-accept": "AUTO_ACCEPT",
}

// serveCmd represents the serve subcommand
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Command for serving the wallets' endpoints",
	Long: `
Serves the DIDComm endpoints of the wallets until the process is interrupted.
The endpoint of a wallet is <host>/a/<wallet-name> for HTTP and
<host>/ws/<wallet-name> for WebSocket.

Connection requests to the wallets' invitations are answered automatically
unless --auto-accept=false is given.

Example
	findy-exchange serve \
		--wallets alice,carol \
		--addr :8090 \
		--host http://localhost:8090
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(serveEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		srvCmd.DBDir = walletFlags.DBDir
		srvCmd.DBKey = walletFlags.DBKey
		if len(srvCmd.Wallets) == 0 && walletFlags.WalletName != "" {
			srvCmd.Wallets = []string{walletFlags.WalletName}
		}
		return exec(cmd, srvCmd)
	},
}

var srvCmd = agent.ServeCmd{}

func init() {
	defer err2.Catch(func(err error) {
		log.Println(err)
	})

	flags := serveCmd.Flags()
	flags.StringSliceVar(&srvCmd.Wallets, "wallets", nil, flagInfo("wallets to serve, default --wallet-name", serveCmd.Name(), serveEnvs["wallets"]))
	flags.StringVar(&srvCmd.Addr, "addr", ":8090", flagInfo("listen address", serveCmd.Name(), serveEnvs["addr"]))
	flags.StringVar(&srvCmd.Host, "host", "http://localhost:8090", flagInfo("public base URL of the endpoints", serveCmd.Name(), serveEnvs["host"]))
	flags.BoolVar(&srvCmd.AutoAccept, "auto-accept", true, flagInfo("accept connection requests automatically", serveCmd.Name(), serveEnvs["auto-accept"]))

	try.To(serveCmd.RegisterFlagCompletionFunc("wallets", completeWallets))

	rootCmd.AddCommand(serveCmd)
}
