package cmd

import (
	"log"

	"github.com/findy-network/findy-exchange/cmds/agent"
	"github.com/lainio/err2"
	"github.com/spf13/cobra"
)

var connectionsEnvs = map[string]string{
	"remove": "REMOVE",
}

// connectionsCmd represents the connections subcommand
var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Command for listing the connections of the wallet",
	Long: `
Lists the connections of the wallet: id, state and the label of the other end.
With --remove the connections are removed after listing.

Example
	findy-exchange connections --wallet-name bob
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connectionsEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		connsCmd.Cmd = walletFlags.Cmd()
		return exec(cmd, connsCmd)
	},
}

var connsCmd = agent.ConnectionsCmd{}

func init() {
	defer err2.Catch(func(err error) {
		log.Println(err)
	})

	connectionsCmd.Flags().BoolVar(&connsCmd.Remove, "remove", false, flagInfo("remove the connections", connectionsCmd.Name(), connectionsEnvs["remove"]))

	rootCmd.AddCommand(connectionsCmd)
}
