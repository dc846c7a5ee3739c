package cmd

import (
	"log"

	"github.com/findy-network/findy-exchange/cmds/agent"
	"github.com/lainio/err2"
	"github.com/spf13/cobra"
)

var invitationEnvs = map[string]string{
	"label":    "LABEL",
	"host":     "HOST",
	"base-url": "BASE_URL",
}

// invitationCmd represents the invitation subcommand
var invitationCmd = &cobra.Command{
	Use:   "invitation",
	Short: "Command for creating out-of-band invitation of the wallet",
	Long: `
Creates an out-of-band invitation of the wallet and prints it. The invitation
is printed in the URL form when --base-url is given, otherwise in JSON.

The wallet must be served at --host with the serve command to accept the
connection requests. Create the invitations before starting the serve.

Example
	findy-exchange invitation \
		--wallet-name alice \
		--host http://localhost:8090 \
		--label Alice \
		--base-url http://example.com
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(invitationEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		invitateCmd.Cmd = walletFlags.Cmd()
		return exec(cmd, invitateCmd)
	},
}

var invitateCmd = agent.InvitationCmd{}

func init() {
	defer err2.Catch(func(err error) {
		log.Println(err)
	})

	flags := invitationCmd.Flags()
	flags.StringVar(&invitateCmd.Label, "label", "", flagInfo("invitation label", invitationCmd.Name(), invitationEnvs["label"]))
	flags.StringVar(&invitateCmd.Host, "host", "http://localhost:8090", flagInfo("public base URL of the serving agent", invitationCmd.Name(), invitationEnvs["host"]))
	flags.StringVar(&invitateCmd.BaseURL, "base-url", "", flagInfo("base URL of the invitation URL", invitationCmd.Name(), invitationEnvs["base-url"]))

	rootCmd.AddCommand(invitationCmd)
}
