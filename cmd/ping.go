package cmd

import (
	"log"
	"time"

	"github.com/findy-network/findy-exchange/cmds/connection"
	"github.com/lainio/err2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var pingEnvs = map[string]string{
	"connection-id": "CONNECTION_ID",
	"addr":          "ADDR",
	"host":          "HOST",
	"timeout":       "TIMEOUT",
	"admin-url":     "ADMIN_URL",
	"api-key":       "API_KEY",
}

var pingDoc = `Sends a trust ping over the connection and waits the response. The
connection is ACTIVE after the ping.

The wallet's endpoint is served at --addr during the command to receive the
response. With --admin-url the ping is sent by the ACA-Py agent of the admin
API, and the connection id is the id of the ACA-Py connection.

Example
	findy-exchange ping \
		--wallet-name bob \
		--addr localhost:8091 \
		--connection-id 1868c791-04a7-4160-bdce-646b975c8de1
`

// pingCmd represents the ping subcommand
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Command for trust ping over the connection",
	Long:  pingDoc,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(pingEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		tPingCmd.Cmd.Cmd = walletFlags.Cmd()
		return exec(cmd, tPingCmd)
	},
}

var tPingCmd = connection.TrustPingCmd{}

// connectionFlags adds the flags of the connection commands.
func connectionFlags(flags *pflag.FlagSet, c *connection.Cmd, cmdName string, envs map[string]string) {
	flags.StringVar(&c.ID, "connection-id", "", flagInfo("connection id", cmdName, envs["connection-id"]))
	flags.StringVar(&c.Addr, "addr", "localhost:8091", flagInfo("listen address of the wallet's endpoint", cmdName, envs["addr"]))
	flags.StringVar(&c.Host, "host", "", flagInfo("public base URL of --addr, default http://<addr>", cmdName, envs["host"]))
	flags.DurationVar(&c.Timeout, "timeout", 30*time.Second, flagInfo("timeout of the response", cmdName, envs["timeout"]))
	flags.StringVar(&c.AdminURL, "admin-url", "", flagInfo("admin API URL of the ACA-Py agent", cmdName, envs["admin-url"]))
	flags.StringVar(&c.APIKey, "api-key", "", flagInfo("admin API key of the ACA-Py agent", cmdName, envs["api-key"]))
}

func init() {
	defer err2.Catch(func(err error) {
		log.Println(err)
	})

	connectionFlags(pingCmd.Flags(), &tPingCmd.Cmd, pingCmd.Name(), pingEnvs)
	rootCmd.AddCommand(pingCmd)
}
