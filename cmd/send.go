package cmd

import (
	"log"

	"github.com/findy-network/findy-exchange/cmds/connection"
	"github.com/lainio/err2"
	"github.com/spf13/cobra"
)

var sendEnvs = map[string]string{
	"msg":           "MESSAGE",
	"v2":            "V2",
	"protection":    "PROTECTION",
	"connection-id": "CONNECTION_ID",
	"addr":          "ADDR",
	"host":          "HOST",
	"timeout":       "TIMEOUT",
	"admin-url":     "ADMIN_URL",
	"api-key":       "API_KEY",
}

// sendCmd represents the send subcommand
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Command for sending basic message over the connection",
	Long: `
Sends a basic message over the ACTIVE connection.

--msg and --connection-id are required. With --v2 the message is the DIDComm
V2 preview of the basic message, and --protection selects how it's packed:
plain (default), signed or encrypted.

Example
	findy-exchange send \
		--wallet-name bob \
		--connection-id 1868c791-04a7-4160-bdce-646b975c8de1 \
		--msg "Hello world!"
`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(sendEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		msgCmd.Cmd.Cmd = walletFlags.Cmd()
		return exec(cmd, msgCmd)
	},
}

var msgCmd = connection.BasicMsgCmd{}

func init() {
	defer err2.Catch(func(err error) {
		log.Println(err)
	})

	flags := sendCmd.Flags()
	flags.StringVar(&msgCmd.Message, "msg", "", flagInfo("message to be send", sendCmd.Name(), sendEnvs["msg"]))
	flags.BoolVar(&msgCmd.V2, "v2", false, flagInfo("send DIDComm V2 basic message", sendCmd.Name(), sendEnvs["v2"]))
	flags.StringVar(&msgCmd.Protection, "protection", "", flagInfo("V2 protection: plain, signed or encrypted", sendCmd.Name(), sendEnvs["protection"]))
	connectionFlags(flags, &msgCmd.Cmd, sendCmd.Name(), sendEnvs)

	rootCmd.AddCommand(sendCmd)
}
