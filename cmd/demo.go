package cmd

import (
	"log"
	"time"

	"github.com/findy-network/findy-exchange/cmds/agent"
	"github.com/lainio/err2"
	"github.com/spf13/cobra"
)

var demoEnvs = map[string]string{
	"addr":    "ADDR",
	"msg":     "MESSAGE",
	"reply":   "REPLY",
	"timeout": "TIMEOUT",
}

// demoCmd represents the demo subcommand
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Command for running the connection demo in process",
	Long: `
Creates the wallets alice and bob in memory, connects bob to alice, sends
a basic message from bob to alice and alice's reply to bob. The wallets talk over the memory transport,
or over HTTP when --addr is given.

Example
	findy-exchange demo --addr localhost:8092 --msg "Hello Alice" --reply "Hello Bob"
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(demoEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return exec(cmd, dCmd)
	},
}

var dCmd = agent.DemoCmd{}

func init() {
	defer err2.Catch(func(err error) {
		log.Println(err)
	})

	flags := demoCmd.Flags()
	flags.StringVar(&dCmd.Addr, "addr", "", flagInfo("listen address, empty uses the memory transport", demoCmd.Name(), demoEnvs["addr"]))
	flags.StringVar(&dCmd.Message, "msg", "Hello Alice", flagInfo("message bob sends", demoCmd.Name(), demoEnvs["msg"]))
	flags.StringVar(&dCmd.Reply, "reply", "Hello Bob", flagInfo("message alice replies", demoCmd.Name(), demoEnvs["reply"]))
	flags.DurationVar(&dCmd.Timeout, "timeout", 10*time.Second, flagInfo("timeout of each response", demoCmd.Name(), demoEnvs["timeout"]))

	rootCmd.AddCommand(demoCmd)
}
