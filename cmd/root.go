/*
Package cmd is the cobra command tree of the findy-exchange CLI. The commands
only parse flags and environment, the work is done by the cmds packages.
*/
package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/cmds"
	"github.com/findy-network/findy-exchange/completionhelp"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "FEX"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: utils.Version,
	Use:     "findy-exchange",
	Short:   "DIDComm message exchange agent",
	Long: `
DIDComm message exchange agent. It creates out-of-band invitations, connects
with DID exchange, and runs trust ping and basic message over the connections.

Wallets are stored in bolt files under --db-dir, one file per wallet.
	`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmds.ParseLoggingArgs(rootFlags.logging)
		handleViperFlags(cmd)
		rootFlags.apply()
	},
}

// Execute root
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra has printed the error already
		os.Exit(1)
	}
}

// RootCmd returns the root command for extending the CLI in another repo.
func RootCmd() *cobra.Command {
	return rootCmd
}

// DryRun returns a value of a dry run flag.
func DryRun() bool {
	return rootFlags.dryRun
}

// RootFlags are the common flags
type RootFlags struct {
	cfgFile string
	dryRun  bool
	logging string

	timeout  time.Duration
	retries  uint64
	compress bool
}

// apply sets the transport settings of the flags.
func (f RootFlags) apply() {
	utils.Settings.SetTimeout(f.timeout)
	utils.Settings.SetRetries(f.retries)
	utils.Settings.SetCompress(f.compress)
}

// WalletFlags are the flags of the wallet the command uses.
type WalletFlags struct {
	WalletName string
	DBDir      string
	DBKey      string
}

func (f WalletFlags) Cmd() cmds.Cmd {
	return cmds.Cmd{
		WalletName: f.WalletName,
		DBDir:      f.DBDir,
		DBKey:      f.DBKey,
	}
}

var (
	rootFlags   = RootFlags{}
	walletFlags = WalletFlags{}
)

var rootEnvs = map[string]string{
	"config":       "CONFIG",
	"logging":      "LOGGING",
	"dry-run":      "DRY_RUN",
	"wallet-name":  "WALLET_NAME",
	"db-dir":       "DB_DIR",
	"db-key":       "DB_KEY",
	"http-timeout": "HTTP_TIMEOUT",
	"retries":      "RETRIES",
	"compress":     "COMPRESS",
}

func init() {
	defer err2.Catch(func(err error) {
		log.Println(err)
	})

	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlags.cfgFile, "config", "", flagInfo("configuration file", "", rootEnvs["config"]))
	flags.StringVar(&rootFlags.logging, "logging", "-logtostderr=true -v=1", flagInfo("logging startup arguments", "", rootEnvs["logging"]))
	flags.BoolVarP(&rootFlags.dryRun, "dry-run", "n", false, flagInfo("validate the arguments but don't execute", "", rootEnvs["dry-run"]))
	flags.StringVar(&walletFlags.WalletName, "wallet-name", "", flagInfo("wallet name", "", rootEnvs["wallet-name"]))
	flags.StringVar(&walletFlags.DBDir, "db-dir", "wallets", flagInfo("directory of the wallet files", "", rootEnvs["db-dir"]))
	flags.StringVar(&walletFlags.DBKey, "db-key", "", flagInfo("optional 32 byte hex key sealing the wallet files", "", rootEnvs["db-key"]))
	flags.DurationVar(&rootFlags.timeout, "http-timeout", utils.HTTPReqTimeout, flagInfo("timeout of the outbound HTTP and WebSocket requests", "", rootEnvs["http-timeout"]))
	flags.Uint64Var(&rootFlags.retries, "retries", 3, flagInfo("retries of the outbound delivery", "", rootEnvs["retries"]))
	flags.BoolVar(&rootFlags.compress, "compress", false, flagInfo("compress outbound HTTP payloads with zstd", "", rootEnvs["compress"]))

	for flag := range rootEnvs {
		if flag == "config" {
			continue
		}
		try.To(viper.BindPFlag(flag, flags.Lookup(flag)))
	}
	try.To(BindEnvs(rootEnvs, ""))
	try.To(rootCmd.RegisterFlagCompletionFunc("wallet-name", completeWallets))
}

func completeWallets(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return completionhelp.Wallets(walletFlags.DBDir), cobra.ShellCompDirectiveNoFileComp
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer("-", "_")
	viper.SetEnvKeyReplacer(replacer)
	readConfigFile()
	readBoundRootFlags()
}

func readBoundRootFlags() {
	rootFlags.logging = viper.GetString("logging")
	rootFlags.dryRun = viper.GetBool("dry-run")
	walletFlags.WalletName = viper.GetString("wallet-name")
	walletFlags.DBDir = viper.GetString("db-dir")
	walletFlags.DBKey = viper.GetString("db-key")
	rootFlags.timeout = viper.GetDuration("http-timeout")
	rootFlags.retries = viper.GetUint64("retries")
	rootFlags.compress = viper.GetBool("compress")
}

func readConfigFile() {
	cfgEnv := os.Getenv(getEnvName("", "config"))
	if rootFlags.cfgFile != "" || cfgEnv != "" {
		printInfo := true
		if rootFlags.cfgFile == "" {
			rootFlags.cfgFile = cfgEnv
			printInfo = false
		}
		viper.SetConfigFile(rootFlags.cfgFile)
		// If a config file is found, read it in.
		if err := viper.ReadInConfig(); err == nil && printInfo {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}
	}
}

// BindEnvs calls viper.BindEnv with envMap and cmdName which can be empty if
// flag is general.
func BindEnvs(envMap map[string]string, cmdName string) (err error) {
	defer err2.Handle(&err)
	for flagKey, envName := range envMap {
		finalEnvName := getEnvName(cmdName, envName)
		try.To(viper.BindEnv(flagKey, finalEnvName))
	}
	return nil
}

func flagInfo(info, cmdPrefix, envName string) string {
	return info + ", " + getEnvName(cmdPrefix, envName)
}

func getEnvName(cmdName, envName string) string {
	if cmdName == "" {
		return envPrefix + "_" + strings.ToUpper(envName)
	}
	return envPrefix + "_" + strings.ToUpper(cmdName) + "_" + envName
}

func handleViperFlags(cmd *cobra.Command) {
	setRequiredStringFlags(cmd)
	if cmd.HasParent() {
		handleViperFlags(cmd.Parent())
	}
}

func setRequiredStringFlags(cmd *cobra.Command) {
	defer err2.Catch(func(err error) {
		log.Println(err)
	})

	try.To(viper.BindPFlags(cmd.LocalFlags()))
	if cmd.PreRunE != nil {
		try.To(cmd.PreRunE(cmd, nil))
	}
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if viper.GetString(f.Name) != "" {
			try.To(cmd.LocalFlags().Set(f.Name, viper.GetString(f.Name)))
		}
	})
}

// exec validates the command and executes it unless it's a dry run.
func exec(cmd *cobra.Command, c cmds.Command) (err error) {
	defer err2.Handle(&err)

	try.To(c.Validate())
	if !rootFlags.dryRun {
		cmd.SilenceUsage = true
		try.To1(c.Exec(os.Stdout))
	}
	return nil
}
