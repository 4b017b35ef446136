package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/mKV/cmd/kv"
	"github.com/ValentinKolb/mKV/cmd/secret"
	"github.com/ValentinKolb/mKV/cmd/seed"
	"github.com/ValentinKolb/mKV/cmd/serve"
	"github.com/ValentinKolb/mKV/cmd/token"
	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "mkv",
		Short: "dual-backend transactional key-value store",
		Long: fmt.Sprintf(`mKV (v%s)

An embedded transactional key-value store whose well-known settings keys
are transparently kept in a remote, authenticated settings service.`, Version),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := util.BindCommandFlags(cmd); err != nil {
				return err
			}
			return util.InitLoggers()
		},
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mKV v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)
	// flag binding and logger setup of RootCmd run before the hooks of every subcommand
	cobra.EnableTraverseRunHooks = true

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(seed.SeedCmd)
	RootCmd.AddCommand(secret.SecretCommands)
	RootCmd.AddCommand(token.TokenCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
