package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cmdUtil "github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the reference settings service",
		Long:    `Start the settings service that stores the redirected keys. The configuration can be set via command line flags or environment variables. The format of the environment variables is MKV_<flag> (e.g. MKV_AUTH_SECRET=...)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	key := "endpoint"
	ServeCmd.Flags().String(key, "0.0.0.0:8091", cmdUtil.WrapString("The address on which the API will listen"))

	key = "engine"
	ServeCmd.Flags().String(key, string(common.EngineMemory), cmdUtil.WrapString("Storage engine of the settings (memory, bolt)"))

	key = "data-dir"
	ServeCmd.Flags().String(key, "data", cmdUtil.WrapString("Directory of the settings file (bolt engine only)"))

	key = "auth-secret"
	ServeCmd.Flags().String(key, "", cmdUtil.WrapString("HS256 secret to verify bearer tokens with (see mkv token). If empty any bearer token is accepted"))
}

// processConfig reads the configuration from the command line flags and environment variables
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.Engine = common.ServerEngine(viper.GetString("engine"))
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.AuthSecret = viper.GetString("auth-secret")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// run starts the settings service and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.NewSettingsServer(*serveCmdConfig, nil)
	if err != nil {
		return err
	}
	return s.Serve(ctx)
}
