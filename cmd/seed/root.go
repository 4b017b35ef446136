package seed

import (
	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/lib/membrane"
	"github.com/ValentinKolb/mKV/lib/seed"
	"github.com/ValentinKolb/mKV/rpc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// SeedCmd writes one value into an embedded database before the application
// starts. Failures are logged and only fail the command with --strict.
var SeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Pre-seed an embedded database from the settings service",
	Long: util.WrapString(`Reads a setting from the settings service (or takes --value) and writes it
into the target database and store. The database is created at version 3 with
the predefined stores if it does not exist.`),
	Args: cobra.NoArgs,
	RunE: run,
}

func init() {
	util.SetupClientFlags(SeedCmd)
	util.SetupStoreFlags(SeedCmd)

	key := "db"
	SeedCmd.Flags().String(key, "vscode-web-db", util.WrapString("Name of the target database"))

	key = "store"
	SeedCmd.Flags().String(key, membrane.UserDataStore, util.WrapString("Name of the target object store"))

	key = "key"
	SeedCmd.Flags().String(key, "/User/settings.json", util.WrapString("Key the value is written to"))

	key = "setting"
	SeedCmd.Flags().String(key, "/User/settings.json", util.WrapString("Setting to read from the settings service"))

	key = "value"
	SeedCmd.Flags().String(key, "", util.WrapString("Write this value instead of reading the setting"))

	key = "strict"
	SeedCmd.Flags().Bool(key, false, util.WrapString("Exit with an error if seeding fails"))
}

func run(cmd *cobra.Command, _ []string) error {
	target := seed.Target{
		DBName:    viper.GetString("db"),
		StoreName: viper.GetString("store"),
		Key:       viper.GetString("key"),
	}

	err := write(cmd, target)
	if err == nil {
		return nil
	}
	if viper.GetBool("strict") {
		return err
	}
	seed.Logger.Warningf("seeding %s failed: %v", target, err)
	return nil
}

func write(cmd *cobra.Command, target seed.Target) error {
	clientConfig := util.GetClientConfig()
	storeConfig := util.GetStoreConfig()

	opts, err := util.DatabaseOptions(storeConfig, nil)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("value") {
		return seed.Write(cmd.Context(), viper.GetString("value"), target, *opts)
	}

	provider, local, err := util.NewProvider(clientConfig, storeConfig)
	if err != nil {
		return err
	}
	defer local.Close()

	bridge := client.NewBridge(*clientConfig, provider)
	defer bridge.Close()

	return seed.FromSettings(cmd.Context(), bridge, viper.GetString("setting"), target, *opts)
}
