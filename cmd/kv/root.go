package kv

import (
	"context"
	"errors"

	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/lib/idb"
	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/rpc/client"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Logger = logger.GetLogger("cmd")

var (
	database  *idb.Database
	dbOptions *idb.Options
	bridge    client.IBridge
	secrets   store.IStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:   "kv",
		Short: "Read and write an embedded database through the membrane router",
		Long: `Read and write an embedded database. Keys of the redirected key set are not
stored locally but in the remote settings service.`,
		PersistentPreRunE:  setupDatabase,
		PersistentPostRunE: closeDatabase,
	}
)

func init() {
	// Add the connection flags of the settings service and the data directory
	util.SetupClientFlags(KeyValueCommands)
	util.SetupStoreFlags(KeyValueCommands)

	key := "db"
	KeyValueCommands.PersistentFlags().String(key, "vscode-web-state-db-global", util.WrapString("Name of the database"))

	key = "store"
	KeyValueCommands.PersistentFlags().String(key, "ItemTable", util.WrapString("Name of the object store"))

	key = "version"
	KeyValueCommands.PersistentFlags().Uint64(key, 0, util.WrapString("Version to open the database at (0 = latest)"))

	// Add subcommands
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(dumpCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupDatabase opens the configured database with a membrane router. The
// API token of the router comes from the credential provider.
func setupDatabase(_ *cobra.Command, _ []string) error {
	clientConfig := util.GetClientConfig()
	storeConfig := util.GetStoreConfig()

	provider, local, err := util.NewProvider(clientConfig, storeConfig)
	if err != nil {
		return err
	}
	secrets = local

	router, b := util.NewRouter(clientConfig, provider)
	bridge = b

	dbOptions, err = util.DatabaseOptions(storeConfig, router)
	if err != nil {
		return err
	}

	database, err = idb.Open(context.Background(), viper.GetString("db"), viper.GetUint64("version"), []string{viper.GetString("store")}, dbOptions)
	return err
}

// closeDatabase closes everything setupDatabase opened
func closeDatabase(_ *cobra.Command, _ []string) error {
	var errs []error
	if database != nil {
		errs = append(errs, database.Close())
	}
	if bridge != nil {
		errs = append(errs, bridge.Close())
	}
	if secrets != nil {
		errs = append(errs, secrets.Close())
	}
	return errors.Join(errs...)
}
