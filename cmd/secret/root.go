package secret

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/lib/secrets"
	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	provider *secrets.Provider
	local    store.IStore

	// SecretCommands represents the secret command group
	SecretCommands = &cobra.Command{
		Use:   "secret",
		Short: "Read and write secrets through the credential provider",
		Long: util.WrapString(fmt.Sprintf(`Secrets are stored in the data directory. The secret %s is never stored,
it always returns the API token (--token).`, secrets.APITokenKey)),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			provider, local, err = util.NewProvider(util.GetClientConfig(), util.GetStoreConfig())
			return err
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if local == nil {
				return nil
			}
			return local.Close()
		},
	}

	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Prints a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok, err := provider.Get(cmd.Context(), secretKey(args[0]))
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("secret not found")
			}
			fmt.Println(value)
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Stores a secret",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := provider.Set(cmd.Context(), secretKey(args[0]), args[1]); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [key]",
		Short: "Deletes a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := provider.Delete(cmd.Context(), secretKey(args[0])); err != nil {
				return err
			}
			fmt.Println("deleted successfully")
			return nil
		},
	}
)

func init() {
	util.SetupClientFlags(SecretCommands)
	util.SetupStoreFlags(SecretCommands)

	key := "extension"
	SecretCommands.PersistentFlags().String(key, "", util.WrapString("If set, the key is scoped to this extension id (e.g. membrane.membrane)"))

	SecretCommands.AddCommand(getCmd)
	SecretCommands.AddCommand(setCmd)
	SecretCommands.AddCommand(deleteCmd)
}

// secretKey turns key into an extension key if --extension is set
func secretKey(key string) string {
	if ext := viper.GetString("extension"); ext != "" {
		return secrets.ExtensionKey{ExtensionID: ext, Key: key}.String()
	}
	return key
}
