package token

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// TokenCmd mints a bearer token for a settings service started with --auth-secret
var TokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Mint a bearer token for the settings service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := viper.GetString("auth-secret")
		if secret == "" {
			return fmt.Errorf("--auth-secret (or MKV_AUTH_SECRET) is required")
		}
		token, err := server.MintToken(secret, args[0], viper.GetDuration("ttl"))
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	key := "auth-secret"
	TokenCmd.Flags().String(key, "", util.WrapString("HS256 secret of the settings service"))

	key = "ttl"
	TokenCmd.Flags().Duration(key, 24*time.Hour, util.WrapString("How long the token is valid (0 = forever)"))
}
