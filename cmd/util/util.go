package util

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/ValentinKolb/mKV/lib/db/engines/bolt"
	"github.com/ValentinKolb/mKV/lib/idb"
	"github.com/ValentinKolb/mKV/lib/membrane"
	"github.com/ValentinKolb/mKV/lib/secrets"
	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/ValentinKolb/mKV/lib/store/lstore"
	"github.com/ValentinKolb/mKV/rpc/client"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (MKV_<flag>)
	EnvPrefix = "mkv"

	secretsFile = "secrets.db"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads the .env files and connects viper to the environment
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// InitLoggers sets up logging with the configured level
func InitLoggers() error {
	return common.InitLoggers(viper.GetString("log-level"))
}

// --------------------------------------------------------------------------
// Client (settings bridge) configuration
// --------------------------------------------------------------------------

// SetupClientFlags adds the settings service connection flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, "", WrapString("Base URL of the settings service. If empty it is chosen by host name (localhost = "+client.LocalEndpoint+", else "+client.ProductionEndpoint+")"))

	key = "host"
	cmd.PersistentFlags().String(key, "", WrapString("Host name used to choose the settings endpoint (default: name of this machine)"))

	key = "token"
	cmd.PersistentFlags().String(key, "", WrapString("API token for the settings service"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 0, WrapString("Timeout in seconds of every settings request (0 = none)"))
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		Endpoint:      viper.GetString("endpoint"),
		Host:          viper.GetString("host"),
		Token:         viper.GetString("token"),
		TimeoutSecond: viper.GetInt("timeout"),
		LogLevel:      viper.GetString("log-level"),
	}
}

// --------------------------------------------------------------------------
// Embedded store configuration
// --------------------------------------------------------------------------

// SetupStoreFlags adds the flags for the embedded databases to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "data-dir"
	cmd.PersistentFlags().String(key, "data", WrapString("Directory of the embedded databases"))

	key = "open-timeout"
	cmd.PersistentFlags().Int(key, 1, WrapString("How long to wait in seconds for a database that is locked by another process"))
}

// GetStoreConfig reads the embedded store configuration from viper
func GetStoreConfig() *common.StoreConfig {
	return &common.StoreConfig{
		DataDir:           viper.GetString("data-dir"),
		OpenTimeoutSecond: viper.GetInt("open-timeout"),
	}
}

// DatabaseOptions converts a store configuration to idb options
func DatabaseOptions(config *common.StoreConfig, router idb.RemoteRouter) (*idb.Options, error) {
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &idb.Options{
		Dir:     config.DataDir,
		Timeout: time.Duration(config.OpenTimeoutSecond) * time.Second,
		Router:  router,
	}, nil
}

// --------------------------------------------------------------------------
// Wiring
// --------------------------------------------------------------------------

// NewProvider hands the configured token to a fresh credential provider. The
// secrets themselves live in a bolt file in the data directory.
func NewProvider(clientConfig *common.ClientConfig, storeConfig *common.StoreConfig) (*secrets.Provider, store.IStore, error) {
	if err := os.MkdirAll(storeConfig.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(storeConfig.DataDir, secretsFile)
	opts := bolt.DefaultOptions()
	opts.Timeout = time.Duration(storeConfig.OpenTimeoutSecond) * time.Second

	local, err := lstore.NewLocalStore(func() (db.KVDB, error) { return bolt.NewBoltDB(path, opts) })
	if err != nil {
		return nil, nil, err
	}

	token := clientConfig.Token
	slot := secrets.NewTokenSlot(func(context.Context) (string, error) { return token, nil })
	return secrets.NewProvider(slot, local), local, nil
}

// NewRouter creates the membrane router for the configured settings service
func NewRouter(clientConfig *common.ClientConfig, tokens client.TokenSource) (*membrane.Router, client.IBridge) {
	bridge := client.NewBridge(*clientConfig, tokens)
	return membrane.NewRouter(bridge), bridge
}
