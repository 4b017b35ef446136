package kv

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ValentinKolb/mKV/cmd/util"
	"github.com/ValentinKolb/mKV/lib/idb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key...]",
		Short: "Gets the values of one or more keys in one read-only transaction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := database.RunInTransactionBatch(cmd.Context(), viper.GetString("store"), idb.ReadOnly, func(s idb.ObjectStore) []*idb.Request {
				requests := make([]*idb.Request, len(args))
				for i, key := range args {
					requests[i] = s.Get(key)
				}
				return requests
			})
			if err != nil {
				return err
			}
			for _, res := range results {
				if res.Ok {
					fmt.Printf("%s: %s\n", res.Key, res.Value)
				} else {
					fmt.Printf("%s: key not found\n", res.Key)
				}
			}
			return nil
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			res, err := database.RunInTransaction(cmd.Context(), viper.GetString("store"), idb.ReadWrite, func(s idb.ObjectStore) *idb.Request {
				return s.Put(key, []byte(value))
			})
			if err != nil {
				return err
			}
			switch {
			case !res.Ok:
				fmt.Println("remote write was not confirmed (see log)")
			case dbOptions.Router.IsRedirected(key):
				fmt.Println("set successfully (remote)")
			default:
				fmt.Println("set successfully")
			}
			return nil
		},
	}
	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Prints every key-value pair of the local store",
		Long:  util.WrapString("Prints every key-value pair stored locally. Redirected keys are never stored locally and therefore never listed."),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var isValid func([]byte) bool
			if viper.GetBool("json-only") {
				isValid = json.Valid
			}

			items, err := database.GetKeyValues(cmd.Context(), viper.GetString("store"), isValid)
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(items))
			for k := range items {
				keys = append(keys, k)
			}
			slices.Sort(keys)

			var b strings.Builder
			for _, k := range keys {
				fmt.Fprintf(&b, "%s: %s\n", k, items[k])
			}
			fmt.Print(b.String())
			fmt.Printf("(%d items)\n", len(keys))
			return nil
		},
	}
)

func init() {
	key := "json-only"
	dumpCmd.Flags().Bool(key, false, util.WrapString("Only print values that are valid JSON"))
}
