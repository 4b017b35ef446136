package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/ValentinKolb/mKV/lib/idb"
	"github.com/ValentinKolb/mKV/lib/membrane"
	"github.com/ValentinKolb/mKV/rpc/client"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("seed")

// Version is the database version the web IDE expects for its state databases.
const Version = 3

// PredefinedStores are created whenever a database is created or upgraded.
var PredefinedStores = []string{"vscode-userdata-store", "vscode-logs-store", "vscode-filehandles-store"}

// Target names the database, store and key a seed value is written to.
type Target struct {
	DBName    string
	StoreName string
	Key       string
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s/%s", t.DBName, t.StoreName, t.Key)
}

// Write opens (or creates) the target database, writes data under the target
// key and closes the database again.
//
// Strings and byte slices are written as they are, everything else as JSON.
// A database that already is at a higher version than Version is opened at its
// own version. A target store that does not exist is created by opening the
// database at the next version. Existing stores and their data are never
// touched. The write always stays local, opts.Router and opts.Upgrade are
// ignored.
func Write(ctx context.Context, data any, target Target, opts idb.Options) error {
	value, err := encode(data)
	if err != nil {
		return fmt.Errorf("error encoding data for %s: %w", target, err)
	}

	opts.Router = nil
	database, err := open(ctx, target, &opts)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			Logger.Errorf("error closing database %s: %v", target.DBName, err)
		}
	}()

	_, err = database.RunInTransaction(ctx, target.StoreName, idb.ReadWrite, func(s idb.ObjectStore) *idb.Request {
		return s.Put(target.Key, value)
	})
	if err != nil {
		return fmt.Errorf("error writing data: %w", err)
	}

	Logger.Infof("seeded %s (%d bytes)", target, len(value))
	return nil
}

// FromSettings reads settingKey from the settings service and writes it to
// target. A setting the service does not know yields membrane.ErrAbsent and
// nothing is written.
func FromSettings(ctx context.Context, bridge client.IBridge, settingKey string, target Target, opts idb.Options) error {
	values, err := membrane.FetchSettings(ctx, bridge, settingKey)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", settingKey, err)
	}
	raw, ok := values[settingKey]
	if !ok {
		return fmt.Errorf("failed to fetch %s: %w", settingKey, membrane.ErrAbsent)
	}
	return Write(ctx, membrane.DecodeValue(raw), target, opts)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func open(ctx context.Context, target Target, opts *idb.Options) (*idb.Database, error) {
	// no required stores: a database missing one of them must never be recreated
	opts.Upgrade = createStores(PredefinedStores...)
	database, err := idb.Open(ctx, target.DBName, Version, nil, opts)

	var versionErr *idb.VersionError
	if errors.As(err, &versionErr) {
		Logger.Debugf("database %s is at version %d, opening latest", target.DBName, versionErr.Current)
		database, err = idb.Open(ctx, target.DBName, 0, nil, opts)
	}
	if err != nil {
		return nil, err
	}

	names, err := database.ObjectStoreNames()
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	if slices.Contains(names, target.StoreName) {
		return database, nil
	}

	// the store can only be created by an upgrade
	next := database.Version() + 1
	if err := database.Close(); err != nil {
		return nil, err
	}
	Logger.Infof("store %s does not exist in database %s, upgrading to version %d", target.StoreName, target.DBName, next)
	opts.Upgrade = createStores(append(slices.Clone(PredefinedStores), target.StoreName)...)
	return idb.Open(ctx, target.DBName, next, nil, opts)
}

// createStores returns an upgrade that creates every store not present yet
func createStores(stores ...string) idb.UpgradeFunc {
	return func(tx *idb.VersionChangeTx, _, _ uint64) error {
		for _, store := range stores {
			if tx.Contains(store) {
				continue
			}
			if err := tx.CreateObjectStore(store); err != nil {
				return err
			}
		}
		return nil
	}
}

func encode(data any) ([]byte, error) {
	switch v := data.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(v)
	}
}
