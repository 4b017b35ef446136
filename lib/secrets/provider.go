package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("secrets")

// ProviderType is the storage class reported by Provider.Type.
const ProviderType = "persisted"

// ExtensionKey is the structured key extensions use for their secrets. It is
// passed to the provider as a JSON string.
type ExtensionKey struct {
	ExtensionID string `json:"extensionId"`
	Key         string `json:"key"`
}

// APITokenKey is the one secret that is not read from the local store but from
// the captured token accessor.
var APITokenKey = ExtensionKey{ExtensionID: "membrane.membrane", Key: "membraneApiToken"}

// String returns the JSON form used as the secret key
func (k ExtensionKey) String() string {
	b, _ := json.Marshal(k)
	return string(b)
}

// ParseExtensionKey decodes key. A key that is not a JSON object is not an
// extension key; that is not an error. Field names match exactly, so
// {"EXTENSIONID":...} leaves both fields empty.
func ParseExtensionKey(key string) (ExtensionKey, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(key), &fields); err != nil {
		return ExtensionKey{}, false
	}

	var ek ExtensionKey
	// non-string values leave the field empty
	_ = json.Unmarshal(fields["extensionId"], &ek.ExtensionID)
	_ = json.Unmarshal(fields["key"], &ek.Key)
	return ek, true
}

// Provider serves secrets from a local property store, except for APITokenKey,
// which is answered by the token accessor captured at construction.
//
// Thread-safety: all methods can be called concurrently if the local store allows it.
type Provider struct {
	getAuthToken TokenFunc
	local        store.IStore
}

// NewProvider takes the accessor out of slot (the slot fails from now on) and
// serves every other secret from local.
func NewProvider(slot *TokenSlot, local store.IStore) *Provider {
	fn := slot.take()
	if fn == nil {
		Logger.Warningf("no token accessor installed, the API token will be unavailable")
		fn = func(context.Context) (string, error) { return "", errNoAccessor }
	}
	return &Provider{getAuthToken: fn, local: local}
}

// Type returns ProviderType.
func (p *Provider) Type() string {
	return ProviderType
}

// GetAuthToken returns the API token from the captured accessor.
func (p *Provider) GetAuthToken(ctx context.Context) (string, error) {
	return p.getAuthToken(ctx)
}

// Get returns the secret stored under key. The bool is false if there is none.
func (p *Provider) Get(ctx context.Context, key string) (string, bool, error) {
	if ek, ok := ParseExtensionKey(key); ok && ek == APITokenKey {
		token, err := p.getAuthToken(ctx)
		if err != nil {
			return "", false, fmt.Errorf("failed to read API token: %w", err)
		}
		return token, true, nil
	}

	value, ok, err := p.local.Get(key)
	if err != nil || !ok {
		return "", false, err
	}
	return string(value), true, nil
}

// Set stores value under key in the local store.
func (p *Provider) Set(_ context.Context, key, value string) error {
	return p.local.Set(key, []byte(value))
}

// Delete removes key from the local store.
func (p *Provider) Delete(_ context.Context, key string) error {
	return p.local.Delete(key)
}
