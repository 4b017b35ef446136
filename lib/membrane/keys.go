package membrane

import "regexp"

// RedirectedKeys are the keys whose value lives in the settings service and
// never in the embedded database. Membership is exact string equality.
var RedirectedKeys = []string{
	"memento/webviewView.membrane.logs",
	"memento/webviewView.membrane.navigator",
	"memento/webviewView.membrane.packages",
	"/User/settings.json",
}

var redirectedKeys = func() map[string]struct{} {
	m := make(map[string]struct{}, len(RedirectedKeys))
	for _, k := range RedirectedKeys {
		m[k] = struct{}{}
	}
	return m
}()

// IsRedirectedKey reports whether key belongs to the settings service.
func IsRedirectedKey(key string) bool {
	_, ok := redirectedKeys[key]
	return ok
}

// UserDataStore is the object store that holds the user settings document.
const UserDataStore = "vscode-userdata-store"

var workspaceDB = regexp.MustCompile(`^vscode-web-state-db-\w+$`)

// IsWorkspaceDB reports whether name is a per-workspace state database.
func IsWorkspaceDB(name string) bool {
	return workspaceDB.MatchString(name)
}

func IsUserDataStore(store string) bool {
	return store == UserDataStore
}
