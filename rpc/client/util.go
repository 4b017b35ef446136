package client

import (
	"os"
	"strings"

	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc/client")
)

const (
	// LocalEndpoint is used when the client runs on the development host
	LocalEndpoint = "http://localhost:8091"
	// ProductionEndpoint is used everywhere else
	ProductionEndpoint = "https://api.membrane.io"

	localHost = "localhost"
)

// ResolveEndpoint returns the base URL of the settings service.
// An explicit config.Endpoint wins. Otherwise the host name decides: "localhost"
// selects LocalEndpoint, anything else ProductionEndpoint. An empty config.Host
// falls back to the name of the machine.
func ResolveEndpoint(config common.ClientConfig) string {
	if config.Endpoint != "" {
		return strings.TrimRight(config.Endpoint, "/")
	}

	host := config.Host
	if host == "" {
		host, _ = os.Hostname()
	}
	if strings.EqualFold(host, localHost) {
		return LocalEndpoint
	}
	return ProductionEndpoint
}
