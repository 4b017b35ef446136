package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Settings server configuration struct
// --------------------------------------------------------------------------

// ServerEngine selects the KVDB engine that backs the settings server.
type ServerEngine string

const (
	EngineMemory ServerEngine = "memory"
	EngineBolt   ServerEngine = "bolt"
)

// ServerConfig holds all parameters of the reference settings server.
type ServerConfig struct {
	// HTTP api settings
	Endpoint string

	// storage of the settings
	Engine  ServerEngine
	DataDir string

	// HS256 secret used to verify bearer tokens. Empty accepts any non-empty token.
	AuthSecret string

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	p := &printer{}

	p.addSection("Settings Server")
	p.addField("Endpoint", c.Endpoint)
	p.addField("Auth", secretState(c.AuthSecret, "jwt (HS256)", "any bearer token"))

	p.addSection("Storage")
	p.addField("Engine", string(c.Engine))
	if c.Engine == EngineBolt {
		p.addField("Data Directory", c.DataDir)
	}

	p.addSection("Logging")
	p.addField("Log Level", c.LogLevel)

	return p.String()
}

// --------------------------------------------------------------------------
// Settings client configuration struct
// --------------------------------------------------------------------------

// ClientConfig configures the remote settings bridge.
type ClientConfig struct {
	// Endpoint overrides the base URL otherwise derived from Host
	Endpoint string
	// Host is the host name used to choose between the local and the production endpoint
	Host string
	// Token is the bearer token handed to the credential provider at startup
	Token string
	// TimeoutSecond limits every request (0 = no timeout)
	TimeoutSecond int

	LogLevel string
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	p := &printer{}

	p.addSection("Client Configuration")
	p.addField("Endpoint", orDefault(c.Endpoint, "(by host name)"))
	p.addField("Host", orDefault(c.Host, "(os hostname)"))
	p.addField("Token", secretState(c.Token, "set", "not set"))
	if c.TimeoutSecond > 0 {
		p.addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	} else {
		p.addField("Timeout", "none")
	}

	p.addSection("Logging")
	p.addField("Log Level", c.LogLevel)

	return p.String()
}

// --------------------------------------------------------------------------
// Embedded store configuration struct
// --------------------------------------------------------------------------

// StoreConfig configures where the embedded databases live.
type StoreConfig struct {
	DataDir string
	// OpenTimeoutSecond is how long to wait for the file lock of another process
	OpenTimeoutSecond int
}

func (c *StoreConfig) String() string {
	p := &printer{}
	p.addSection("Embedded Store")
	p.addField("Data Directory", orDefault(c.DataDir, "."))
	p.addField("Open Timeout", fmt.Sprintf("%d sec", c.OpenTimeoutSecond))
	return p.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// printer renders the section/field layout shared by all config structs
type printer struct {
	sb strings.Builder
}

func (p *printer) addSection(title string) {
	p.sb.WriteString("\n")
	p.sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
}

func (p *printer) addField(name, value string) {
	p.sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
}

func (p *printer) String() string {
	return p.sb.String()
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

// secretState never prints the secret itself
func secretState(secret, set, unset string) string {
	if secret == "" {
		return unset
	}
	return set
}
