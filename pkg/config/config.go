// Package config resolves the debuggee's and controller's network
// endpoints and optional local preferences.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultHost and DefaultPort are the fallback endpoint: the
// controller listens here by default, and REMOTE_LDB's missing pieces
// fall back to them.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 2679
)

// Endpoint is a resolved host:port pair.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string { return fmt.Sprintf("%s:%d", e.Host, e.Port) }

// DebuggeeEndpoint resolves REMOTE_LDB: `<host>:<port>`,
// `<host>`, or `:<port>`, with missing pieces defaulting to
// 127.0.0.1:2679. An unset or empty variable yields the pure default.
func DebuggeeEndpoint() (Endpoint, error) {
	return ParseEndpoint(os.Getenv("REMOTE_LDB"))
}

// ParseEndpoint implements the three REMOTE_LDB shapes directly, so
// it can be unit tested without touching the process environment.
func ParseEndpoint(raw string) (Endpoint, error) {
	ep := Endpoint{Host: DefaultHost, Port: DefaultPort}
	if raw == "" {
		return ep, nil
	}
	idx := strings.LastIndexByte(raw, ':')
	if idx < 0 {
		ep.Host = raw
		return ep, nil
	}
	host, portText := raw[:idx], raw[idx+1:]
	if host != "" {
		ep.Host = host
	}
	if portText != "" {
		port, err := strconv.Atoi(portText)
		if err != nil || port <= 0 || port > 65535 {
			return Endpoint{}, fmt.Errorf("config: invalid port in REMOTE_LDB %q", raw)
		}
		ep.Port = port
	}
	return ep, nil
}

// ControllerFlags is the CLI's resolved listen address
// (`-a<ip>`/`-p<port>`), defaulting the same way REMOTE_LDB does, plus
// the optional domain-stack wiring (session recording, metrics,
// live dashboard, registry label) a plain `.rdbrc`/flag-free run
// leaves disabled.
type ControllerFlags struct {
	Addr string
	Port int

	SessionLogPath string // empty disables session recording
	MetricsAddr    string // empty disables the /metrics HTTP endpoint
	DashboardAddr  string // empty disables the live websocket dashboard
	RegistryAddr   string // empty disables the Redis endpoint registry
	Label          string // this session's registry label, if RegistryAddr is set
	TracingEnabled bool
}

func DefaultControllerFlags() ControllerFlags {
	return ControllerFlags{Addr: DefaultHost, Port: DefaultPort}
}

func (f ControllerFlags) Endpoint() Endpoint {
	return Endpoint{Host: f.Addr, Port: f.Port}
}

// RC is optional controller preferences loaded from a `.rdbrc` YAML
// file in the working directory.
type RC struct {
	Addr    string `yaml:"addr"`
	Port    int    `yaml:"port"`
	NoColor bool   `yaml:"no_color"`

	SessionLogPath string `yaml:"session_log"`
	MetricsAddr    string `yaml:"metrics_addr"`
	DashboardAddr  string `yaml:"dashboard_addr"`
	RegistryAddr   string `yaml:"registry_addr"`
	Label          string `yaml:"label"`
	TracingEnabled bool   `yaml:"tracing_enabled"`
}

// LoadRC reads path if it exists; a missing file yields the zero
// value with no error, since `.rdbrc` is always optional.
func LoadRC(path string) (RC, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RC{}, nil
		}
		return RC{}, err
	}
	var rc RC
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return RC{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return rc, nil
}

// Apply overlays non-zero RC fields onto flags, flags taking
// precedence only where explicitly set by the caller (handled by the
// caller passing the CLI's parsed, not-default, values).
func (rc RC) Apply(flags ControllerFlags) ControllerFlags {
	if rc.Addr != "" {
		flags.Addr = rc.Addr
	}
	if rc.Port != 0 {
		flags.Port = rc.Port
	}
	if rc.SessionLogPath != "" {
		flags.SessionLogPath = rc.SessionLogPath
	}
	if rc.MetricsAddr != "" {
		flags.MetricsAddr = rc.MetricsAddr
	}
	if rc.DashboardAddr != "" {
		flags.DashboardAddr = rc.DashboardAddr
	}
	if rc.RegistryAddr != "" {
		flags.RegistryAddr = rc.RegistryAddr
	}
	if rc.Label != "" {
		flags.Label = rc.Label
	}
	if rc.TracingEnabled {
		flags.TracingEnabled = true
	}
	return flags
}
