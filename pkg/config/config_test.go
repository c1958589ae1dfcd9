package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEndpointEmptyUsesDefaults(t *testing.T) {
	ep, err := ParseEndpoint("")
	require.NoError(t, err)
	require.Equal(t, Endpoint{Host: DefaultHost, Port: DefaultPort}, ep)
}

func TestParseEndpointHostOnly(t *testing.T) {
	ep, err := ParseEndpoint("10.0.0.5")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5", ep.Host)
	require.Equal(t, DefaultPort, ep.Port)
}

func TestParseEndpointPortOnly(t *testing.T) {
	ep, err := ParseEndpoint(":9000")
	require.NoError(t, err)
	require.Equal(t, DefaultHost, ep.Host)
	require.Equal(t, 9000, ep.Port)
}

func TestParseEndpointHostAndPort(t *testing.T) {
	ep, err := ParseEndpoint("example.com:4444")
	require.NoError(t, err)
	require.Equal(t, "example.com", ep.Host)
	require.Equal(t, 4444, ep.Port)
}

func TestParseEndpointInvalidPort(t *testing.T) {
	_, err := ParseEndpoint("example.com:notaport")
	require.Error(t, err)
}

func TestLoadRCMissingFileIsNotAnError(t *testing.T) {
	rc, err := LoadRC(filepath.Join(t.TempDir(), "missing.rdbrc"))
	require.NoError(t, err)
	require.Equal(t, RC{}, rc)
}

func TestLoadRCParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".rdbrc")
	require.NoError(t, os.WriteFile(path, []byte("addr: 0.0.0.0\nport: 3000\nno_color: true\n"), 0o644))

	rc, err := LoadRC(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", rc.Addr)
	require.Equal(t, 3000, rc.Port)
	require.True(t, rc.NoColor)
}

func TestApplyOverlaysNonZeroFields(t *testing.T) {
	flags := DefaultControllerFlags()
	rc := RC{Port: 5000}
	got := rc.Apply(flags)
	require.Equal(t, DefaultHost, got.Addr)
	require.Equal(t, 5000, got.Port)
}
