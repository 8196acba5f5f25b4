package host

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/space-operator/space-go/envelope"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
module: ./build/swap.wasm
codec: msgpack
log_level: debug
max_request_size: 4096
memory_pages: 256
http:
  timeout: 5s
  max_body_size: 1024
  follow_redirects: false
  allowed:
    - hosts: ["*.solana.com"]
      ports: ["443", "8899"]
`))
	require.NoError(t, err)

	assert.Equal(t, "./build/swap.wasm", cfg.Module)
	assert.Equal(t, uint32(4096), cfg.MaxRequestSize)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	require.NotNil(t, cfg.HTTP.FollowRedirects)
	assert.False(t, *cfg.HTTP.FollowRedirects)
	require.Len(t, cfg.HTTP.Allowed, 1)
	assert.Equal(t, []string{"443", "8899"}, cfg.HTTP.Allowed[0].Ports)
	httpOpts, err := cfg.HTTPOptions(nil)
	require.NoError(t, err)
	assert.Len(t, httpOpts, 4)

	codec, err := cfg.CodecValue()
	require.NoError(t, err)
	assert.Equal(t, envelope.CodecMessagePack, codec.Name())
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("module: a.wasm\n"))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, cfg.Level())
	httpOpts, err := cfg.HTTPOptions(nil)
	require.NoError(t, err)
	assert.Empty(t, httpOpts)

	codec, err := cfg.CodecValue()
	require.NoError(t, err)
	assert.Equal(t, envelope.CodecCBOR, codec.Name())

	opts, err := cfg.Options(nil)
	require.NoError(t, err)
	assert.Len(t, opts, 5)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "missing module", yaml: "codec: cbor\n", wantErr: "module"},
		{name: "unknown codec", yaml: "module: a.wasm\ncodec: json\n", wantErr: "codec"},
		{name: "unknown key", yaml: "module: a.wasm\nplugins: []\n", wantErr: "plugins"},
		{name: "tiny request limit", yaml: "module: a.wasm\nmax_request_size: 8\n", wantErr: "max_request_size"},
		{name: "bad level", yaml: "module: a.wasm\nlog_level: loud\n", wantErr: "log_level"},
		{name: "not yaml", yaml: "module: [unterminated\n", wantErr: "parse"},
		{name: "rule without hosts", yaml: "module: a.wasm\nhttp:\n  allowed:\n    - ports: [\"443\"]\n", wantErr: "hosts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseConfig_ZeroMaxRedirects(t *testing.T) {
	cfg, err := ParseConfig([]byte("module: a.wasm\nhttp:\n  max_redirects: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.HTTP.MaxRedirects)
	assert.Zero(t, *cfg.HTTP.MaxRedirects)

	httpOpts, err := cfg.HTTPOptions(nil)
	require.NoError(t, err)
	assert.Len(t, httpOpts, 1, "an explicit zero is passed through")

	_, err = ParseConfig([]byte("module: a.wasm\nhttp:\n  max_redirects: -1\n"))
	assert.ErrorContains(t, err, "max_redirects")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "space.yaml")
	require.NoError(t, os.WriteFile(path, []byte("module: guest.wasm\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "guest.wasm", cfg.Module)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}
