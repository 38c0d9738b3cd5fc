package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getmockd/ewsoap/pkg/logging"
	"github.com/getmockd/ewsoap/pkg/soap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := writeFile(t, "client.yaml", `
endpoint: https://mail.example.com/EWS/Exchange.asmx
username: alice
password: secret
version: Exchange2013
retries: 2
headers:
  X-AnchorMailbox: alice@example.com
log:
  level: debug
  format: json
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://mail.example.com/EWS/Exchange.asmx", cfg.Endpoint)
	assert.Equal(t, "alice", cfg.Username)
	assert.Equal(t, "Exchange2013", cfg.Version)
	assert.Equal(t, 2, cfg.Retries)
	assert.Equal(t, soap.DefaultTimeoutSeconds, cfg.TimeoutSeconds)
	assert.Equal(t, soap.DefaultEncoding, cfg.Encoding)
	assert.Equal(t, "alice@example.com", cfg.Headers["X-AnchorMailbox"])

	lc := cfg.LoggingConfig()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)

	tc := cfg.TransportConfig()
	assert.Equal(t, cfg.Endpoint, tc.Endpoint)
	assert.Equal(t, "secret", tc.Password)
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := writeFile(t, "client.json", `{"endpoint": "https://mail.example.com/EWS/Exchange.asmx", "timeoutSeconds": 60}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.TimeoutSeconds)
	assert.Equal(t, soap.DefaultRetries, cfg.Retries)
	assert.Equal(t, soap.DefaultServerVersion, cfg.Version)
}

func TestLoadFromFile_Timezone(t *testing.T) {
	path := writeFile(t, "client.yaml", `
timezone:
  name: UTC
  id: UTC
  periods:
    - {bias: P0DT0H0M0.0S, name: Standard, id: Std}
  transitions:
    - kind: Transition
      to: {kind: Period, value: Std}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Timezone)

	b := cfg.EnvelopeBuilder()
	assert.Equal(t, "UTC", b.Timezone.ID)
	assert.Equal(t, soap.KindTransition, b.Timezone.Transitions[0].Kind)
}

func TestLoadFromFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		target  error
		msg     string
	}{
		{"invalid yaml", "bad.yaml", "endpoint: [unclosed", ErrInvalidYAML, ""},
		{"invalid json", "bad.json", "{not json", ErrInvalidJSON, ""},
		{"empty", "empty.yaml", "", ErrEmptyFile, ""},
		{"relative endpoint", "rel.yaml", "endpoint: /EWS/Exchange.asmx", nil, "absolute URL"},
		{"negative retries", "neg.yaml", "retries: -1", nil, "retries must not be negative"},
		{"bad timezone", "tz.yaml", "timezone:\n  id: X\n  transitions:\n    - kind: Transition\n      to: {kind: Group, value: '9'}\n", nil, "timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = LoadFromFile(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}

func TestToYAML_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Endpoint = "https://mail.example.com/EWS/Exchange.asmx"
	cfg.Timezone = soap.PacificTimezone()

	data, err := ToYAML(cfg)
	require.NoError(t, err)

	back, err := ParseYAML(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)

	_, err = ToYAML(nil)
	assert.Error(t, err)
}

func TestClientConfig_SendOptions(t *testing.T) {
	var got struct{ retries, timeout int }
	tr := soap.TransportFunc(func(_ context.Context, _ []byte, _ map[string]string, retries, timeout int) (string, error) {
		got.retries, got.timeout = retries, timeout
		return `<r/>`, nil
	})

	cfg := Default()
	cfg.Retries, cfg.TimeoutSeconds = 7, 11
	_, err := soap.NewClient(tr).Send(context.Background(), nil, cfg.SendOptions()...)
	require.NoError(t, err)
	assert.Equal(t, 7, got.retries)
	assert.Equal(t, 11, got.timeout)
}

func TestLoadFieldMap(t *testing.T) {
	path := writeFile(t, "attendees.yaml", `
root: //t:Attendee
namespaces:
  x: urn:example
fields:
  name: t:Mailbox/t:Name
  since:
    query: t:Created
    cast: datetime
  flag:
    xpath: x:Flag
    cast: bool
`)

	fm, err := LoadFieldMap(path)
	require.NoError(t, err)
	assert.Equal(t, "//t:Attendee", fm.Root)
	assert.Equal(t, soap.FieldSpec{Query: "t:Mailbox/t:Name"}, fm.Fields["name"])
	assert.Equal(t, soap.FieldSpec{Query: "t:Created", Cast: soap.CastDateTime}, fm.Fields["since"])
	assert.Equal(t, soap.FieldSpec{Query: "x:Flag", Cast: soap.CastBool}, fm.Fields["flag"])

	ns := fm.NamespacesWith(soap.DefaultNamespaces())
	assert.Equal(t, "urn:example", ns["x"])
	assert.Equal(t, soap.TypesNamespace, ns["t"])
}

func TestLoadFieldMap_JSON(t *testing.T) {
	path := writeFile(t, "fields.json", `{"fields": {"id": {"query": "//t:ItemId/@Id"}, "size": {"query": "//t:Size", "cast": "int"}}}`)

	fm, err := LoadFieldMap(path)
	require.NoError(t, err)
	assert.Equal(t, soap.CastInt, fm.Fields["size"].Cast)
	assert.Empty(t, fm.Root)
}

func TestLoadFieldMap_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		msg     string
	}{
		{"no fields", "empty.yaml", "root: //t:Attendee\n", "no fields"},
		{"unknown cast", "cast.yaml", "fields:\n  a:\n    query: t:A\n    cast: float\n", "unknown cast"},
		{"missing query", "query.yaml", "fields:\n  a:\n    cast: int\n", "requires a query"},
		{"bad json", "bad.json", `{"fields": `, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFieldMap(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
