package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/getmockd/ewsoap/pkg/logging"
	"github.com/getmockd/ewsoap/pkg/soap"
	"github.com/getmockd/ewsoap/pkg/transport"
)

// ClientConfig configures an ewsoap client and its HTTP transport.
type ClientConfig struct {
	Endpoint       string                   `json:"endpoint" yaml:"endpoint"`
	Username       string                   `json:"username,omitempty" yaml:"username,omitempty"`
	Password       string                   `json:"password,omitempty" yaml:"password,omitempty"`
	Version        string                   `json:"version,omitempty" yaml:"version,omitempty"`
	Encoding       string                   `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Retries        int                      `json:"retries,omitempty" yaml:"retries,omitempty"`
	TimeoutSeconds int                      `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
	Headers        map[string]string        `json:"headers,omitempty" yaml:"headers,omitempty"`
	Compression    bool                     `json:"compression,omitempty" yaml:"compression,omitempty"`
	Cookies        bool                     `json:"cookies,omitempty" yaml:"cookies,omitempty"`
	Log            LogConfig                `json:"log,omitempty" yaml:"log,omitempty"`
	Timezone       *soap.TimezoneDefinition `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Default returns a configuration with every optional field set.
func Default() *ClientConfig {
	cfg := &ClientConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with the protocol defaults.
func (c *ClientConfig) ApplyDefaults() {
	if c.Version == "" {
		c.Version = soap.DefaultServerVersion
	}
	if c.Encoding == "" {
		c.Encoding = soap.DefaultEncoding
	}
	if c.Retries == 0 {
		c.Retries = soap.DefaultRetries
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = soap.DefaultTimeoutSeconds
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = string(logging.FormatText)
	}
}

// Validate checks the configuration for values that would fail at send time.
// An empty endpoint is allowed; commands that send require one.
func (c *ClientConfig) Validate() error {
	var errs []error
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("endpoint must be an absolute URL: %q", c.Endpoint))
		}
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative: %d", c.Retries))
	}
	if c.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("timeoutSeconds must not be negative: %d", c.TimeoutSeconds))
	}
	if c.Timezone != nil {
		if err := c.Timezone.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("timezone: %w", err))
		}
	}
	return errors.Join(errs...)
}

// EnvelopeBuilder returns a builder for the configured version and timezone.
func (c *ClientConfig) EnvelopeBuilder() *soap.EnvelopeBuilder {
	b := soap.NewEnvelopeBuilder()
	if c.Version != "" {
		b.Version = c.Version
	}
	if c.Timezone != nil {
		b.Timezone = c.Timezone
	}
	return b
}

// SendOptions returns the per-call options implied by the configuration.
func (c *ClientConfig) SendOptions() []soap.SendOption {
	opts := []soap.SendOption{
		soap.WithRetries(c.Retries),
		soap.WithTimeout(c.TimeoutSeconds),
	}
	if c.Encoding != "" {
		opts = append(opts, soap.WithEncoding(c.Encoding))
	}
	return opts
}

// TransportConfig returns the HTTP transport settings.
func (c *ClientConfig) TransportConfig() transport.Config {
	return transport.Config{
		Endpoint:    c.Endpoint,
		Username:    c.Username,
		Password:    c.Password,
		Headers:     c.Headers,
		Compression: c.Compression,
		Cookies:     c.Cookies,
	}
}

// LoggingConfig returns the logging settings.
func (c *ClientConfig) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	cfg.Format = logging.ParseFormat(c.Log.Format)
	return cfg
}

// FieldMap is a property map file: the fields to extract, an optional root
// query selecting the elements to extract from, and extra namespace
// prefixes.
type FieldMap struct {
	Root       string            `json:"root,omitempty" yaml:"root,omitempty"`
	Namespaces map[string]string `json:"namespaces,omitempty" yaml:"namespaces,omitempty"`
	Fields     soap.PropertyMap  `json:"fields" yaml:"fields"`
}

// Validate checks that the map has fields and that every cast is known.
func (m *FieldMap) Validate() error {
	if len(m.Fields) == 0 {
		return errors.New("field map has no fields")
	}
	for name, spec := range m.Fields {
		if spec.Query == "" {
			return fmt.Errorf("field %q: query is required", name)
		}
		if !spec.Cast.Valid() {
			return fmt.Errorf("field %q: unknown cast %d", name, int(spec.Cast))
		}
	}
	return nil
}

// NamespacesWith merges the map's prefixes over base.
func (m *FieldMap) NamespacesWith(base soap.Namespaces) soap.Namespaces {
	ns := base
	for prefix, uri := range m.Namespaces {
		ns = ns.With(prefix, uri)
	}
	return ns
}
