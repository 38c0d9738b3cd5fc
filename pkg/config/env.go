package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvEndpoint = "EWSOAP_ENDPOINT"
	EnvUsername = "EWSOAP_USERNAME"
	EnvPassword = "EWSOAP_PASSWORD"
	EnvVersion  = "EWSOAP_VERSION"
	EnvRetries  = "EWSOAP_RETRIES"
	EnvTimeout  = "EWSOAP_TIMEOUT"
)

// LookupFunc looks up a variable by name, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// EnvFile returns a LookupFunc that reads variables from a dotenv file and
// falls back to the process environment. The process environment is not
// modified.
func EnvFile(path string) (LookupFunc, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if v, ok := vars[key]; ok {
			return v, true
		}
		return os.LookupEnv(key)
	}, nil
}

// ApplyEnv overrides connection settings from environment variables.
// Unset or empty variables leave the current value alone.
func (c *ClientConfig) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	if v := get(EnvEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := get(EnvUsername); v != "" {
		c.Username = v
	}
	if v := get(EnvPassword); v != "" {
		c.Password = v
	}
	if v := get(EnvVersion); v != "" {
		c.Version = v
	}
	if v := get(EnvRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRetries, err)
		}
		c.Retries = n
	}
	if v := get(EnvTimeout); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.TimeoutSeconds = n
	}
	return nil
}
