package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
)

// LoadFromFile reads a ClientConfig from a JSON or YAML file, applies
// defaults and validates it. The format is chosen by extension (.yaml, .yml
// for YAML, otherwise JSON).
func LoadFromFile(path string) (*ClientConfig, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if isYAML(path) {
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// ParseYAML parses YAML bytes into a validated ClientConfig.
func ParseYAML(data []byte) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return finish(&cfg)
}

// ParseJSON parses JSON bytes into a validated ClientConfig.
func ParseJSON(data []byte) (*ClientConfig, error) {
	if !json.Valid(data) {
		return nil, ErrInvalidJSON
	}
	var cfg ClientConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return finish(&cfg)
}

func finish(cfg *ClientConfig) (*ClientConfig, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// ToYAML marshals a ClientConfig to YAML bytes.
func ToYAML(cfg *ClientConfig) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return data, nil
}

// LoadFieldMap reads a FieldMap from a JSON or YAML file and validates it.
func LoadFieldMap(path string) (*FieldMap, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var m FieldMap
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	} else {
		if !json.Valid(data) {
			return nil, fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &m, nil
}

// readFile reads path, mapping common failures to the package errors.
func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return data, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
