package config

import (
	"fmt"
	"os"

	"github.com/alex4o/mcpd/internal/paths"
	"gopkg.in/yaml.v3"
)

// Load reads mcpd.yml from the standard search path and returns the parsed
// Config with placeholders expanded. If no config file exists, it returns
// an empty Config (no error) — an mcpd with no declared services is valid.
func Load() (*Config, error) {
	return LoadFrom(paths.ConfigFile())
}

// LoadFrom reads and parses a config file at the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Services: make(map[string]ServiceConfig)}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config %s: %v", ErrConfig, path, err)
	}
	if cfg.Services == nil {
		cfg.Services = make(map[string]ServiceConfig)
	}

	root, err := workspaceRoot()
	if err != nil {
		return nil, err
	}
	expandConfigPlaceholders(&cfg, root)

	return &cfg, nil
}

// ExampleConfigPath returns the default config file path (for help/init messages).
func ExampleConfigPath() string {
	return paths.ConfigFile()
}

func expandConfigPlaceholders(cfg *Config, workspaceRoot string) {
	if cfg == nil {
		return
	}
	for name, svc := range cfg.Services {
		cfg.Services[name] = expandServicePlaceholders(svc, workspaceRoot)
	}
}

func expandServicePlaceholders(svc ServiceConfig, workspaceRoot string) ServiceConfig {
	expand := func(s string) string { return expandPlaceholders(s, workspaceRoot) }

	svc.Command = expand(svc.Command)
	svc.Cwd = expand(svc.Cwd)
	svc.URL = expand(svc.URL)

	for i := range svc.Args {
		svc.Args[i] = expand(svc.Args[i])
	}
	for i := range svc.ExcludeTools {
		svc.ExcludeTools[i] = expand(svc.ExcludeTools[i])
	}
	for k, v := range svc.Env {
		svc.Env[k] = expand(v)
	}
	if svc.Readiness != nil {
		r := *svc.Readiness
		r.URL = expand(r.URL)
		svc.Readiness = &r
	}

	return svc
}

func workspaceRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving workspace root: %w", err)
	}
	return wd, nil
}
