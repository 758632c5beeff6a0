package main

import (
	"os"

	"parapet-hq/parapet/pkg/config"
)

// loadConfig reads the --config file when it exists, falling back to the
// built-in defaults so commands work without one.
func loadConfig() *config.Config {
	if _, err := os.Stat(cfgFile); err != nil {
		return config.DefaultConfig()
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// auditDBFromConfig resolves the audit database path from configuration.
func auditDBFromConfig() string {
	return loadConfig().Audit.Path
}

// policyPathFromConfig resolves the policy path from configuration.
func policyPathFromConfig() string {
	return loadConfig().Policy.Path
}
