// Package config defines Parapet's YAML configuration: the policy source,
// the audit trail, and telemetry. Load applies defaults, PARAPET_*
// environment overrides, and validation in that order.
package config
