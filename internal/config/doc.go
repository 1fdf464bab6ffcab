// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Every field has a default, so both binaries also run without a file; see
// configs/deribit-marks.example.yaml.
package config
