// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads daemon configuration from the environment.
package config

import (
	"github.com/caarlos0/env/v11"
)

// Config holds all carbonledgerd settings, populated from environment
// variables with the defaults below.
type Config struct {
	// APIAddr is the listen address of the public JSON API.
	APIAddr string `env:"API_ADDR" envDefault:":8080"`

	// OpsAddr is the listen address of the operational endpoints
	// (health, metrics).
	OpsAddr string `env:"OPS_ADDR" envDefault:":9090"`

	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DBType selects the store backend: badger or memory.
	DBType string `env:"DB_TYPE" envDefault:"badger"`

	// DBPath is the on-disk location for the badger backend.
	DBPath string `env:"DB_PATH" envDefault:"/var/lib/carbonledger"`

	// Estimator selects the footprint backend: linear or paillier.
	Estimator string `env:"ESTIMATOR" envDefault:"linear"`

	// PaillierBits is the modulus size for the paillier estimator.
	PaillierBits int `env:"PAILLIER_BITS" envDefault:"2048"`

	// Sealer selects the payload sealer: base64 (demo wire format) or
	// hpke. The hpke sealer requires SealKey.
	Sealer string `env:"SEALER" envDefault:"base64"`

	// SealKey is the base64-encoded X25519 recipient public key for the
	// hpke sealer.
	SealKey string `env:"SEAL_KEY"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
