package domain

import "errors"

var (
	// ErrConfigNotFound is returned when an explicitly requested attribution
	// config does not exist or is inactive. Only the no-id path may fall back
	// to auto-provisioning a default.
	ErrConfigNotFound = errors.New("attribution config not found")

	// ErrNoDefaultConfig is returned by the config store when no config is
	// flagged as default.
	ErrNoDefaultConfig = errors.New("no default attribution config")

	// ErrResultNotFound is returned when no stored result exists for a
	// conversion id.
	ErrResultNotFound = errors.New("attribution result not found")

	// ErrConfigExists is returned when creating a config with an id that is
	// already stored.
	ErrConfigExists = errors.New("attribution config already exists")
)
