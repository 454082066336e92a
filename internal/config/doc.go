// Package config defines device connection settings and deployment defaults
// and provides helpers to load, validate and save them in YAML format.
//
// Values from the settings file can be overridden through SDB_* environment
// variables, which may also come from a .env file in the working directory.
package config
