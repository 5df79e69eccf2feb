// Package config loads, normalizes, and validates unpakr's TOML
// configuration.
//
// A Config is constructed exactly once at startup and passed by pointer into
// every component; nothing in the program mutates it afterwards. The reserved
// lock and marker filenames ride on the Config rather than in TOML because
// they form the on-disk contract with previous runs.
package config
