// Package config defines the engine configuration: strict mode, the
// per-condition error behaviors, and scenario loading options. Configuration
// loads from a single YAML file with tolerant defaults when the file or any
// field is absent.
package config
