// Package config defines the settings of a smoke test run.
//
// [Config] is assembled from three layers, later layers winning: built-in
// defaults ([Default]), an optional YAML file ([LoadFile]) and environment
// variables ([Config.ApplyEnv]). Command line flags are applied last by the
// CLI. [Config.Validate] must pass before a run starts.
package config
