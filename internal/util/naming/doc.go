// Package naming centralizes the names of everything a smoke test run creates.
//
// Farm groups, VMs and local artifacts follow fixed patterns so that leaked
// resources from earlier runs can be recognized by prefix and cleaned up.
package naming
