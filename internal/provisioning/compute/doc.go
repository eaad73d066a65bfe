// Package compute provisions the smoke test fleet in Farm.
//
// It discovers the active zones, creates one machine per zone, checks that
// every zone received a machine, boots the fleet from the uploaded config
// image and waits until each machine serves its probe payload.
package compute
