// Package provisioning provides shared types and orchestration for building a smoke test fleet.
//
// # Subpackages
//
//   - image/: SSH credentials, config image build and upload
//   - compute/: zone discovery, VM placement, boot and readiness
//   - fleet/: the ordered provisioning sequence
//
// # Core Types
//
// Context carries configuration, state, the Farm client, observer, tracer and metrics.
// Phase defines a provisioning step with Name() and Provision() methods.
// State accumulates results from each phase (keys, image id, zones, machines).
package provisioning
