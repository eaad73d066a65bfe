// Package farm is a client for the Farm VM provisioning API.
//
// Client methods perform exactly one HTTP round-trip and return the response
// regardless of its status. CallWithRetry layers the fixed-delay, time-budgeted
// retry policy on top, and LeaseManager scopes a run to a TTL-bound group that is
// deleted on every exit path.
package farm
