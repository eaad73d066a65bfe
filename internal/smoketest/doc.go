// Package smoketest runs one end-to-end infrastructure smoke test.
//
// A run opens an artifacts scope, checks that Farm answers, leases a group,
// provisions one machine per zone, verifies full-mesh connectivity between
// them and releases everything again. Any failure is classified, written to
// an alert file and, when enabled, delivered to Slack and NATS.
package smoketest
