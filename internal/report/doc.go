// Package report turns a failed run into an alert and delivers it.
//
// The alert is first written as JSON into the artifacts directory so that it
// can be sent later by a separate process. Delivery goes to a Slack webhook,
// once per channel, and optionally to a NATS subject.
package report
