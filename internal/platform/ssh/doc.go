// Package ssh provides an SSH client for running commands on remote machines.
//
// A Client holds the parsed credentials for one host. Connect opens a
// connection that is reused for many commands; Conn.Run executes one command
// per session and reports its exit status with bounded stderr. Host keys are
// not verified by default since every target is a freshly booted, disposable VM.
package ssh
