// Package image prepares the boot configuration of the smoke test VMs.
//
// It generates the SSH credentials of a run, writes the activate script that
// serves the probe payload inside every VM, runs the external config image
// builder on the resulting directory, and uploads the image to the Farm group.
package image
