// Package connectivity checks that every machine of a fleet can download the
// probe payload from every other machine.
//
// The result is an N×N Matrix ordered like the fleet. Row i holds what
// machine i could fetch; column j is the machine serving the payload.
// A matrix that is not all true is reported as a PartitionError carrying
// the rendered matrix.
package connectivity
