package connectivity

// PartitionError means at least one machine could not download the payload
// from another. Matrix is the plain rendering of the full result.
type PartitionError struct {
	Matrix   string
	Failures int
}

func (e *PartitionError) Error() string {
	return "Not all VMs can download files from each other.\n" + e.Matrix
}
