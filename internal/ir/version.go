package ir

const (
	// RecordVersion is the version of the recorded transition format.
	RecordVersion = "1"

	// Version is the heaplab release version.
	Version = "0.1.0"
)
