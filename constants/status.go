package constants

// RunStatus is the canonical status for rows in verification_run.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusQueued    RunStatus = "QUEUED"     // optional: queued for processing
	RunStatusRunning   RunStatus = "RUNNING"    // in progress
	RunStatusExtractOK RunStatus = "EXTRACT_OK" // stage 1 completed (text assembled)
	RunStatusVerifyOK  RunStatus = "VERIFY_OK"  // stage 2 completed (citations verified)
	RunStatusFailed    RunStatus = "FAILED"     // terminal failure
)
