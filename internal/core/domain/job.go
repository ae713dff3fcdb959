package domain

import (
	"math/big"
)

const (
	// JobStatusStarting is the status of a job accepted but not yet submitting.
	JobStatusStarting JobStatus = iota
	// JobStatusActive is the status of a job submitting a batch.
	JobStatusActive
	// JobStatusConfirming is the status of a job waiting for its last batch to settle.
	JobStatusConfirming
	// JobStatusFinished is the terminal status of a job that minted all its units.
	JobStatusFinished
	// JobStatusStopped is the terminal status of a job cancelled by the user.
	JobStatusStopped
	// JobStatusError is the terminal status of a job aborted by a failure.
	JobStatusError
)

// JobStatus represents the different statuses that a batch job can assume.
type JobStatus int

func (s JobStatus) String() string {
	switch s {
	case JobStatusStarting:
		return "starting"
	case JobStatusActive:
		return "active"
	case JobStatusConfirming:
		return "confirming"
	case JobStatusFinished:
		return "finished"
	case JobStatusStopped:
		return "stopped"
	case JobStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// IsTerminal returns whether a job in this status is done for good.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusFinished || s == JobStatusStopped || s == JobStatusError
}

// BatchJob is the data structure representing a long-running mint job. Its
// fields are owned by the scheduler goroutine running the job; the only field
// writable from outside is the cancellation flag, set through the registry.
type BatchJob struct {
	Id            string
	WalletAddress string
	Asset         string
	Target        int
	Completed     int
	FeeCeiling    *big.Int
	Status        JobStatus
	LastError     string

	cancelled bool
}

// NewBatchJob returns a job in Starting status after validating its arguments.
func NewBatchJob(
	id, walletAddress, asset string, target int, feeCeiling *big.Int,
) (*BatchJob, error) {
	if id == "" {
		return nil, ErrInvalidJobId
	}
	if walletAddress == "" {
		return nil, ErrInvalidAddress
	}
	if asset == "" {
		return nil, ErrInvalidTicker
	}
	if target <= 0 {
		return nil, ErrInvalidTarget
	}
	if feeCeiling == nil || feeCeiling.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	return &BatchJob{
		Id:            id,
		WalletAddress: walletAddress,
		Asset:         asset,
		Target:        target,
		FeeCeiling:    feeCeiling,
		Status:        JobStatusStarting,
	}, nil
}

// Activate brings the job to Active status at the beginning of a batch.
func (j *BatchJob) Activate() {
	if !j.Status.IsTerminal() {
		j.Status = JobStatusActive
	}
}

// Confirming brings the job to Confirming status once a batch is submitted.
func (j *BatchJob) Confirming() {
	if !j.Status.IsTerminal() {
		j.Status = JobStatusConfirming
	}
}

// Advance increments the completed count by the size of a settled batch.
// The count never exceeds the target.
func (j *BatchJob) Advance(units int) {
	j.Completed += units
	if j.Completed > j.Target {
		j.Completed = j.Target
	}
}

// Finish marks the job terminally successful.
func (j *BatchJob) Finish() {
	j.Status = JobStatusFinished
}

// Stop marks the job terminally cancelled.
func (j *BatchJob) Stop() {
	j.Status = JobStatusStopped
}

// Fail marks the job terminally failed with the given error message.
// Error is reachable from any state.
func (j *BatchJob) Fail(msg string) {
	j.Status = JobStatusError
	j.LastError = msg
}
