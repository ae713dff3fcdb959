package ports

// ProgressEvent is the structured progress notification pushed to the UI
// after every minted unit and every batch boundary.
type ProgressEvent struct {
	JobId     string `json:"jobId"`
	Completed int    `json:"completedCount"`
	Target    int    `json:"targetCount"`
	TxId      string `json:"lastTransactionId,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// ProgressPublisher pushes progress events toward the UI layer. Publish must
// never block the scheduler: a slow or absent consumer loses events, it does
// not stall or fail the job.
type ProgressPublisher interface {
	Publish(event ProgressEvent)
}
