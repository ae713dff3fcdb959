package domain

const (
	// OutcomeStatusSuccess ...
	OutcomeStatusSuccess = "success"
	// OutcomeStatusFailed ...
	OutcomeStatusFailed = "failed"
)

// TransferOutcome is the per-wallet result of a fan-out dispatch, immutable
// after creation. The list holding outcomes is ordered by completion, not by
// input order.
type TransferOutcome struct {
	Sender string
	Status string
	TxId   string
	Error  string
}

// NewTransferSuccess returns a successful outcome carrying the broadcasted
// transaction id.
func NewTransferSuccess(sender, txid string) TransferOutcome {
	return TransferOutcome{
		Sender: sender,
		Status: OutcomeStatusSuccess,
		TxId:   txid,
	}
}

// NewTransferFailure returns a failed outcome carrying the error message.
func NewTransferFailure(sender string, err error) TransferOutcome {
	return TransferOutcome{
		Sender: sender,
		Status: OutcomeStatusFailed,
		Error:  err.Error(),
	}
}

// AllSucceeded returns whether a dispatch can be considered fully successful,
// ie. none of the outcomes is failed.
func AllSucceeded(outcomes []TransferOutcome) bool {
	for _, o := range outcomes {
		if o.Status == OutcomeStatusFailed {
			return false
		}
	}
	return true
}
