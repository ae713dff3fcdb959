package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrJobAlreadyRunning is thrown when starting a job with an id that is still registered
	ErrJobAlreadyRunning = errors.New("a job with the same id is already running")
	// ErrJobNotFound is thrown when requesting the stop of an unknown job id
	ErrJobNotFound = errors.New("job not found")
	// ErrVaultLocked is thrown when resolving a key while the vault is locked
	ErrVaultLocked = errors.New("vault must be unlocked to perform this operation")
	// ErrKeyNotFound is thrown when no private key is stored for the given address
	ErrKeyNotFound = errors.New("private key not found for address")
	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrInvalidTarget ...
	ErrInvalidTarget = errors.New("target count must be a positive integer")
	// ErrInvalidTicker ...
	ErrInvalidTicker = errors.New("asset ticker must not be empty")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("address must not be empty")
	// ErrMissingRecipients ...
	ErrMissingRecipients = errors.New("at least one recipient is required")
	// ErrMissingSenders ...
	ErrMissingSenders = errors.New("at least one sender is required")
	// ErrWalletAlreadyExists ...
	ErrWalletAlreadyExists = errors.New("a wallet with the same name already exists")
	// ErrWalletNotFound ...
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrInvalidWalletName ...
	ErrInvalidWalletName = errors.New("wallet name must not be empty")
	// ErrInvalidJobId ...
	ErrInvalidJobId = errors.New("job id must not be empty")
)

// ErrConfirmationTimeout is returned by the confirmation poller when a balance
// did not move above its baseline within the allotted window.
type ErrConfirmationTimeout struct {
	Asset   string
	Timeout time.Duration
}

func (e ErrConfirmationTimeout) Error() string {
	asset := e.Asset
	if asset == "" {
		asset = "native asset"
	}
	return fmt.Sprintf(
		"balance of %s did not increase within %s", asset, e.Timeout,
	)
}
