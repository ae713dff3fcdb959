package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Wallet is the data structure representing a registered wallet. The private
// key never appears here, only the address it controls; key material lives in
// the vault keyed by address.
type Wallet struct {
	Id        string
	Name      string
	Address   string
	CreatedAt int64
}

// NewWallet returns a wallet with a new id after validating its arguments.
func NewWallet(name, address string) (*Wallet, error) {
	if name == "" {
		return nil, ErrInvalidWalletName
	}
	if address == "" {
		return nil, ErrInvalidAddress
	}
	return &Wallet{
		Id:        uuid.New().String(),
		Name:      name,
		Address:   address,
		CreatedAt: time.Now().Unix(),
	}, nil
}

// WalletRepository is the interface for the persistent wallet registry.
type WalletRepository interface {
	// AddWallet stores a new wallet, failing with ErrWalletAlreadyExists if
	// the name is taken.
	AddWallet(ctx context.Context, wallet *Wallet) error
	// GetWalletByName returns the wallet with the given name, or
	// ErrWalletNotFound.
	GetWalletByName(ctx context.Context, name string) (*Wallet, error)
	// GetAllWallets returns all registered wallets.
	GetAllWallets(ctx context.Context) ([]*Wallet, error)
	// RenameWallet changes the name of a wallet.
	RenameWallet(ctx context.Context, oldName, newName string) error
	// DeleteWallet removes a wallet from the registry.
	DeleteWallet(ctx context.Context, name string) error
}
