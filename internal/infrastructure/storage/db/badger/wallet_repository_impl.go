package dbbadger

import (
	"context"
	"errors"

	"github.com/timshannon/badgerhold/v4"

	"github.com/halcyon-wallet/halcyond/internal/core/domain"
)

type walletRepositoryImpl struct {
	db *DbManager
}

// NewWalletRepositoryImpl returns a badger implementation of the
// domain.WalletRepository interface, keyed by wallet name.
func NewWalletRepositoryImpl(db *DbManager) domain.WalletRepository {
	return walletRepositoryImpl{db}
}

func (r walletRepositoryImpl) AddWallet(
	_ context.Context, wallet *domain.Wallet,
) error {
	if err := r.db.Store.Insert(wallet.Name, wallet); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return domain.ErrWalletAlreadyExists
		}
		return err
	}
	return nil
}

func (r walletRepositoryImpl) GetWalletByName(
	_ context.Context, name string,
) (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := r.db.Store.Get(name, &wallet); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (r walletRepositoryImpl) GetAllWallets(
	_ context.Context,
) ([]*domain.Wallet, error) {
	wallets := []*domain.Wallet{}
	if err := r.db.Store.Find(&wallets, nil); err != nil {
		return nil, err
	}
	return wallets, nil
}

func (r walletRepositoryImpl) RenameWallet(
	ctx context.Context, oldName, newName string,
) error {
	if newName == "" {
		return domain.ErrInvalidWalletName
	}
	wallet, err := r.GetWalletByName(ctx, oldName)
	if err != nil {
		return err
	}
	if _, err := r.GetWalletByName(ctx, newName); err == nil {
		return domain.ErrWalletAlreadyExists
	}

	// The name is the store key, so a rename is a delete plus an insert.
	if err := r.db.Store.Delete(oldName, &domain.Wallet{}); err != nil {
		return err
	}
	wallet.Name = newName
	return r.db.Store.Insert(newName, wallet)
}

func (r walletRepositoryImpl) DeleteWallet(
	_ context.Context, name string,
) error {
	if err := r.db.Store.Delete(name, &domain.Wallet{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return domain.ErrWalletNotFound
		}
		return err
	}
	return nil
}
