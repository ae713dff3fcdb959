package inmemory

import (
	"context"
	"sync"

	"github.com/halcyon-wallet/halcyond/internal/core/domain"
)

type walletRepositoryImpl struct {
	lock    *sync.RWMutex
	wallets map[string]*domain.Wallet
}

// NewWalletRepositoryImpl returns an in-memory implementation of the
// domain.WalletRepository interface, used in tests.
func NewWalletRepositoryImpl() domain.WalletRepository {
	return &walletRepositoryImpl{
		lock:    &sync.RWMutex{},
		wallets: map[string]*domain.Wallet{},
	}
}

func (r *walletRepositoryImpl) AddWallet(
	_ context.Context, wallet *domain.Wallet,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.wallets[wallet.Name]; ok {
		return domain.ErrWalletAlreadyExists
	}
	r.wallets[wallet.Name] = wallet
	return nil
}

func (r *walletRepositoryImpl) GetWalletByName(
	_ context.Context, name string,
) (*domain.Wallet, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	wallet, ok := r.wallets[name]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return wallet, nil
}

func (r *walletRepositoryImpl) GetAllWallets(
	_ context.Context,
) ([]*domain.Wallet, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	wallets := make([]*domain.Wallet, 0, len(r.wallets))
	for _, wallet := range r.wallets {
		wallets = append(wallets, wallet)
	}
	return wallets, nil
}

func (r *walletRepositoryImpl) RenameWallet(
	_ context.Context, oldName, newName string,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if newName == "" {
		return domain.ErrInvalidWalletName
	}
	wallet, ok := r.wallets[oldName]
	if !ok {
		return domain.ErrWalletNotFound
	}
	if _, ok := r.wallets[newName]; ok {
		return domain.ErrWalletAlreadyExists
	}
	delete(r.wallets, oldName)
	wallet.Name = newName
	r.wallets[newName] = wallet
	return nil
}

func (r *walletRepositoryImpl) DeleteWallet(
	_ context.Context, name string,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.wallets[name]; !ok {
		return domain.ErrWalletNotFound
	}
	delete(r.wallets, name)
	return nil
}
