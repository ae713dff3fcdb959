package ports

import (
	"context"

	"github.com/halcyon-wallet/halcyond/pkg/explorer"
)

// KeySource is the credential vault as seen by the orchestrator: it resolves
// the signing handle for an address, provided the vault is unlocked. It must
// fail with domain.ErrVaultLocked when locked and domain.ErrKeyNotFound when
// no key is stored for the address.
type KeySource interface {
	ResolvePrivateKey(ctx context.Context, address string) (explorer.Signer, error)
}
