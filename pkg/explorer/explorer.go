package explorer

import (
	"context"
	"math/big"
)

// Signer is an opaque handle on a private key resolved from the vault. The
// raw key never leaves the vault package; the explorer client only asks it
// to sign the canonical payload of a submission.
type Signer interface {
	Address() string
	Sign(message []byte) ([]byte, error)
}

// TxOutput is a single recipient of a transfer submission.
type TxOutput struct {
	Address string
	Amount  *big.Int
}

// AssetInfo is the on-chain metadata of a ticker-named token.
type AssetInfo struct {
	Ticker    string `json:"ticker"`
	Decimals  uint32 `json:"decimals"`
	MaxSupply string `json:"maxSupply"`
	Minted    string `json:"minted"`
	State     string `json:"state"`
}

// Service is the representation of the remote RPC/indexer node. It allows to
// query balances and token metadata and to submit transfer and mint
// operations. Transaction construction, coin selection and fee estimation all
// happen node-side; the client only signs and submits.
type Service interface {
	// Connect verifies the node is reachable. It is idempotent.
	Connect() error
	// Close releases the underlying connections. It is idempotent.
	Close() error
	// GetBalance returns the native balance of an address as a decimal string.
	GetBalance(ctx context.Context, address string) (string, error)
	// GetAssetBalance returns the balance of an address for the given ticker.
	// An empty string means the address has no holding yet.
	GetAssetBalance(ctx context.Context, address, ticker string) (string, error)
	// GetAssetInfo returns the metadata of a deployed token.
	GetAssetInfo(ctx context.Context, ticker string) (*AssetInfo, error)
	// SubmitTransfer signs and broadcasts a native-asset transfer to the given
	// outputs and returns its transaction id.
	SubmitTransfer(
		ctx context.Context, signer Signer, outs []TxOutput, feeCeiling *big.Int,
	) (string, error)
	// SubmitAssetTransfer signs and broadcasts a token transfer.
	SubmitAssetTransfer(
		ctx context.Context, signer Signer, ticker string, outs []TxOutput,
		feeCeiling *big.Int,
	) (string, error)
	// SubmitMint signs and broadcasts a single mint operation for the given
	// ticker and returns its transaction id.
	SubmitMint(
		ctx context.Context, signer Signer, ticker string, feeCeiling *big.Int,
	) (string, error)
}
