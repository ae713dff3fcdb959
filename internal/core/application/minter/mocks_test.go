package minter_test

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/halcyon-wallet/halcyond/internal/core/ports"
	"github.com/halcyon-wallet/halcyond/pkg/explorer"
)

/*
 * Signer
 */
type mockSigner struct {
	address string
}

func (m mockSigner) Address() string { return m.address }

func (m mockSigner) Sign(_ []byte) ([]byte, error) {
	return []byte("signature"), nil
}

/*
 * KeySource
 */
type mockKeySource struct {
	err error
}

func (m mockKeySource) ResolvePrivateKey(
	_ context.Context, address string,
) (explorer.Signer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return mockSigner{address}, nil
}

/*
 * Explorer
 */
type mockExplorer struct {
	lock sync.Mutex

	decimals   uint32
	minted     int
	mintErrAt  int
	frozen     bool
	onBalance  func(minted int)
	mintCalls  int
	pollCalls  int
	submitting chan struct{}
}

func newMockExplorer(decimals uint32) *mockExplorer {
	return &mockExplorer{decimals: decimals}
}

func (m *mockExplorer) Connect() error { return nil }
func (m *mockExplorer) Close() error   { return nil }

func (m *mockExplorer) GetBalance(
	_ context.Context, _ string,
) (string, error) {
	return m.balance(), nil
}

func (m *mockExplorer) GetAssetBalance(
	_ context.Context, _, _ string,
) (string, error) {
	m.lock.Lock()
	m.pollCalls++
	callback := m.onBalance
	minted := m.minted
	m.lock.Unlock()

	if callback != nil {
		callback(minted)
	}
	return m.balance(), nil
}

func (m *mockExplorer) GetAssetInfo(
	_ context.Context, ticker string,
) (*explorer.AssetInfo, error) {
	return &explorer.AssetInfo{
		Ticker:    ticker,
		Decimals:  m.decimals,
		MaxSupply: "21000000",
		Minted:    "0",
		State:     "deployed",
	}, nil
}

func (m *mockExplorer) SubmitTransfer(
	_ context.Context, _ explorer.Signer, _ []explorer.TxOutput, _ *big.Int,
) (string, error) {
	return "", fmt.Errorf("not supported")
}

func (m *mockExplorer) SubmitAssetTransfer(
	_ context.Context, _ explorer.Signer, _ string, _ []explorer.TxOutput,
	_ *big.Int,
) (string, error) {
	return "", fmt.Errorf("not supported")
}

func (m *mockExplorer) SubmitMint(
	_ context.Context, _ explorer.Signer, _ string, _ *big.Int,
) (string, error) {
	if m.submitting != nil {
		<-m.submitting
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.mintCalls++
	if m.mintErrAt > 0 && m.mintCalls == m.mintErrAt {
		return "", fmt.Errorf("node rejected the transaction")
	}
	if !m.frozen {
		m.minted++
	}
	return fmt.Sprintf("tx-%d", m.mintCalls), nil
}

// balance mirrors the number of settled mints, so the first poll after a
// batch always sees the increase.
func (m *mockExplorer) balance() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return fmt.Sprintf("%d", m.minted)
}

/*
 * ProgressPublisher
 */
type collectingPublisher struct {
	events chan ports.ProgressEvent
}

func newCollectingPublisher() *collectingPublisher {
	return &collectingPublisher{events: make(chan ports.ProgressEvent, 100)}
}

func (p *collectingPublisher) Publish(event ports.ProgressEvent) {
	p.events <- event
}
