package sender_test

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/halcyon-wallet/halcyond/internal/core/application/sender"
	"github.com/halcyon-wallet/halcyond/internal/core/domain"
	"github.com/halcyon-wallet/halcyond/pkg/explorer"
)

type mockSigner struct {
	address string
}

func (m mockSigner) Address() string { return m.address }
func (m mockSigner) Sign(_ []byte) ([]byte, error) {
	return []byte("signature"), nil
}

// mockKeySource resolves every address except those listed as missing.
type mockKeySource struct {
	missing map[string]struct{}
}

func (m mockKeySource) ResolvePrivateKey(
	_ context.Context, address string,
) (explorer.Signer, error) {
	if _, ok := m.missing[address]; ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrKeyNotFound, address)
	}
	return mockSigner{address}, nil
}

type submission struct {
	sender  string
	outputs []explorer.TxOutput
}

type mockExplorer struct {
	lock sync.Mutex

	decimals       uint32
	failAt         int
	failFor        map[string]struct{}
	submissions    []submission
	assetInfoCalls int
}

func (m *mockExplorer) Connect() error { return nil }
func (m *mockExplorer) Close() error   { return nil }

func (m *mockExplorer) GetBalance(_ context.Context, _ string) (string, error) {
	return "0", nil
}

func (m *mockExplorer) GetAssetBalance(
	_ context.Context, _, _ string,
) (string, error) {
	return "0", nil
}

func (m *mockExplorer) GetAssetInfo(
	_ context.Context, ticker string,
) (*explorer.AssetInfo, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.assetInfoCalls++
	return &explorer.AssetInfo{Ticker: ticker, Decimals: m.decimals}, nil
}

func (m *mockExplorer) SubmitTransfer(
	_ context.Context, signer explorer.Signer, outs []explorer.TxOutput,
	_ *big.Int,
) (string, error) {
	return m.record(signer, outs)
}

func (m *mockExplorer) SubmitAssetTransfer(
	_ context.Context, signer explorer.Signer, _ string,
	outs []explorer.TxOutput, _ *big.Int,
) (string, error) {
	return m.record(signer, outs)
}

func (m *mockExplorer) SubmitMint(
	_ context.Context, _ explorer.Signer, _ string, _ *big.Int,
) (string, error) {
	return "", fmt.Errorf("not supported")
}

func (m *mockExplorer) record(
	signer explorer.Signer, outs []explorer.TxOutput,
) (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.submissions = append(m.submissions, submission{signer.Address(), outs})
	if m.failAt > 0 && len(m.submissions) == m.failAt {
		return "", fmt.Errorf("insufficient funds")
	}
	if _, ok := m.failFor[signer.Address()]; ok {
		return "", fmt.Errorf("insufficient funds")
	}
	return fmt.Sprintf("tx-%d", len(m.submissions)), nil
}

func newTestService(
	keySource mockKeySource, explorerSvc *mockExplorer,
) *sender.Service {
	return sender.NewService(sender.Opts{
		KeySource:   keySource,
		ExplorerSvc: explorerSvc,
	})
}

func recipients(amounts ...string) []sender.Recipient {
	list := make([]sender.Recipient, 0, len(amounts))
	for i, amount := range amounts {
		list = append(list, sender.Recipient{
			Address: fmt.Sprintf("hal1recipient%02d", i),
			Amount:  amount,
		})
	}
	return list
}

func TestOneToManySubBatching(t *testing.T) {
	explorerSvc := &mockExplorer{}
	svc := newTestService(mockKeySource{}, explorerSvc)

	outcomes, err := svc.Dispatch(context.Background(), sender.DispatchRequest{
		Mode:       sender.DispatchModeOneToMany,
		Senders:    []string{"hal1sender"},
		Recipients: recipients("1", "2", "3", "4", "5"),
		FeeCeiling: "1000",
	})
	require.NoError(t, err)

	// 5 recipients with sub-batch size 2: exactly 3 sequential submissions
	// carrying 2, 2 and 1 outputs.
	require.Len(t, explorerSvc.submissions, 3)
	require.Len(t, explorerSvc.submissions[0].outputs, 2)
	require.Len(t, explorerSvc.submissions[1].outputs, 2)
	require.Len(t, explorerSvc.submissions[2].outputs, 1)

	require.Len(t, outcomes, 3)
	require.True(t, domain.AllSucceeded(outcomes))
	for _, outcome := range outcomes {
		require.Equal(t, "hal1sender", outcome.Sender)
		require.NotEmpty(t, outcome.TxId)
	}
}

func TestOneToManyAbortsOnSubBatchFailure(t *testing.T) {
	explorerSvc := &mockExplorer{failAt: 2}
	svc := newTestService(mockKeySource{}, explorerSvc)

	outcomes, err := svc.Dispatch(context.Background(), sender.DispatchRequest{
		Mode:       sender.DispatchModeOneToMany,
		Senders:    []string{"hal1sender"},
		Recipients: recipients("1", "2", "3", "4", "5"),
		FeeCeiling: "1000",
	})

	// The recipients are one logical request: no partial result comes back.
	require.Error(t, err)
	require.Contains(t, err.Error(), "sub-batch 2 of 3")
	require.Nil(t, outcomes)
	require.Len(t, explorerSvc.submissions, 2)
}

func TestOneToManyMissingCredentialAborts(t *testing.T) {
	explorerSvc := &mockExplorer{}
	svc := newTestService(
		mockKeySource{missing: map[string]struct{}{"hal1sender": {}}},
		explorerSvc,
	)

	_, err := svc.Dispatch(context.Background(), sender.DispatchRequest{
		Mode:       sender.DispatchModeOneToMany,
		Senders:    []string{"hal1sender"},
		Recipients: recipients("1"),
		FeeCeiling: "1000",
	})
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
	require.Empty(t, explorerSvc.submissions)
}

func TestManyToOneCapturesPerSenderFailures(t *testing.T) {
	senders := []string{"hal1alpha", "hal1beta", "hal1gamma"}
	explorerSvc := &mockExplorer{}
	svc := newTestService(
		mockKeySource{missing: map[string]struct{}{"hal1beta": {}}},
		explorerSvc,
	)

	outcomes, err := svc.Dispatch(context.Background(), sender.DispatchRequest{
		Mode:       sender.DispatchModeManyToOne,
		Senders:    senders,
		Recipients: recipients("2.5"),
		FeeCeiling: "1000",
	})
	// The dispatch itself never raises on per-sender failures.
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	bySender := map[string]domain.TransferOutcome{}
	for _, outcome := range outcomes {
		bySender[outcome.Sender] = outcome
	}
	require.Len(t, bySender, 3)

	require.Equal(t, domain.OutcomeStatusFailed, bySender["hal1beta"].Status)
	require.Contains(t, bySender["hal1beta"].Error, "private key not found")
	require.Empty(t, bySender["hal1beta"].TxId)

	for _, name := range []string{"hal1alpha", "hal1gamma"} {
		require.Equal(t, domain.OutcomeStatusSuccess, bySender[name].Status)
		require.NotEmpty(t, bySender[name].TxId)
		require.Empty(t, bySender[name].Error)
	}

	require.False(t, domain.AllSucceeded(outcomes))
}

func TestManyToOneSubmissionFailureIsCaptured(t *testing.T) {
	explorerSvc := &mockExplorer{
		failFor: map[string]struct{}{"hal1beta": {}},
	}
	svc := newTestService(mockKeySource{}, explorerSvc)

	outcomes, err := svc.Dispatch(context.Background(), sender.DispatchRequest{
		Mode:       sender.DispatchModeManyToOne,
		Senders:    []string{"hal1alpha", "hal1beta"},
		Recipients: recipients("1"),
		FeeCeiling: "1000",
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.False(t, domain.AllSucceeded(outcomes))
}

func TestDispatchValidation(t *testing.T) {
	tests := []struct {
		name string
		req  sender.DispatchRequest
		err  error
	}{
		{
			name: "zero amount",
			req: sender.DispatchRequest{
				Mode:       sender.DispatchModeManyToOne,
				Senders:    []string{"hal1alpha"},
				Recipients: recipients("0"),
				FeeCeiling: "1000",
			},
			err: domain.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			req: sender.DispatchRequest{
				Mode:       sender.DispatchModeOneToMany,
				Senders:    []string{"hal1alpha"},
				Recipients: recipients("-5"),
				FeeCeiling: "1000",
			},
			err: domain.ErrInvalidAmount,
		},
		{
			name: "unparseable amount",
			req: sender.DispatchRequest{
				Mode:       sender.DispatchModeManyToOne,
				Senders:    []string{"hal1alpha"},
				Recipients: recipients("ten"),
				FeeCeiling: "1000",
			},
			err: domain.ErrInvalidAmount,
		},
		{
			name: "zero fee ceiling",
			req: sender.DispatchRequest{
				Mode:       sender.DispatchModeManyToOne,
				Senders:    []string{"hal1alpha"},
				Recipients: recipients("1"),
				FeeCeiling: "0",
			},
			err: domain.ErrInvalidAmount,
		},
		{
			name: "no senders",
			req: sender.DispatchRequest{
				Mode:       sender.DispatchModeManyToOne,
				Recipients: recipients("1"),
				FeeCeiling: "1000",
			},
			err: domain.ErrMissingSenders,
		},
		{
			name: "no recipients",
			req: sender.DispatchRequest{
				Mode:       sender.DispatchModeOneToMany,
				Senders:    []string{"hal1alpha"},
				FeeCeiling: "1000",
			},
			err: domain.ErrMissingRecipients,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			explorerSvc := &mockExplorer{}
			svc := newTestService(mockKeySource{}, explorerSvc)

			_, err := svc.Dispatch(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.err)
			// Fail fast: nothing reached the network.
			require.Empty(t, explorerSvc.submissions)
			require.Zero(t, explorerSvc.assetInfoCalls)
		})
	}
}

func TestDispatchScalesTokenAmounts(t *testing.T) {
	explorerSvc := &mockExplorer{decimals: 6}
	svc := newTestService(mockKeySource{}, explorerSvc)

	_, err := svc.Dispatch(context.Background(), sender.DispatchRequest{
		Mode:       sender.DispatchModeManyToOne,
		Senders:    []string{"hal1alpha"},
		Recipients: recipients("2.5"),
		Ticker:     "HTST",
		FeeCeiling: "1000",
	})
	require.NoError(t, err)
	require.Equal(t, 1, explorerSvc.assetInfoCalls)
	require.Len(t, explorerSvc.submissions, 1)
	require.Equal(
		t, big.NewInt(2500000), explorerSvc.submissions[0].outputs[0].Amount,
	)
}
