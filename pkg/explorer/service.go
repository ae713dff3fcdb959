package explorer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const defaultRequestTimeout = 15 * time.Second

type service struct {
	apiURL string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

// Opts defines the parameters needed for creating an explorer service with
// the NewService method.
type Opts struct {
	APIURL         string
	RequestTimeout time.Duration
}

// NewService returns a Service talking to the HTTP API of an indexer node.
func NewService(opts Opts) (Service, error) {
	if opts.APIURL == "" {
		return nil, fmt.Errorf("missing explorer api url")
	}
	timeout := opts.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	svc := &service{
		apiURL: opts.APIURL,
		client: &http.Client{Timeout: timeout},
		cb:     newCircuitBreaker(),
	}
	if err := svc.Connect(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	return svc, nil
}

func (s *service) Connect() error {
	_, err := s.get(context.Background(), fmt.Sprintf("%s/v1/info", s.apiURL))
	return err
}

func (s *service) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *service) GetBalance(
	ctx context.Context, address string,
) (string, error) {
	url := fmt.Sprintf("%s/v1/address/%s/balance", s.apiURL, address)
	return s.getBalance(ctx, url)
}

func (s *service) GetAssetBalance(
	ctx context.Context, address, ticker string,
) (string, error) {
	url := fmt.Sprintf(
		"%s/v1/address/%s/assets/%s/balance", s.apiURL, address, ticker,
	)
	return s.getBalance(ctx, url)
}

func (s *service) GetAssetInfo(
	ctx context.Context, ticker string,
) (*AssetInfo, error) {
	url := fmt.Sprintf("%s/v1/assets/%s", s.apiURL, ticker)
	resp, err := s.get(ctx, url)
	if err != nil {
		return nil, err
	}

	info := &AssetInfo{}
	if err := json.Unmarshal(resp, info); err != nil {
		return nil, fmt.Errorf("parsing asset info: %w", err)
	}
	return info, nil
}

func (s *service) SubmitTransfer(
	ctx context.Context, signer Signer, outs []TxOutput, feeCeiling *big.Int,
) (string, error) {
	return s.submit(ctx, signer, "", outs, feeCeiling, "transfer")
}

func (s *service) SubmitAssetTransfer(
	ctx context.Context, signer Signer, ticker string, outs []TxOutput,
	feeCeiling *big.Int,
) (string, error) {
	return s.submit(ctx, signer, ticker, outs, feeCeiling, "transfer")
}

func (s *service) SubmitMint(
	ctx context.Context, signer Signer, ticker string, feeCeiling *big.Int,
) (string, error) {
	return s.submit(ctx, signer, ticker, nil, feeCeiling, "mint")
}

type submitRequest struct {
	Sender     string          `json:"sender"`
	Ticker     string          `json:"ticker,omitempty"`
	Outputs    []requestOutput `json:"outputs,omitempty"`
	FeeCeiling string          `json:"feeCeiling"`
	Signature  string          `json:"signature"`
}

type requestOutput struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type submitResponse struct {
	TxId string `json:"txid"`
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

func (s *service) submit(
	ctx context.Context, signer Signer, ticker string, outs []TxOutput,
	feeCeiling *big.Int, op string,
) (string, error) {
	req := submitRequest{
		Sender:     signer.Address(),
		Ticker:     ticker,
		FeeCeiling: feeCeiling.String(),
	}
	for _, out := range outs {
		req.Outputs = append(req.Outputs, requestOutput{
			Address: out.Address,
			Amount:  out.Amount.String(),
		})
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sig, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("signing %s: %w", op, err)
	}
	req.Signature = hex.EncodeToString(sig)
	body, _ := json.Marshal(req)

	url := fmt.Sprintf("%s/v1/tx/%s", s.apiURL, op)
	resp, err := s.post(ctx, url, body)
	if err != nil {
		return "", err
	}

	parsed := submitResponse{}
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return "", fmt.Errorf("parsing %s response: %w", op, err)
	}
	return parsed.TxId, nil
}

func (s *service) getBalance(ctx context.Context, url string) (string, error) {
	resp, err := s.get(ctx, url)
	if err != nil {
		return "", err
	}
	parsed := balanceResponse{}
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return "", fmt.Errorf("parsing balance: %w", err)
	}
	return parsed.Balance, nil
}

func (s *service) get(ctx context.Context, url string) ([]byte, error) {
	return s.do(ctx, http.MethodGet, url, nil)
}

func (s *service) post(
	ctx context.Context, url string, body []byte,
) ([]byte, error) {
	return s.do(ctx, http.MethodPost, url, body)
}

func (s *service) do(
	ctx context.Context, method, url string, body []byte,
) ([]byte, error) {
	resp, err := s.cb.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		data, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, err
		}
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s", string(data))
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return resp.([]byte), nil
}
