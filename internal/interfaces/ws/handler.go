package ws

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/halcyon-wallet/halcyond/internal/core/application/minter"
	"github.com/halcyon-wallet/halcyond/internal/core/application/progress"
	"github.com/halcyon-wallet/halcyond/internal/core/application/sender"
	"github.com/halcyon-wallet/halcyond/internal/core/domain"
	"github.com/halcyon-wallet/halcyond/internal/infrastructure/vault"
	"github.com/halcyon-wallet/halcyond/pkg/explorer"
)

// Handler serves the local websocket IPC consumed by the desktop UI. Every
// connection gets a read loop dispatching request frames and, on demand,
// progress subscriptions pushed as server frames.
type Handler struct {
	upgrader websocket.Upgrader

	minterSvc   *minter.Service
	senderSvc   *sender.Service
	emitter     *progress.Emitter
	vaultSvc    *vault.Vault
	walletRepo  domain.WalletRepository
	explorerSvc explorer.Service
}

// Opts defines the collaborators needed for creating a Handler with the
// NewHandler method.
type Opts struct {
	MinterSvc   *minter.Service
	SenderSvc   *sender.Service
	Emitter     *progress.Emitter
	VaultSvc    *vault.Vault
	WalletRepo  domain.WalletRepository
	ExplorerSvc explorer.Service
}

// NewHandler returns a Handler ready to be mounted on an http mux.
func NewHandler(opts Opts) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			// The IPC is bound to localhost, the browser origin is the
			// wallet's own window.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		minterSvc:   opts.MinterSvc,
		senderSvc:   opts.SenderSvc,
		emitter:     opts.Emitter,
		vaultSvc:    opts.VaultSvc,
		walletRepo:  opts.WalletRepo,
		explorerSvc: opts.ExplorerSvc,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("failed to upgrade ws connection")
		return
	}

	session := &session{conn: conn}
	defer session.close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
			) {
				log.WithError(err).Debug("ws connection closed")
			}
			return
		}

		req := request{}
		if err := json.Unmarshal(payload, &req); err != nil {
			session.write(response{Error: "malformed request frame"})
			continue
		}
		session.write(h.handle(r.Context(), session, req))
	}
}

// session wraps a connection with a write lock, since the read loop and the
// progress forwarders write concurrently.
type session struct {
	conn *websocket.Conn

	writeLock     sync.Mutex
	subsLock      sync.Mutex
	unsubscribers []func()
}

func (s *session) write(v interface{}) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		log.WithError(err).Debug("failed to write ws frame")
	}
}

func (s *session) addSubscription(unsubscribe func()) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()
	s.unsubscribers = append(s.unsubscribers, unsubscribe)
}

func (s *session) close() {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()
	for _, unsubscribe := range s.unsubscribers {
		unsubscribe()
	}
	s.unsubscribers = nil
	s.conn.Close()
}

func (h *Handler) handle(
	ctx context.Context, session *session, req request,
) response {
	result, err := h.dispatch(ctx, session, req)
	if err != nil {
		return response{Id: req.Id, Error: err.Error()}
	}
	return response{Id: req.Id, Result: result}
}

func (h *Handler) dispatch(
	ctx context.Context, session *session, req request,
) (interface{}, error) {
	switch req.Method {
	case "vault.unlock":
		params := unlockParams{}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, err
		}
		return nil, h.vaultSvc.CreateUnlock([]byte(params.Password))
	case "vault.lock":
		h.vaultSvc.Lock()
		return nil, nil
	case "vault.changePassword":
		params := changePasswordParams{}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, err
		}
		return nil, h.vaultSvc.ChangePassword(
			[]byte(params.OldPassword), []byte(params.NewPassword),
		)
	case "wallet.create":
		return h.createWallet(ctx, req.Params)
	case "wallet.import":
		return h.importWallet(ctx, req.Params)
	case "wallet.rename":
		params := renameParams{}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, err
		}
		return nil, h.walletRepo.RenameWallet(ctx, params.OldName, params.NewName)
	case "wallet.delete":
		return nil, h.deleteWallet(ctx, req.Params)
	case "wallet.list":
		return h.listWallets(ctx)
	case "balance.get":
		params := balanceParams{}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, err
		}
		if params.Ticker == "" {
			return h.explorerSvc.GetBalance(ctx, params.Address)
		}
		return h.explorerSvc.GetAssetBalance(ctx, params.Address, params.Ticker)
	case "asset.info":
		params := assetParams{}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, err
		}
		return h.explorerSvc.GetAssetInfo(ctx, params.Ticker)
	case "mint.start":
		return h.startJob(ctx, req.Params)
	case "mint.stop":
		params := stopJobParams{}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, err
		}
		if err := h.minterSvc.StopJob(params.JobId); err != nil {
			// An unknown id is reported but is not fatal to anything.
			return nil, err
		}
		return nil, nil
	case "progress.subscribe":
		return h.subscribeProgress(session, req.Params)
	case "send.dispatch":
		return h.sendDispatch(ctx, req.Params)
	default:
		return nil, errors.New("unknown method " + req.Method)
	}
}

func (h *Handler) createWallet(
	ctx context.Context, rawParams json.RawMessage,
) (interface{}, error) {
	params := walletParams{}
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return nil, err
	}

	seed, address, err := vault.GenerateKey()
	if err != nil {
		return nil, err
	}
	return h.addWallet(ctx, params.Name, address, seed)
}

func (h *Handler) importWallet(
	ctx context.Context, rawParams json.RawMessage,
) (interface{}, error) {
	params := walletParams{}
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return nil, err
	}

	seed, err := hex.DecodeString(params.Seed)
	if err != nil {
		return nil, errors.New("seed must be a hex string")
	}
	return h.addWallet(ctx, params.Name, vault.AddressFromSeed(seed), seed)
}

func (h *Handler) addWallet(
	ctx context.Context, name, address string, seed []byte,
) (interface{}, error) {
	wallet, err := domain.NewWallet(name, address)
	if err != nil {
		return nil, err
	}
	if err := h.vaultSvc.StoreKey(address, seed); err != nil {
		return nil, err
	}
	if err := h.walletRepo.AddWallet(ctx, wallet); err != nil {
		if dErr := h.vaultSvc.DeleteKey(address); dErr != nil {
			log.WithError(dErr).Warnf(
				"failed to roll back vault key for %s", address,
			)
		}
		return nil, err
	}
	return walletInfo{wallet.Name, wallet.Address, wallet.CreatedAt}, nil
}

func (h *Handler) deleteWallet(
	ctx context.Context, rawParams json.RawMessage,
) error {
	params := walletParams{}
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return err
	}
	wallet, err := h.walletRepo.GetWalletByName(ctx, params.Name)
	if err != nil {
		return err
	}
	if err := h.walletRepo.DeleteWallet(ctx, params.Name); err != nil {
		return err
	}
	return h.vaultSvc.DeleteKey(wallet.Address)
}

func (h *Handler) listWallets(ctx context.Context) (interface{}, error) {
	wallets, err := h.walletRepo.GetAllWallets(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]walletInfo, 0, len(wallets))
	for _, wallet := range wallets {
		infos = append(infos, walletInfo{
			wallet.Name, wallet.Address, wallet.CreatedAt,
		})
	}
	return infos, nil
}

func (h *Handler) startJob(
	ctx context.Context, rawParams json.RawMessage,
) (interface{}, error) {
	params := startJobParams{}
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return nil, err
	}
	if params.JobId == "" {
		params.JobId = uuid.New().String()
	}

	if err := h.minterSvc.StartJob(ctx, minter.StartJobRequest{
		JobId:         params.JobId,
		WalletAddress: params.WalletAddress,
		Ticker:        params.Ticker,
		Target:        params.Target,
		FeeCeiling:    params.FeeCeiling,
	}); err != nil {
		return nil, err
	}
	return map[string]string{"jobId": params.JobId}, nil
}

func (h *Handler) subscribeProgress(
	session *session, rawParams json.RawMessage,
) (interface{}, error) {
	params := subscribeParams{}
	if len(rawParams) > 0 {
		if err := json.Unmarshal(rawParams, &params); err != nil {
			return nil, err
		}
	}

	events, unsubscribe := h.emitter.Subscribe(params.JobId)
	session.addSubscription(unsubscribe)

	go func() {
		for event := range events {
			session.write(push{Method: "progress", Params: event})
		}
	}()
	return nil, nil
}

func (h *Handler) sendDispatch(
	ctx context.Context, rawParams json.RawMessage,
) (interface{}, error) {
	params := dispatchParams{}
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return nil, err
	}

	recipients := make([]sender.Recipient, 0, len(params.Recipients))
	for _, recipient := range params.Recipients {
		recipients = append(recipients, sender.Recipient{
			Address: recipient.Address,
			Amount:  recipient.Amount,
		})
	}

	outcomes, err := h.senderSvc.Dispatch(ctx, sender.DispatchRequest{
		Mode:       params.Mode,
		Senders:    params.Senders,
		Recipients: recipients,
		Ticker:     params.Ticker,
		FeeCeiling: params.FeeCeiling,
	})
	if err != nil {
		return nil, err
	}

	infos := make([]outcomeInfo, 0, len(outcomes))
	for _, outcome := range outcomes {
		infos = append(infos, outcomeInfo{
			Sender: outcome.Sender,
			Status: outcome.Status,
			TxId:   outcome.TxId,
			Error:  outcome.Error,
		})
	}
	return infos, nil
}
