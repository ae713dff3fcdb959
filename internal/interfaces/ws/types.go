package ws

import (
	"encoding/json"
)

// request is one frame sent by the UI. Id correlates the response; params
// are method-specific.
type request struct {
	Id     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// response is the reply to a request frame.
type response struct {
	Id     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// push is a server-initiated frame carrying a progress event.
type push struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type unlockParams struct {
	Password string `json:"password"`
}

type changePasswordParams struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type walletParams struct {
	Name string `json:"name"`
	Seed string `json:"seed,omitempty"`
}

type renameParams struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

type balanceParams struct {
	Address string `json:"address"`
	Ticker  string `json:"ticker,omitempty"`
}

type assetParams struct {
	Ticker string `json:"ticker"`
}

type startJobParams struct {
	JobId         string `json:"jobId,omitempty"`
	WalletAddress string `json:"walletAddress"`
	Ticker        string `json:"ticker"`
	Target        int    `json:"targetCount"`
	FeeCeiling    string `json:"feeCeiling"`
}

type stopJobParams struct {
	JobId string `json:"jobId"`
}

type subscribeParams struct {
	JobId string `json:"jobId,omitempty"`
}

type recipientParams struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type dispatchParams struct {
	Mode       string            `json:"mode"`
	Senders    []string          `json:"senders"`
	Recipients []recipientParams `json:"recipients"`
	Ticker     string            `json:"ticker,omitempty"`
	FeeCeiling string            `json:"feeCeiling"`
}

type walletInfo struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	CreatedAt int64  `json:"createdAt"`
}

type outcomeInfo struct {
	Sender string `json:"sender"`
	Status string `json:"status"`
	TxId   string `json:"transactionId,omitempty"`
	Error  string `json:"error,omitempty"`
}
