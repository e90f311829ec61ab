// Package models holds the server's domain records.
package models

import (
	"math/big"
	"time"
)

// Wallet is the custody record for one user. EncryptedKey is the base64
// outer ciphertext; the plaintext key never appears here.
type Wallet struct {
	UserID       string
	Address      string
	EncryptedKey string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Complete reports whether both address and key are present.
func (w *Wallet) Complete() bool {
	return w != nil && w.Address != "" && w.EncryptedKey != ""
}

// TipTransferRequest asks to move Quantity units from the caller's wallet
// to Recipient. ReceiverID and PublishID are carried to contracts whose
// tip method accepts them.
type TipTransferRequest struct {
	CallerID   string
	Recipient  string
	Quantity   int64
	ReceiverID string
	PublishID  string
}

// TipTransferResult is decoded from the mined transaction's transfer event.
// Amounts are ether decimal strings.
type TipTransferResult struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
	TxHash string `json:"txHash"`
}

// TransferEvent is a decoded TipsTransferred log. Which identifier fields
// are set depends on the contract version.
type TransferEvent struct {
	TipID      string
	SenderID   string
	ReceiverID string
	PublishID  string
	From       string
	To         string
	Amount     *big.Int
	Fee        *big.Int

	TxHash      string
	BlockNumber uint64
	LogIndex    uint
}
