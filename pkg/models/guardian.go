package models

import "time"

// Guardian is one entry in the guardian registry: an identity granted
// standing to rotate the wallet signer without being the owner.
type Guardian struct {
	Address   Address   `json:"address"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SignerRotated is the notification emitted after a successful signer
// rotation. It is the only event the core emits; registry changes are
// deliberately silent.
type SignerRotated struct {
	ID        string    `json:"id"`
	NewSigner Address   `json:"new_signer"`
	Caller    Address   `json:"caller"`
	At        time.Time `json:"at"`
}
