package models

// RotateRequest asks the controller to replace the wallet signer.
type RotateRequest struct {
	NewSigner string `json:"new_signer"`
}

// GuardianRequest upserts one guardian registry entry.
type GuardianRequest struct {
	Address string `json:"address"`
	Active  bool   `json:"active"`
}

// RevokeRequest clears ERC-20 allowances for positionally paired
// (token, spender) entries.
type RevokeRequest struct {
	Tokens   []string `json:"tokens"`
	Spenders []string `json:"spenders"`
}

// RevokeOperatorRequest clears blanket operator approvals for one operator
// across ERC-721 and ERC-1155 collections.
type RevokeOperatorRequest struct {
	Operator string   `json:"operator"`
	ERC721s  []string `json:"erc721s"`
	ERC1155s []string `json:"erc1155s"`
}

// StepupRequest carries the optional OTP for a step-up identity check.
type StepupRequest struct {
	OTP string `json:"otp,omitempty"`
}
