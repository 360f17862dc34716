package app

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/timevaultnetwork/timevault-cli/pkg/signing"
)

// Receipt is a signed proof that a withdrawal released a given amount
// from a vault at a given time.
type Receipt struct {
	Vault     VaultName `json:"vault"`
	Owner     string    `json:"owner"`
	Amount    *big.Int  `json:"amount"`
	Timestamp int64     `json:"timestamp"`
	Signature string    `json:"signature,omitempty"`
}

// Payload returns the canonical bytes covered by the signature.
func (r Receipt) Payload() ([]byte, error) {
	r.Signature = ""
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal receipt: %s", err)
	}
	return b, nil
}

// Sign fills in the receipt's signature.
func (r *Receipt) Sign(signer *signing.Signer) error {
	payload, err := r.Payload()
	if err != nil {
		return err
	}

	sig, err := signer.SignBytes(payload)
	if err != nil {
		return fmt.Errorf("sign receipt: %s", err)
	}
	r.Signature = signing.SignatureBytesToHex(sig)
	return nil
}

// SignerAddress recovers the address that signed the receipt.
func (r Receipt) SignerAddress() (string, error) {
	payload, err := r.Payload()
	if err != nil {
		return "", err
	}

	sig, err := hex.DecodeString(r.Signature)
	if err != nil {
		return "", fmt.Errorf("decode signature: %s", err)
	}

	address, err := signing.RecoverSigner(payload, sig)
	if err != nil {
		return "", err
	}
	return address.Hex(), nil
}
