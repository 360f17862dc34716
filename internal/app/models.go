package app

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// VaultName represents the name of a vault.
type VaultName string

// Account represents an account.
type Account struct {
	address common.Address
}

// NewAccount creates a new account.
func NewAccount(address string) (*Account, error) {
	if !common.IsHexAddress(address) {
		return nil, errors.New("address not valid")
	}

	return &Account{address: common.HexToAddress(address)}, nil
}

// AccountFromAddress wraps an already-parsed address.
func AccountFromAddress(address common.Address) *Account {
	return &Account{address: address}
}

// Hex returns the hex-enconded address.
func (a *Account) Hex() string {
	return a.address.Hex()
}

// Equal reports whether two accounts refer to the same address.
func (a *Account) Equal(other *Account) bool {
	if a == nil || other == nil {
		return false
	}
	return a.address == other.address
}

// VaultInfo is a read-only snapshot of a persisted vault.
type VaultInfo struct {
	Name       VaultName `json:"name"`
	Owner      string    `json:"owner"`
	UnlockTime int64     `json:"unlock_time"`
	Balance    *big.Int  `json:"balance"`
	Digest     string    `json:"digest"`
}

// ErrVaultNotFound is an error when a vault does not exist in the store.
var ErrVaultNotFound = errors.New("vault not found")
