package app

import (
	"context"
	"math/big"
)

// VaultStore persists named vaults, their journals and the external
// account ledger credited by withdrawals. WithVault runs a single vault
// operation inside one store transaction: the state change, the appended
// events and any outbound ledger credit all commit or roll back together.
type VaultStore interface {
	CreateVault(context.Context, CreateVaultParams) error
	GetVault(context.Context, VaultName) (*VaultInfo, error)
	ListVaults(context.Context, ListVaultsParams) ([]VaultName, error)
	WithVault(ctx context.Context, name VaultName, fn func(*Vault) error) error
	ListVaultEvents(context.Context, ListVaultEventsParams) ([]Event, error)
	AccountBalance(context.Context, *Account) (*big.Int, error)
	Close() error
}

// CreateVaultParams ...
type CreateVaultParams struct {
	Name       VaultName
	Owner      *Account
	UnlockTime int64
}

// ListVaultsParams ...
type ListVaultsParams struct {
	Owner *Account
}

// ListVaultEventsParams ...
type ListVaultEventsParams struct {
	Vault  VaultName
	Limit  uint32
	Offset uint32
	Latest uint32
	Before Timestamp
	After  Timestamp
}
