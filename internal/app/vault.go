package app

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// The vault error taxonomy. Every failed operation returns one of these
// (possibly wrapped) and leaves the vault state exactly as it was.
var (
	// ErrInvalidUnlockTime is an error when a vault is constructed with a non-future unlock time.
	ErrInvalidUnlockTime = errors.New("unlock time should be in the future")

	// ErrOnlyOwner is an error when a restricted operation is called by a non-owner account.
	ErrOnlyOwner = errors.New("caller is not the owner")

	// ErrCannotReduceLockTime is an error when an extension does not strictly increase the unlock time.
	ErrCannotReduceLockTime = errors.New("cannot reduce lock time")

	// ErrFundsLocked is an error when a withdrawal is requested before the unlock time.
	ErrFundsLocked = errors.New("funds are still locked")

	// ErrWithdrawalFailed is an error when the outbound transfer of a withdrawal fails.
	ErrWithdrawalFailed = errors.New("withdrawal transfer failed")

	// ErrNegativeAmount is an error when a deposit carries a negative amount.
	ErrNegativeAmount = errors.New("amount cannot be negative")
)

// TransferFunc moves value out of the vault to the given account.
// A nil error means the value was accepted by the recipient.
type TransferFunc func(to *Account, amount *big.Int) error

// Vault holds a balance of value on behalf of a single owner and
// refuses to release it before the unlock time. The unlock time only
// ever moves forward. All operations are serialized behind one mutex,
// which stays held across the outbound transfer of a withdrawal so a
// reentrant transfer callback can never observe a stale balance.
type Vault struct {
	mu sync.Mutex

	owner      *Account
	unlockTime int64
	balance    *big.Int

	journal  Journal
	transfer TransferFunc
	now      func() time.Time
}

// Option configures a vault at construction time.
type Option func(*Vault)

// WithJournal sets the journal the vault appends events to.
func WithJournal(j Journal) Option {
	return func(v *Vault) { v.journal = j }
}

// WithTransfer sets the outbound transfer used by withdrawals.
func WithTransfer(fn TransferFunc) Option {
	return func(v *Vault) { v.transfer = fn }
}

// WithClock overrides the vault's time source.
func WithClock(fn func() time.Time) Option {
	return func(v *Vault) { v.now = fn }
}

// NewVault creates an empty vault owned by owner. The unlock time must be
// strictly in the future, otherwise ErrInvalidUnlockTime is returned.
func NewVault(owner *Account, unlockTime int64, opts ...Option) (*Vault, error) {
	v := newVault(owner, unlockTime, big.NewInt(0), opts)
	if unlockTime <= v.now().Unix() {
		return nil, ErrInvalidUnlockTime
	}
	return v, nil
}

// RestoreVault rebuilds a vault from persisted state. No unlock time
// validation happens here: the future check applies at creation only.
func RestoreVault(owner *Account, unlockTime int64, balance *big.Int, opts ...Option) *Vault {
	if balance == nil {
		balance = big.NewInt(0)
	}
	return newVault(owner, unlockTime, new(big.Int).Set(balance), opts)
}

func newVault(owner *Account, unlockTime int64, balance *big.Int, opts []Option) *Vault {
	v := &Vault{
		owner:      owner,
		unlockTime: unlockTime,
		balance:    balance,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.journal == nil {
		v.journal = NewMemoryJournal()
	}
	if v.transfer == nil {
		v.transfer = func(*Account, *big.Int) error { return nil }
	}
	if v.now == nil {
		v.now = time.Now
	}
	return v
}

// Owner returns the owner fixed at construction.
func (v *Vault) Owner() *Account {
	return v.owner
}

// UnlockTime returns the current unlock time in unix seconds.
func (v *Vault) UnlockTime() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.unlockTime
}

// Balance returns the value currently held.
func (v *Vault) Balance() *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.balance)
}

// TimeUntilUnlock returns how long until the vault unlocks, or zero
// if it is already unlocked. Never negative.
func (v *Vault) TimeUntilUnlock() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()

	remaining := v.unlockTime - v.now().Unix()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining) * time.Second
}

// Deposit credits the vault with amount on behalf of sender. Anyone can
// deposit at any time; a zero amount is a valid no-op that still records
// a deposit event.
func (v *Vault) Deposit(sender *Account, amount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	ev := Event{
		Kind:      EventKindDeposit,
		Sender:    sender.Hex(),
		Amount:    new(big.Int).Set(amount),
		Timestamp: v.now().Unix(),
	}
	if err := v.journal.Append(ev); err != nil {
		return fmt.Errorf("append deposit event: %s", err)
	}
	v.balance.Add(v.balance, amount)

	return nil
}

// Receive is the bare-transfer entry point. Value sent directly to the
// vault lands here and has the exact same effect and event as Deposit.
func (v *Vault) Receive(sender *Account, amount *big.Int) error {
	return v.Deposit(sender, amount)
}

// ExtendLock pushes the unlock time to newTime. Only the owner may call it
// and the new time must be strictly later than the current unlock time;
// this is the only mutator of the unlock time.
func (v *Vault) ExtendLock(caller *Account, newTime int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.owner.Equal(caller) {
		return ErrOnlyOwner
	}
	if newTime <= v.unlockTime {
		return ErrCannotReduceLockTime
	}

	ev := Event{
		Kind:          EventKindLockExtended,
		OldUnlockTime: v.unlockTime,
		NewUnlockTime: newTime,
		Timestamp:     v.now().Unix(),
	}
	if err := v.journal.Append(ev); err != nil {
		return fmt.Errorf("append extension event: %s", err)
	}
	v.unlockTime = newTime

	return nil
}

// Withdraw releases the entire balance to the owner. The caller must be
// the owner and the unlock time must have passed. The withdrawal event is
// recorded and the balance zeroed before the transfer runs; if the
// transfer fails, both are rolled back and ErrWithdrawalFailed is returned.
func (v *Vault) Withdraw(caller *Account) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.owner.Equal(caller) {
		return ErrOnlyOwner
	}
	now := v.now().Unix()
	if now < v.unlockTime {
		return ErrFundsLocked
	}

	amount := v.balance
	ev := Event{
		Kind:      EventKindWithdrawal,
		Amount:    new(big.Int).Set(amount),
		Timestamp: now,
	}
	if err := v.journal.Append(ev); err != nil {
		return fmt.Errorf("append withdrawal event: %s", err)
	}
	v.balance = big.NewInt(0)

	if err := v.transfer(v.owner, new(big.Int).Set(amount)); err != nil {
		v.balance = amount
		if rerr := v.journal.Revert(ev); rerr != nil {
			return fmt.Errorf("%w: %s (journal revert: %s)", ErrWithdrawalFailed, err, rerr)
		}
		return fmt.Errorf("%w: %s", ErrWithdrawalFailed, err)
	}

	return nil
}
