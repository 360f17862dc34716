package app

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	ownerAddr    = "0xaB7C8803962c0f2F5BBBe3FA8bf41cd82AA1923C"
	strangerAddr = "0x064A4a5053F3de5eacF5E72A817b5CF800f0a0ca"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0).UTC()}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestVault(t *testing.T, clock *fakeClock, lock time.Duration, opts ...Option) (*Vault, *Account) {
	t.Helper()

	owner, err := NewAccount(ownerAddr)
	require.NoError(t, err)

	opts = append([]Option{WithClock(clock.Now)}, opts...)
	v, err := NewVault(owner, clock.Now().Add(lock).Unix(), opts...)
	require.NoError(t, err)
	return v, owner
}

func TestNewVaultRequiresFutureUnlockTime(t *testing.T) {
	clock := newFakeClock()
	owner, err := NewAccount(ownerAddr)
	require.NoError(t, err)

	_, err = NewVault(owner, clock.Now().Unix(), WithClock(clock.Now))
	require.ErrorIs(t, err, ErrInvalidUnlockTime)

	_, err = NewVault(owner, clock.Now().Add(-time.Hour).Unix(), WithClock(clock.Now))
	require.ErrorIs(t, err, ErrInvalidUnlockTime)

	v, err := NewVault(owner, clock.Now().Add(time.Second).Unix(), WithClock(clock.Now))
	require.NoError(t, err)
	require.Equal(t, int64(0), v.Balance().Int64())
	require.True(t, v.Owner().Equal(owner))
}

func TestDeposit(t *testing.T) {
	clock := newFakeClock()
	journal := NewMemoryJournal()
	v, _ := newTestVault(t, clock, 5*time.Minute, WithJournal(journal))

	stranger, err := NewAccount(strangerAddr)
	require.NoError(t, err)

	// anyone can deposit, in any phase
	require.NoError(t, v.Deposit(stranger, big.NewInt(100)))
	require.Equal(t, int64(100), v.Balance().Int64())

	// zero deposits are no-ops that still record an event
	require.NoError(t, v.Deposit(stranger, big.NewInt(0)))
	require.Equal(t, int64(100), v.Balance().Int64())

	require.ErrorIs(t, v.Deposit(stranger, big.NewInt(-1)), ErrNegativeAmount)
	require.Equal(t, int64(100), v.Balance().Int64())

	events := journal.Events()
	require.Len(t, events, 2)
	require.Equal(t, EventKindDeposit, events[0].Kind)
	require.Equal(t, stranger.Hex(), events[0].Sender)
	require.Equal(t, int64(100), events[0].Amount.Int64())
	require.Equal(t, int64(0), events[1].Amount.Int64())
}

func TestReceiveActsAsDeposit(t *testing.T) {
	clock := newFakeClock()
	journal := NewMemoryJournal()
	v, _ := newTestVault(t, clock, 5*time.Minute, WithJournal(journal))

	sender, err := NewAccount(strangerAddr)
	require.NoError(t, err)

	require.NoError(t, v.Receive(sender, big.NewInt(7)))
	require.Equal(t, int64(7), v.Balance().Int64())

	events := journal.Events()
	require.Len(t, events, 1)
	require.Equal(t, EventKindDeposit, events[0].Kind)
	require.Equal(t, sender.Hex(), events[0].Sender)
}

func TestExtendLock(t *testing.T) {
	clock := newFakeClock()
	journal := NewMemoryJournal()
	v, owner := newTestVault(t, clock, 5*time.Minute, WithJournal(journal))

	stranger, err := NewAccount(strangerAddr)
	require.NoError(t, err)

	unlock := v.UnlockTime()

	// owner check comes first
	require.ErrorIs(t, v.ExtendLock(stranger, unlock+600), ErrOnlyOwner)
	require.Equal(t, unlock, v.UnlockTime())

	// equal time is a reduction
	require.ErrorIs(t, v.ExtendLock(owner, unlock), ErrCannotReduceLockTime)
	require.ErrorIs(t, v.ExtendLock(owner, unlock-1), ErrCannotReduceLockTime)
	require.Equal(t, unlock, v.UnlockTime())

	require.NoError(t, v.ExtendLock(owner, unlock+600))
	require.Equal(t, unlock+600, v.UnlockTime())

	events := journal.Events()
	require.Len(t, events, 1)
	require.Equal(t, EventKindLockExtended, events[0].Kind)
	require.Equal(t, unlock, events[0].OldUnlockTime)
	require.Equal(t, unlock+600, events[0].NewUnlockTime)
}

func TestExtendLockIsMonotonic(t *testing.T) {
	clock := newFakeClock()
	v, owner := newTestVault(t, clock, time.Minute)

	prev := v.UnlockTime()
	for _, delta := range []int64{1, 600, 600, -30, 0, 3600} {
		err := v.ExtendLock(owner, prev+delta)
		if delta > 0 {
			require.NoError(t, err)
		} else {
			require.ErrorIs(t, err, ErrCannotReduceLockTime)
		}
		require.GreaterOrEqual(t, v.UnlockTime(), prev)
		prev = v.UnlockTime()
	}
}

func TestWithdraw(t *testing.T) {
	clock := newFakeClock()
	journal := NewMemoryJournal()

	var transferred *big.Int
	transfer := func(to *Account, amount *big.Int) error {
		transferred = amount
		return nil
	}

	v, owner := newTestVault(t, clock, 5*time.Minute, WithJournal(journal), WithTransfer(transfer))

	stranger, err := NewAccount(strangerAddr)
	require.NoError(t, err)
	require.NoError(t, v.Deposit(stranger, big.NewInt(1)))

	// locked: owner check still comes first
	require.ErrorIs(t, v.Withdraw(stranger), ErrOnlyOwner)
	require.ErrorIs(t, v.Withdraw(owner), ErrFundsLocked)
	require.Equal(t, int64(1), v.Balance().Int64())

	// at the unlock time withdrawal succeeds
	clock.Advance(5 * time.Minute)
	require.NoError(t, v.Withdraw(owner))
	require.Equal(t, int64(0), v.Balance().Int64())
	require.Equal(t, int64(1), transferred.Int64())

	events := journal.Events()
	require.Len(t, events, 2)
	require.Equal(t, EventKindWithdrawal, events[1].Kind)
	require.Equal(t, int64(1), events[1].Amount.Int64())
	require.Equal(t, clock.Now().Unix(), events[1].Timestamp)

	// non-owner is rejected even when unlocked
	require.ErrorIs(t, v.Withdraw(stranger), ErrOnlyOwner)
}

func TestWithdrawTwiceDoesNotDuplicateValue(t *testing.T) {
	clock := newFakeClock()

	total := big.NewInt(0)
	transfer := func(to *Account, amount *big.Int) error {
		total.Add(total, amount)
		return nil
	}

	v, owner := newTestVault(t, clock, time.Minute, WithTransfer(transfer))

	sender, err := NewAccount(strangerAddr)
	require.NoError(t, err)
	require.NoError(t, v.Deposit(sender, big.NewInt(42)))

	clock.Advance(time.Minute)
	require.NoError(t, v.Withdraw(owner))
	// second withdrawal is a valid zero-amount withdrawal
	require.NoError(t, v.Withdraw(owner))

	require.Equal(t, int64(42), total.Int64())
	require.Equal(t, int64(0), v.Balance().Int64())
}

func TestWithdrawRollsBackOnTransferFailure(t *testing.T) {
	clock := newFakeClock()
	journal := NewMemoryJournal()

	transfer := func(to *Account, amount *big.Int) error {
		return errors.New("recipient unavailable")
	}

	v, owner := newTestVault(t, clock, time.Minute, WithJournal(journal), WithTransfer(transfer))

	sender, err := NewAccount(strangerAddr)
	require.NoError(t, err)
	require.NoError(t, v.Deposit(sender, big.NewInt(9)))

	digestBefore := journal.Digest()
	eventsBefore := len(journal.Events())

	clock.Advance(time.Minute)
	err = v.Withdraw(owner)
	require.ErrorIs(t, err, ErrWithdrawalFailed)

	// balance, events and digest are all back to their pre-call state
	require.Equal(t, int64(9), v.Balance().Int64())
	require.Len(t, journal.Events(), eventsBefore)
	require.Equal(t, digestBefore, journal.Digest())
}

func TestWithdrawEmitsBeforeTransfer(t *testing.T) {
	clock := newFakeClock()
	journal := NewMemoryJournal()

	var balanceDuringTransfer *big.Int
	var eventsDuringTransfer int

	v, owner := newTestVault(t, clock, time.Minute, WithJournal(journal))

	// the transfer callback observes the vault as already settled
	transfer := func(to *Account, amount *big.Int) error {
		balanceDuringTransfer = v.balance
		eventsDuringTransfer = len(journal.Events())
		return nil
	}
	v.transfer = transfer

	sender, err := NewAccount(strangerAddr)
	require.NoError(t, err)
	require.NoError(t, v.Deposit(sender, big.NewInt(5)))

	clock.Advance(time.Minute)
	require.NoError(t, v.Withdraw(owner))

	require.Equal(t, int64(0), balanceDuringTransfer.Int64())
	require.Equal(t, 2, eventsDuringTransfer)
}

func TestTimeUntilUnlock(t *testing.T) {
	clock := newFakeClock()
	v, owner := newTestVault(t, clock, 300*time.Second)

	require.Equal(t, 300*time.Second, v.TimeUntilUnlock())

	clock.Advance(100 * time.Second)
	require.Equal(t, 200*time.Second, v.TimeUntilUnlock())

	// exactly zero at the unlock time, never negative
	clock.Advance(200 * time.Second)
	require.Equal(t, time.Duration(0), v.TimeUntilUnlock())

	clock.Advance(time.Hour)
	require.Equal(t, time.Duration(0), v.TimeUntilUnlock())

	// extension can move the vault back into the locked phase
	require.NoError(t, v.ExtendLock(owner, clock.Now().Add(10*time.Second).Unix()))
	require.Equal(t, 10*time.Second, v.TimeUntilUnlock())
}

func TestLockCycleScenario(t *testing.T) {
	// construct with unlock = now+300, deposit, withdraw too early,
	// extend, and withdraw only after the extended time passes
	clock := newFakeClock()
	v, owner := newTestVault(t, clock, 300*time.Second)

	sender, err := NewAccount(strangerAddr)
	require.NoError(t, err)
	require.NoError(t, v.Deposit(sender, big.NewInt(1)))

	require.ErrorIs(t, v.Withdraw(owner), ErrFundsLocked)

	require.NoError(t, v.ExtendLock(owner, v.UnlockTime()+600))

	clock.Advance(300 * time.Second)
	require.ErrorIs(t, v.Withdraw(owner), ErrFundsLocked)

	clock.Advance(600 * time.Second)
	require.NoError(t, v.Withdraw(owner))
	require.Equal(t, int64(0), v.Balance().Int64())

	// a new deposit restarts accumulation against the same unlock time
	require.NoError(t, v.Deposit(sender, big.NewInt(3)))
	require.Equal(t, int64(3), v.Balance().Int64())
	require.NoError(t, v.Withdraw(owner))
	require.Equal(t, int64(0), v.Balance().Int64())
}

func TestRestoreVault(t *testing.T) {
	clock := newFakeClock()
	owner, err := NewAccount(ownerAddr)
	require.NoError(t, err)

	// restoring skips the future check: an unlocked vault can be rehydrated
	v := RestoreVault(owner, clock.Now().Add(-time.Hour).Unix(), big.NewInt(11), WithClock(clock.Now))
	require.Equal(t, int64(11), v.Balance().Int64())
	require.Equal(t, time.Duration(0), v.TimeUntilUnlock())
	require.NoError(t, v.Withdraw(owner))

	v = RestoreVault(owner, clock.Now().Unix(), nil, WithClock(clock.Now))
	require.Equal(t, int64(0), v.Balance().Int64())
}
