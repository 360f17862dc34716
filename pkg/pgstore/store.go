// Package pgstore persists vaults, journals and the account ledger in
// PostgreSQL. It mirrors the duckstore contract for deployments where
// several operators share one database.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/timevaultnetwork/timevault-cli/internal/app"
	"github.com/timevaultnetwork/timevault-cli/pkg/ecmh"
)

// Store implements the app.VaultStore interface on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ app.VaultStore = (*Store)(nil)

// Option configures a store.
type Option func(*Store)

// WithClock overrides the store's time source.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// New connects to the database at uri and creates the schema if needed.
func New(ctx context.Context, uri string, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("connect: %s", err)
	}

	s := &Store{pool: pool, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.setup(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot setup db: %s", err)
	}

	return s, nil
}

func (s *Store) setup(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS vaults (
			name TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			unlock_time BIGINT NOT NULL,
			balance TEXT NOT NULL,
			digest TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS events (
			seq BIGSERIAL PRIMARY KEY,
			vault TEXT NOT NULL,
			kind TEXT NOT NULL,
			sender TEXT NOT NULL,
			amount TEXT NOT NULL,
			old_unlock_time BIGINT NOT NULL,
			new_unlock_time BIGINT NOT NULL,
			timestamp BIGINT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS accounts (
			address TEXT PRIMARY KEY,
			balance TEXT NOT NULL
		);
	`)
	return err
}

// CreateVault creates a new vault. The unlock time must be in the future.
func (s *Store) CreateVault(ctx context.Context, params app.CreateVaultParams) error {
	// validates the construction preconditions
	if _, err := app.NewVault(params.Owner, params.UnlockTime, app.WithClock(s.now)); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO vaults (name, owner, unlock_time, balance, digest)
		 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (name) DO NOTHING`,
		string(params.Name), params.Owner.Hex(), params.UnlockTime, "0", ecmh.NewMultisetHash().String(),
	)
	if err != nil {
		return fmt.Errorf("insert vault: %s", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vault %s already exists", params.Name)
	}

	return nil
}

// GetVault returns a snapshot of a vault's persisted state.
func (s *Store) GetVault(ctx context.Context, name app.VaultName) (*app.VaultInfo, error) {
	var owner, balance, digest string
	var unlockTime int64
	err := s.pool.QueryRow(ctx,
		"SELECT owner, unlock_time, balance, digest FROM vaults WHERE name = $1", string(name),
	).Scan(&owner, &unlockTime, &balance, &digest)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, app.ErrVaultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query vault: %s", err)
	}

	b, ok := new(big.Int).SetString(balance, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt balance for vault %s: %q", name, balance)
	}

	return &app.VaultInfo{
		Name:       name,
		Owner:      owner,
		UnlockTime: unlockTime,
		Balance:    b,
		Digest:     digest,
	}, nil
}

// ListVaults lists all vaults owned by a given account.
func (s *Store) ListVaults(ctx context.Context, params app.ListVaultsParams) ([]app.VaultName, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT name FROM vaults WHERE owner = $1 ORDER BY name", params.Owner.Hex(),
	)
	if err != nil {
		return nil, fmt.Errorf("query vaults: %s", err)
	}
	defer rows.Close()

	var vaults []app.VaultName
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan: %s", err)
		}
		vaults = append(vaults, app.VaultName(name))
	}

	return vaults, rows.Err()
}

// WithVault loads a vault, runs a single operation against it and persists
// the outcome. The vault row is locked for the duration of the transaction,
// so concurrent operations on the same vault serialize; if fn fails,
// nothing is persisted.
func (s *Store) WithVault(ctx context.Context, name app.VaultName, fn func(*app.Vault) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %s", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var ownerHex, balanceStr, digestStr string
	var unlockTime int64
	err = tx.QueryRow(ctx,
		"SELECT owner, unlock_time, balance, digest FROM vaults WHERE name = $1 FOR UPDATE", string(name),
	).Scan(&ownerHex, &unlockTime, &balanceStr, &digestStr)
	if errors.Is(err, pgx.ErrNoRows) {
		err = app.ErrVaultNotFound
		return err
	}
	if err != nil {
		err = fmt.Errorf("query vault: %s", err)
		return err
	}

	owner, err := app.NewAccount(ownerHex)
	if err != nil {
		err = fmt.Errorf("corrupt owner for vault %s: %s", name, err)
		return err
	}
	balance, ok := new(big.Int).SetString(balanceStr, 10)
	if !ok {
		err = fmt.Errorf("corrupt balance for vault %s: %q", name, balanceStr)
		return err
	}
	digest := ecmh.NewMultisetHash()
	if derr := digest.SetString(digestStr); derr != nil {
		err = fmt.Errorf("corrupt digest for vault %s: %s", name, derr)
		return err
	}

	journal := &txJournal{ctx: ctx, tx: tx, vault: name, digest: digest}
	transfer := func(to *app.Account, amount *big.Int) error {
		return creditAccount(ctx, tx, to, amount)
	}

	vault := app.RestoreVault(owner, unlockTime, balance,
		app.WithJournal(journal),
		app.WithTransfer(transfer),
		app.WithClock(s.now),
	)

	if err = fn(vault); err != nil {
		return err
	}

	if _, err = tx.Exec(ctx,
		"UPDATE vaults SET unlock_time = $1, balance = $2, digest = $3 WHERE name = $4",
		vault.UnlockTime(), vault.Balance().String(), digest.String(), string(name),
	); err != nil {
		err = fmt.Errorf("update vault: %s", err)
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		err = fmt.Errorf("commit: %s", err)
		return err
	}

	return nil
}

// ListVaultEvents lists journal events of a given vault.
func (s *Store) ListVaultEvents(
	ctx context.Context, params app.ListVaultEventsParams,
) ([]app.Event, error) {
	query := "SELECT kind, sender, amount, old_unlock_time, new_unlock_time, timestamp FROM events WHERE vault = $1"
	args := []interface{}{string(params.Vault)}

	if !params.Before.IsZero() {
		args = append(args, params.Before.Seconds())
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}
	if !params.After.IsZero() {
		args = append(args, params.After.Seconds())
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}

	if params.Latest > 0 {
		args = append(args, int64(params.Latest))
		query += fmt.Sprintf(" ORDER BY seq DESC LIMIT $%d", len(args))
	} else {
		query += " ORDER BY seq ASC"
		if params.Limit > 0 {
			args = append(args, int64(params.Limit), int64(params.Offset))
			query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %s", err)
	}
	defer rows.Close()

	var events []app.Event
	for rows.Next() {
		var kind, sender, amount string
		var oldT, newT, ts int64
		if err := rows.Scan(&kind, &sender, &amount, &oldT, &newT, &ts); err != nil {
			return nil, fmt.Errorf("scan: %s", err)
		}

		ev := app.Event{
			Kind:          app.EventKind(kind),
			Sender:        sender,
			OldUnlockTime: oldT,
			NewUnlockTime: newT,
			Timestamp:     ts,
		}
		if amount != "" {
			a, ok := new(big.Int).SetString(amount, 10)
			if !ok {
				return nil, fmt.Errorf("corrupt amount: %q", amount)
			}
			ev.Amount = a
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

// AccountBalance returns the external ledger balance of an account,
// credited by vault withdrawals.
func (s *Store) AccountBalance(ctx context.Context, account *app.Account) (*big.Int, error) {
	var balance string
	err := s.pool.QueryRow(ctx,
		"SELECT balance FROM accounts WHERE address = $1", account.Hex(),
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %s", err)
	}

	b, ok := new(big.Int).SetString(balance, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt balance for account %s: %q", account.Hex(), balance)
	}
	return b, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func creditAccount(ctx context.Context, tx pgx.Tx, to *app.Account, amount *big.Int) error {
	var balance string
	err := tx.QueryRow(ctx,
		"SELECT balance FROM accounts WHERE address = $1 FOR UPDATE", to.Hex(),
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := tx.Exec(ctx,
			"INSERT INTO accounts (address, balance) VALUES ($1, $2)", to.Hex(), amount.String(),
		); err != nil {
			return fmt.Errorf("insert account: %s", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("query account: %s", err)
	}

	b, ok := new(big.Int).SetString(balance, 10)
	if !ok {
		return fmt.Errorf("corrupt balance for account %s: %q", to.Hex(), balance)
	}
	b.Add(b, amount)

	if _, err := tx.Exec(ctx,
		"UPDATE accounts SET balance = $1 WHERE address = $2", b.String(), to.Hex(),
	); err != nil {
		return fmt.Errorf("update account: %s", err)
	}
	return nil
}

// txJournal appends events inside the transaction of a WithVault call and
// keeps the vault's multiset digest in sync.
type txJournal struct {
	ctx    context.Context
	tx     pgx.Tx
	vault  app.VaultName
	digest *ecmh.MultisetHash
}

var _ app.Journal = (*txJournal)(nil)

func (j *txJournal) Append(e app.Event) error {
	amount := ""
	if e.Amount != nil {
		amount = e.Amount.String()
	}
	if _, err := j.tx.Exec(j.ctx,
		`INSERT INTO events (vault, kind, sender, amount, old_unlock_time, new_unlock_time, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(j.vault), string(e.Kind), e.Sender, amount, e.OldUnlockTime, e.NewUnlockTime, e.Timestamp,
	); err != nil {
		return fmt.Errorf("insert event: %s", err)
	}

	j.digest.InsertBytes(e.Digestible())
	return nil
}

func (j *txJournal) Revert(e app.Event) error {
	if _, err := j.tx.Exec(j.ctx,
		"DELETE FROM events WHERE seq = (SELECT max(seq) FROM events WHERE vault = $1)", string(j.vault),
	); err != nil {
		return fmt.Errorf("delete event: %s", err)
	}

	j.digest.RemoveBytes(e.Digestible())
	return nil
}
