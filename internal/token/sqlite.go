package token

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	"github.com/roach88/strongbox/internal/store"
)

// SQLiteLedger persists a stand-in token ledger in the same database file as
// the vault, so local CLI runs keep token balances across invocations. It
// manages its own tables and never touches the vault's slot tables.
//
// The vault database holds a single connection, so when a vault operation
// calls the ledger mid-transaction the ledger joins that transaction (via
// store.QuerierFrom) instead of waiting on the pool. Standalone calls run in
// a transaction of the ledger's own.
//
// Amounts are stored as decimal TEXT; they are opaque integers and never
// participate in SQL arithmetic.
type SQLiteLedger struct {
	db   *sql.DB
	self string
}

// NewSQLiteLedger creates the ledger tables if needed.
func NewSQLiteLedger(db *sql.DB, self string) (*SQLiteLedger, error) {
	ddl := `
		CREATE TABLE IF NOT EXISTS ext_balances (
			account TEXT PRIMARY KEY,
			value   TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS ext_allowances (
			owner   TEXT NOT NULL,
			spender TEXT NOT NULL,
			value   TEXT NOT NULL,
			PRIMARY KEY (owner, spender)
		) WITHOUT ROWID;
	`
	if _, err := db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("create token ledger tables: %w", err)
	}
	return &SQLiteLedger{db: db, self: self}, nil
}

// run executes fn inside the vault transaction carried by ctx when there is
// one, otherwise in a transaction of the ledger's own.
func (l *SQLiteLedger) run(ctx context.Context, fn func(store.Querier) error) error {
	if q, ok := store.QuerierFrom(ctx); ok {
		return fn(q)
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Mint credits freshly created tokens to an account.
func (l *SQLiteLedger) Mint(ctx context.Context, account string, amount *big.Int) error {
	if !validAmount(amount) {
		return fmt.Errorf("mint: invalid amount")
	}
	err := l.run(ctx, func(q store.Querier) error {
		b, err := readAmount(ctx, q, `SELECT value FROM ext_balances WHERE account = ?`, account)
		if err != nil {
			return err
		}
		return writeBalance(ctx, q, account, b.Add(b, amount))
	})
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	return nil
}

// Approve sets the allowance owner grants to spender.
func (l *SQLiteLedger) Approve(ctx context.Context, owner, spender string, amount *big.Int) error {
	if !validAmount(amount) {
		return fmt.Errorf("approve: invalid amount")
	}
	err := l.run(ctx, func(q store.Querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO ext_allowances (owner, spender, value) VALUES (?, ?, ?)
			ON CONFLICT(owner, spender) DO UPDATE SET value = excluded.value
		`, owner, spender, amount.String())
		return err
	})
	if err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	return nil
}

// Transfer implements Ledger.
func (l *SQLiteLedger) Transfer(ctx context.Context, to string, amount *big.Int) (bool, error) {
	return l.move(ctx, l.self, to, amount, false)
}

// TransferFrom implements Ledger.
func (l *SQLiteLedger) TransferFrom(ctx context.Context, from, to string, amount *big.Int) (bool, error) {
	return l.move(ctx, from, to, amount, true)
}

// BalanceOf implements Ledger.
func (l *SQLiteLedger) BalanceOf(ctx context.Context, account string) (*big.Int, error) {
	var bal *big.Int
	err := l.run(ctx, func(q store.Querier) error {
		b, err := readAmount(ctx, q, `SELECT value FROM ext_balances WHERE account = ?`, account)
		if err != nil {
			return err
		}
		bal = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("balance of: %w", err)
	}
	return bal, nil
}

// move transfers amount between accounts. All checks run before the first
// write so a refusal leaves nothing behind even when the move joined an
// outer transaction that later commits.
func (l *SQLiteLedger) move(ctx context.Context, from, to string, amount *big.Int, spendAllowance bool) (bool, error) {
	if !validAmount(amount) {
		return false, nil
	}
	moved := false
	err := l.run(ctx, func(q store.Querier) error {
		var allowed *big.Int
		if spendAllowance {
			var err error
			allowed, err = readAmount(ctx, q, `
				SELECT value FROM ext_allowances WHERE owner = ? AND spender = ?
			`, from, l.self)
			if err != nil {
				return err
			}
			if allowed.Cmp(amount) < 0 {
				return nil
			}
		}

		fromBal, err := readAmount(ctx, q, `SELECT value FROM ext_balances WHERE account = ?`, from)
		if err != nil {
			return err
		}
		if fromBal.Cmp(amount) < 0 {
			return nil
		}
		toBal, err := readAmount(ctx, q, `SELECT value FROM ext_balances WHERE account = ?`, to)
		if err != nil {
			return err
		}

		if spendAllowance {
			_, err = q.ExecContext(ctx, `
				UPDATE ext_allowances SET value = ? WHERE owner = ? AND spender = ?
			`, new(big.Int).Sub(allowed, amount).String(), from, l.self)
			if err != nil {
				return fmt.Errorf("update allowance: %w", err)
			}
		}
		if err := writeBalance(ctx, q, from, fromBal.Sub(fromBal, amount)); err != nil {
			return err
		}
		if err := writeBalance(ctx, q, to, toBal.Add(toBal, amount)); err != nil {
			return err
		}
		moved = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("token transfer: %w", err)
	}
	return moved, nil
}

func readAmount(ctx context.Context, q store.Querier, query string, args ...any) (*big.Int, error) {
	var s string
	err := q.QueryRowContext(ctx, query, args...).Scan(&s)
	if err == sql.ErrNoRows {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt amount %q", s)
	}
	return v, nil
}

func writeBalance(ctx context.Context, q store.Querier, account string, v *big.Int) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO ext_balances (account, value) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET value = excluded.value
	`, account, v.String())
	return err
}
