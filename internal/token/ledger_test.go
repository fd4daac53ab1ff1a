package token

import (
	"context"
	"database/sql"
	"errors"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/strongbox/internal/store"
)

func TestMemoryLedger_TransferFrom(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger("vault")
	l.Mint("alice", big.NewInt(1000))
	l.Approve("alice", "vault", big.NewInt(600))

	ok, err := l.TransferFrom(ctx, "alice", "vault", big.NewInt(500))
	if err != nil || !ok {
		t.Fatalf("TransferFrom() = %v, %v, want success", ok, err)
	}

	// Remaining allowance is 100, so another 500 must be refused.
	ok, err = l.TransferFrom(ctx, "alice", "vault", big.NewInt(500))
	if err != nil {
		t.Fatalf("TransferFrom() error: %v", err)
	}
	if ok {
		t.Error("TransferFrom() exceeded allowance")
	}

	b, err := l.BalanceOf(ctx, "vault")
	if err != nil {
		t.Fatalf("BalanceOf() error: %v", err)
	}
	if b.Cmp(big.NewInt(500)) != 0 {
		t.Errorf("vault balance = %s, want 500", b)
	}
}

func TestMemoryLedger_TransferInsufficient(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger("vault")
	l.Mint("vault", big.NewInt(10))

	ok, err := l.Transfer(ctx, "bob", big.NewInt(11))
	if err != nil {
		t.Fatalf("Transfer() error: %v", err)
	}
	if ok {
		t.Error("Transfer() overdrew the vault account")
	}

	ok, err = l.Transfer(ctx, "bob", big.NewInt(10))
	if err != nil || !ok {
		t.Fatalf("Transfer() = %v, %v, want success", ok, err)
	}
}

func TestSQLiteLedger_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	l, err := NewSQLiteLedger(db, "vault")
	if err != nil {
		t.Fatalf("NewSQLiteLedger() failed: %v", err)
	}
	if err := l.Mint(ctx, "alice", big.NewInt(1000)); err != nil {
		t.Fatalf("Mint() failed: %v", err)
	}
	if err := l.Approve(ctx, "alice", "vault", big.NewInt(1000)); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	ok, err := l.TransferFrom(ctx, "alice", "vault", big.NewInt(250))
	if err != nil || !ok {
		t.Fatalf("TransferFrom() = %v, %v, want success", ok, err)
	}
	db.Close()

	db2, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	defer db2.Close()
	l2, err := NewSQLiteLedger(db2, "vault")
	if err != nil {
		t.Fatalf("NewSQLiteLedger() failed: %v", err)
	}

	b, err := l2.BalanceOf(ctx, "alice")
	if err != nil {
		t.Fatalf("BalanceOf() failed: %v", err)
	}
	if b.Cmp(big.NewInt(750)) != 0 {
		t.Errorf("alice balance = %s, want 750", b)
	}
}

func TestSQLiteLedger_RefusesWithoutAllowance(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	l, err := NewSQLiteLedger(db, "vault")
	if err != nil {
		t.Fatalf("NewSQLiteLedger() failed: %v", err)
	}
	if err := l.Mint(ctx, "alice", big.NewInt(1000)); err != nil {
		t.Fatalf("Mint() failed: %v", err)
	}

	ok, err := l.TransferFrom(ctx, "alice", "vault", big.NewInt(1))
	if err != nil {
		t.Fatalf("TransferFrom() error: %v", err)
	}
	if ok {
		t.Error("TransferFrom() succeeded without allowance")
	}
}

// The vault database holds a single connection, so a ledger call made while
// a vault transaction is open must join that transaction instead of waiting
// for the connection the transaction holds.
func TestSQLiteLedger_JoinsOpenVaultTransaction(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "vault.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	defer s.Close()

	l, err := NewSQLiteLedger(s.DB(), "vault")
	if err != nil {
		t.Fatalf("NewSQLiteLedger() failed: %v", err)
	}
	if err := l.Mint(ctx, "bob", big.NewInt(1000)); err != nil {
		t.Fatalf("Mint() failed: %v", err)
	}
	if err := l.Approve(ctx, "bob", "vault", big.NewInt(1000)); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.Update(ctx, func(tx *store.Tx) error {
			ok, err := l.TransferFrom(tx.Context(), "bob", "vault", big.NewInt(600))
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("transfer refused")
			}
			return nil
		})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("TransferFrom() did not return while the vault transaction was open")
	}

	b, err := l.BalanceOf(ctx, "vault")
	if err != nil {
		t.Fatalf("BalanceOf() failed: %v", err)
	}
	if b.Cmp(big.NewInt(600)) != 0 {
		t.Errorf("vault balance = %s, want 600", b)
	}
}

// A joined transfer commits or rolls back with the vault transaction, and a
// refusal writes nothing even when the outer transaction commits.
func TestSQLiteLedger_JoinedTransferFollowsVaultTransaction(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "vault.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	defer s.Close()

	l, err := NewSQLiteLedger(s.DB(), "vault")
	if err != nil {
		t.Fatalf("NewSQLiteLedger() failed: %v", err)
	}
	if err := l.Mint(ctx, "bob", big.NewInt(1000)); err != nil {
		t.Fatalf("Mint() failed: %v", err)
	}
	if err := l.Approve(ctx, "bob", "vault", big.NewInt(1000)); err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	boom := errors.New("boom")
	err = s.Update(ctx, func(tx *store.Tx) error {
		ok, err := l.TransferFrom(tx.Context(), "bob", "vault", big.NewInt(600))
		if err != nil || !ok {
			t.Fatalf("TransferFrom() = %v, %v, want success", ok, err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}

	b, err := l.BalanceOf(ctx, "bob")
	if err != nil {
		t.Fatalf("BalanceOf() failed: %v", err)
	}
	if b.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("bob balance after rollback = %s, want 1000", b)
	}

	// A refused transfer inside a committing transaction must leave the
	// allowance untouched.
	err = s.Update(ctx, func(tx *store.Tx) error {
		ok, err := l.TransferFrom(tx.Context(), "bob", "vault", big.NewInt(2000))
		if err != nil {
			return err
		}
		if ok {
			t.Fatal("TransferFrom() overdrew the account")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	ok, err := l.TransferFrom(ctx, "bob", "vault", big.NewInt(1000))
	if err != nil || !ok {
		t.Fatalf("TransferFrom() = %v, %v, want success with full allowance", ok, err)
	}
}
