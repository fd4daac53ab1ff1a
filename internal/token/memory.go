package token

import (
	"context"
	"math/big"
	"sync"
)

// MemoryLedger is an in-process token ledger for tests.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type MemoryLedger struct {
	mu         sync.Mutex
	self       string // the vault's account, the implicit caller
	balances   map[string]*big.Int
	allowances map[string]map[string]*big.Int // owner -> spender -> remaining
}

// NewMemoryLedger creates an empty ledger whose implicit caller is self.
func NewMemoryLedger(self string) *MemoryLedger {
	return &MemoryLedger{
		self:       self,
		balances:   make(map[string]*big.Int),
		allowances: make(map[string]map[string]*big.Int),
	}
}

// Mint credits freshly created tokens to an account. Test setup only.
func (l *MemoryLedger) Mint(account string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(account, amount)
}

// Approve sets the allowance owner grants to spender.
func (l *MemoryLedger) Approve(owner, spender string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[string]*big.Int)
	}
	l.allowances[owner][spender] = new(big.Int).Set(amount)
}

// Transfer implements Ledger.
func (l *MemoryLedger) Transfer(ctx context.Context, to string, amount *big.Int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !validAmount(amount) {
		return false, nil
	}
	if !l.debit(l.self, amount) {
		return false, nil
	}
	l.credit(to, amount)
	return true, nil
}

// TransferFrom implements Ledger. Spends the allowance `from` granted to the
// vault's account.
func (l *MemoryLedger) TransferFrom(ctx context.Context, from, to string, amount *big.Int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !validAmount(amount) {
		return false, nil
	}
	allowed := l.allowance(from, l.self)
	if allowed.Cmp(amount) < 0 {
		return false, nil
	}
	if !l.debit(from, amount) {
		return false, nil
	}
	l.credit(to, amount)
	l.allowances[from][l.self] = allowed.Sub(allowed, amount)
	return true, nil
}

// BalanceOf implements Ledger.
func (l *MemoryLedger) BalanceOf(ctx context.Context, account string) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balance(account)), nil
}

func (l *MemoryLedger) balance(account string) *big.Int {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return new(big.Int)
}

func (l *MemoryLedger) allowance(owner, spender string) *big.Int {
	if m, ok := l.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	return new(big.Int)
}

func (l *MemoryLedger) credit(account string, amount *big.Int) {
	l.balances[account] = new(big.Int).Add(l.balance(account), amount)
}

func (l *MemoryLedger) debit(account string, amount *big.Int) bool {
	b := l.balance(account)
	if b.Cmp(amount) < 0 {
		return false
	}
	l.balances[account] = new(big.Int).Sub(b, amount)
	return true
}
