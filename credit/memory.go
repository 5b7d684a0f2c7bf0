package credit

import (
	"context"
	"fmt"
	"sync"
)

var _ Ledger = (*MemoryLedger)(nil)

// MemoryLedger is an in-process Ledger keyed by user ID. Tests and the
// example binary use it in place of the billing service.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[string]int)}
}

// Credit adds amount to the user's balance.
func (l *MemoryLedger) Credit(userID string, amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += amount
}

// Balance returns the current balance for the user.
func (l *MemoryLedger) Balance(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID]
}

func (l *MemoryLedger) HasEnoughCredits(_ context.Context, userID string, cost int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID] >= cost, nil
}

func (l *MemoryLedger) DeductCredits(_ context.Context, userID string, cost int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[userID] < cost {
		return fmt.Errorf("balance %d below cost %d for user %s", l.balances[userID], cost, userID)
	}
	l.balances[userID] -= cost
	return nil
}
