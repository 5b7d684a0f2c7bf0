// Package credit enforces the pay-per-generation policy. A Gate performs a
// pre-flight sufficiency check against the external ledger before any
// provider call, and deducts the cost immediately after the provider
// accepts the request. Deducting at request time rather than at accept time
// is deliberate: it closes the loophole of streaming a full result and then
// cancelling, at the price of charging for ultimately-rejected output.
package credit

import (
	"context"
	"fmt"

	"github.com/fogfish/opts"
)

// DefaultUpgradeURL is the upgrade pointer attached to refusals when the
// embedder doesn't supply its own billing page.
const DefaultUpgradeURL = "/account/upgrade"

// Ledger is the external credit system.
type Ledger interface {
	HasEnoughCredits(ctx context.Context, userID string, cost int) (bool, error)
	DeductCredits(ctx context.Context, userID string, cost int) error
}

// InsufficientCreditsError is the actionable refusal returned by a failed
// pre-check. No provider call has been made and nothing was charged.
type InsufficientCreditsError struct {
	UserID     string `json:"userId"`
	Cost       int    `json:"cost"`
	UpgradeURL string `json:"upgradeUrl"`
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("not enough credits for generation (cost %d); upgrade at %s", e.Cost, e.UpgradeURL)
}

// Gate wraps a Ledger with the reserve/commit policy.
type Gate struct {
	ledger     Ledger
	upgradeURL string
}

// WithUpgradeURL sets the billing page attached to refusals.
var WithUpgradeURL = opts.ForName[Gate, string]("upgradeURL")

func NewGate(ledger Ledger, options ...opts.Option[Gate]) *Gate {
	if ledger == nil {
		panic("ledger cannot be nil")
	}
	gate := &Gate{
		ledger:     ledger,
		upgradeURL: DefaultUpgradeURL,
	}
	if err := opts.Apply(gate, options); err != nil {
		panic(err)
	}
	return gate
}

// Reserve runs the pre-flight check. An InsufficientCreditsError means the
// request must be refused before any provider work happens.
func (g *Gate) Reserve(ctx context.Context, userID string, cost int) error {
	enough, err := g.ledger.HasEnoughCredits(ctx, userID, cost)
	if err != nil {
		return fmt.Errorf("credit pre-check failed: %w", err)
	}
	if !enough {
		return &InsufficientCreditsError{
			UserID:     userID,
			Cost:       cost,
			UpgradeURL: g.upgradeURL,
		}
	}
	return nil
}

// Commit deducts the cost after the provider accepted the request. A failed
// deduction does not roll the stream back; callers log it and move on.
func (g *Gate) Commit(ctx context.Context, userID string, cost int) error {
	if err := g.ledger.DeductCredits(ctx, userID, cost); err != nil {
		return fmt.Errorf("credit deduction failed: %w", err)
	}
	return nil
}
