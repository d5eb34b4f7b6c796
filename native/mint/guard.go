package mint

// reentrancyGuard rejects nested entry into the value-transferring operations.
// External transfers hand control to the recipient, which may call back into
// the engine before the outer operation has resolved; the guard turns that
// into a hard failure instead of a double payout.
//
// The flag is shared across claim and withdraw: a callback from either payout
// path may not re-enter either one.
type reentrancyGuard struct {
	busy bool
}

func (g *reentrancyGuard) enter() error {
	if g.busy {
		return ErrReentrantCall
	}
	g.busy = true
	return nil
}

func (g *reentrancyGuard) leave() {
	g.busy = false
}
