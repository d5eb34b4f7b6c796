package mint

import "math/big"

// maxBatchSize caps the number of tokens a single issuance call may create.
const maxBatchSize = 50

// sweepProtectionSeconds is the grace window after season end during which
// unclaimed author balances cannot be reclaimed into the treasury.
const sweepProtectionSeconds int64 = 14 * 24 * 60 * 60

// Receipt summarises the effects of one successful issuance call.
type Receipt struct {
	StartTokenID  uint64   `json:"startTokenId"`
	Quantity      uint32   `json:"quantity"`
	Required      *big.Int `json:"required"`
	AuthorShare   *big.Int `json:"authorShare"`
	TreasuryShare *big.Int `json:"treasuryShare"`
}

// Clone returns a deep copy of the receipt.
func (r *Receipt) Clone() *Receipt {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Required = newBigInt(r.Required)
	clone.AuthorShare = newBigInt(r.AuthorShare)
	clone.TreasuryShare = newBigInt(r.TreasuryShare)
	return &clone
}

// SweepResult summarises one sweep call over a list of authors.
type SweepResult struct {
	TotalSwept   *big.Int `json:"totalSwept"`
	AuthorsSwept int      `json:"authorsSwept"`
}

func newBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
