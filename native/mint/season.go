package mint

import (
	"math/big"

	"promptmint/core/types"
	"promptmint/native/access"
)

// EndSeason permanently closes the issuance window and starts the sweep
// protection clock. Calling it a second time fails without touching the
// recorded end timestamp.
func (e *Engine) EndSeason(caller [20]byte) (int64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	if err := access.RequireAdmin(e.roles, caller); err != nil {
		return 0, err
	}
	season, err := e.state.SeasonGet()
	if err != nil {
		return 0, err
	}
	if season != nil && season.Ended {
		return 0, ErrSeasonAlreadyEnded
	}
	endedAt := e.now()
	if err := e.state.SeasonPut(&types.SeasonState{Ended: true, EndedAt: endedAt}); err != nil {
		return 0, err
	}
	e.emit(SeasonEndedEvent(endedAt))
	return endedAt, nil
}

// SeasonEnded reports whether issuance has been permanently closed.
func (e *Engine) SeasonEnded() (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	season, err := e.state.SeasonGet()
	if err != nil {
		return false, err
	}
	return season != nil && season.Ended, nil
}

// SeasonEndTime returns the unix timestamp recorded when the season ended, or
// zero while the season is still active.
func (e *Engine) SeasonEndTime() (int64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	season, err := e.state.SeasonGet()
	if err != nil {
		return 0, err
	}
	if season == nil || !season.Ended {
		return 0, nil
	}
	return season.EndedAt, nil
}

// SweepUnclaimedRewards reclaims the listed authors' unclaimed balances into
// the treasury once the season has ended and the protection window elapsed.
// Authors with a zero balance, including duplicates of an already swept
// address, are skipped without error. An empty list succeeds and sweeps
// nothing.
func (e *Engine) SweepUnclaimedRewards(caller [20]byte, authors [][20]byte) (*SweepResult, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := access.RequireAdmin(e.roles, caller); err != nil {
		return nil, err
	}
	season, err := e.state.SeasonGet()
	if err != nil {
		return nil, err
	}
	if season == nil || !season.Ended {
		return nil, ErrSeasonNotEnded
	}
	if e.now() < season.EndedAt+sweepProtectionSeconds {
		return nil, ErrSweepProtectionActive
	}

	writer := e.newBatch()
	total := big.NewInt(0)
	swept := 0
	seen := make(map[[20]byte]struct{}, len(authors))
	for _, author := range authors {
		if _, dup := seen[author]; dup {
			continue
		}
		seen[author] = struct{}{}
		balance, err := e.state.AuthorBalanceGet(author)
		if err != nil {
			return nil, err
		}
		if balance == nil || balance.Sign() == 0 {
			continue
		}
		if err := writer.AuthorBalancePut(author, big.NewInt(0)); err != nil {
			return nil, err
		}
		total = total.Add(total, balance)
		swept++
	}
	if total.Sign() > 0 {
		treasury, err := e.state.TreasuryBalanceGet()
		if err != nil {
			return nil, err
		}
		treasury = new(big.Int).Add(newBigInt(treasury), total)
		if err := writer.TreasuryBalancePut(treasury); err != nil {
			return nil, err
		}
		if err := writer.Commit(); err != nil {
			return nil, err
		}
		e.emit(RewardsSweptEvent(total.String(), swept))
	}
	return &SweepResult{TotalSwept: total, AuthorsSwept: swept}, nil
}
