package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"promptmint/core/types"
	"promptmint/storage"
)

// Batch stages writes against a Manager and commits them to the database in a
// single atomic write. Reads during staging still observe the committed
// state, so callers must finish reading a key before staging a write to it.
type Batch struct {
	m   *Manager
	ops []storage.BatchOp
}

// NewBatch returns an empty write batch over the manager's database.
func (m *Manager) NewBatch() *Batch {
	return &Batch{m: m}
}

func (b *Batch) stage(key, value []byte) {
	b.ops = append(b.ops, storage.BatchOp{Key: key, Value: value})
}

// TokenPut stages a token record write.
func (b *Batch) TokenPut(token *types.Token) error {
	encoded, err := encodeToken(token)
	if err != nil {
		return err
	}
	b.stage(tokenKey(token.ID), encoded)
	return nil
}

// SetNextTokenID stages an advance of the identifier counter. Moving it
// backwards relative to the committed counter is rejected.
func (b *Batch) SetNextTokenID(id uint64) error {
	current, err := b.m.NextTokenID()
	if err != nil {
		return err
	}
	if id < current {
		return fmt.Errorf("token id counter must not decrease (%d < %d)", id, current)
	}
	encoded, err := rlp.EncodeToBytes(id)
	if err != nil {
		return err
	}
	b.stage(nextTokenIDKey, encoded)
	return nil
}

// AuthorBalancePut stages a claimable balance write for the author.
func (b *Batch) AuthorBalancePut(author [20]byte, amount *big.Int) error {
	encoded, err := encodeAmount(amount)
	if err != nil {
		return err
	}
	b.stage(authorBalanceKey(author), encoded)
	return nil
}

// TreasuryBalancePut stages a write of the pooled platform balance.
func (b *Batch) TreasuryBalancePut(amount *big.Int) error {
	encoded, err := encodeAmount(amount)
	if err != nil {
		return err
	}
	b.stage(treasuryKey, encoded)
	return nil
}

// Commit applies every staged write atomically. A batch with no staged writes
// commits as a no-op.
func (b *Batch) Commit() error {
	if len(b.ops) == 0 {
		return nil
	}
	err := b.m.db.WriteBatch(b.ops)
	b.ops = nil
	return err
}
