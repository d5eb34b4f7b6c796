package mint

import (
	"math/big"

	"promptmint/native/access"
)

// ClaimAuthorRewards pays out the caller's accrued share. A zero balance is a
// successful no-op. The balance is zeroed before the external transfer runs;
// if the transfer fails the previous balance is written back, leaving the
// ledger exactly as before the call.
func (e *Engine) ClaimAuthorRewards(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.guard.enter(); err != nil {
		return nil, err
	}
	defer e.guard.leave()

	balance, err := e.state.AuthorBalanceGet(caller)
	if err != nil {
		return nil, err
	}
	amount := newBigInt(balance)
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if e.transfer == nil {
		return nil, ErrTransferNotConfigured
	}
	if err := e.state.AuthorBalancePut(caller, big.NewInt(0)); err != nil {
		return nil, err
	}
	if err := e.transfer(caller, new(big.Int).Set(amount)); err != nil {
		if restoreErr := e.state.AuthorBalancePut(caller, amount); restoreErr != nil {
			return nil, restoreErr
		}
		return nil, ErrTransferFailed
	}
	e.emit(AuthorClaimedEvent(hexAddr(caller), amount.String()))
	return amount, nil
}

// WithdrawTreasury pays out the entire treasury to the caller. Unlike claim,
// an empty treasury is an explicit error. Same zero-before-transfer and
// rollback discipline as ClaimAuthorRewards.
func (e *Engine) WithdrawTreasury(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := access.RequireAdmin(e.roles, caller); err != nil {
		return nil, err
	}
	if err := e.guard.enter(); err != nil {
		return nil, err
	}
	defer e.guard.leave()

	treasury, err := e.state.TreasuryBalanceGet()
	if err != nil {
		return nil, err
	}
	amount := newBigInt(treasury)
	if amount.Sign() == 0 {
		return nil, ErrNoBalance
	}
	if e.transfer == nil {
		return nil, ErrTransferNotConfigured
	}
	if err := e.state.TreasuryBalancePut(big.NewInt(0)); err != nil {
		return nil, err
	}
	if err := e.transfer(caller, new(big.Int).Set(amount)); err != nil {
		if restoreErr := e.state.TreasuryBalancePut(amount); restoreErr != nil {
			return nil, restoreErr
		}
		return nil, ErrTransferFailed
	}
	e.emit(TreasuryWithdrawnEvent(hexAddr(caller), amount.String()))
	return amount, nil
}

// ReceiveDirectPayment credits value sent outside of Mint entirely to the
// treasury. A zero amount is accepted and does nothing.
func (e *Engine) ReceiveDirectPayment(sender [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	treasury, err := e.state.TreasuryBalanceGet()
	if err != nil {
		return err
	}
	treasury = new(big.Int).Add(newBigInt(treasury), amount)
	if err := e.state.TreasuryBalancePut(treasury); err != nil {
		return err
	}
	e.emit(PaymentReceivedEvent(hexAddr(sender), amount.String()))
	return nil
}
