package mint

import (
	"encoding/hex"
	"errors"
	"math/big"
	"time"

	"promptmint/core/events"
	"promptmint/core/types"
	"promptmint/native/access"
)

var (
	ErrNilState              = errors.New("mint engine: state not configured")
	ErrMintingDisabled       = errors.New("mint engine: season has ended")
	ErrInvalidQuantity       = errors.New("mint engine: quantity must be at least 1")
	ErrExceedsMaxBatchSize   = errors.New("mint engine: quantity exceeds batch cap")
	ErrInsufficientPayment   = errors.New("mint engine: payment below required price")
	ErrInvalidAmount         = errors.New("mint engine: amount must be non-negative")
	ErrNoBalance             = errors.New("mint engine: treasury is empty")
	ErrTransferFailed        = errors.New("mint engine: external transfer failed")
	ErrTransferNotConfigured = errors.New("mint engine: transfer backend not configured")
	ErrReentrantCall         = errors.New("mint engine: reentrant call rejected")
	ErrSeasonAlreadyEnded    = errors.New("mint engine: season already ended")
	ErrSeasonNotEnded        = errors.New("mint engine: season not ended")
	ErrSweepProtectionActive = errors.New("mint engine: sweep protection window active")
	ErrTokenNotFound         = errors.New("mint engine: token not found")
)

// TransferFunc moves value out of the system to an external recipient. A nil
// error means the value has definitively left the system; any error means
// nothing moved and the caller must roll back.
type TransferFunc func(to [20]byte, amount *big.Int) error

// AssetRegistry is notified after tokens are created so the external
// ownership ledger can record them. The core never reads it back.
type AssetRegistry interface {
	TokensMinted(owner [20]byte, startTokenID uint64, quantity uint32)
}

// BatchWriter stages the state writes of one batch operation and applies them
// atomically on Commit. The daemon backs it with a database write batch so an
// infrastructure failure mid-operation never leaves a partially applied batch
// behind.
type BatchWriter interface {
	TokenPut(token *types.Token) error
	SetNextTokenID(id uint64) error
	AuthorBalancePut(author [20]byte, amount *big.Int) error
	TreasuryBalancePut(amount *big.Int) error
	Commit() error
}

type engineState interface {
	TokenGet(id uint64) (*types.Token, bool, error)
	TokenPut(token *types.Token) error
	NextTokenID() (uint64, error)
	SetNextTokenID(id uint64) error
	AuthorBalanceGet(author [20]byte) (*big.Int, error)
	AuthorBalancePut(author [20]byte, amount *big.Int) error
	TreasuryBalanceGet() (*big.Int, error)
	TreasuryBalancePut(amount *big.Int) error
	MintPriceGet() (*big.Int, error)
	MintPricePut(price *big.Int) error
	SeasonGet() (*types.SeasonState, error)
	SeasonPut(season *types.SeasonState) error
}

// Engine wires the issuance, pricing, ledger and season business logic with
// persistence and event emission.
type Engine struct {
	state        engineState
	roles        access.RoleView
	emitter      events.Emitter
	transfer     TransferFunc
	registry     AssetRegistry
	batchFactory func() BatchWriter
	nowFn        func() int64
	guard        reentrancyGuard
}

// NewEngine constructs a mint engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRoles configures the role registry consulted for gated operations.
func (e *Engine) SetRoles(roles access.RoleView) { e.roles = roles }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetTransfer configures the external transfer backend for payouts.
func (e *Engine) SetTransfer(transfer TransferFunc) { e.transfer = transfer }

// SetAssetRegistry configures the external ownership ledger notified of
// freshly created tokens.
func (e *Engine) SetAssetRegistry(registry AssetRegistry) { e.registry = registry }

// SetBatchFactory configures how batch operations stage their writes. Without
// a factory every write goes straight to the state backend.
func (e *Engine) SetBatchFactory(factory func() BatchWriter) { e.batchFactory = factory }

func (e *Engine) newBatch() BatchWriter {
	if e.batchFactory != nil {
		if writer := e.batchFactory(); writer != nil {
			return writer
		}
	}
	return directWriter{state: e.state}
}

// directWriter forwards writes to the state backend immediately.
type directWriter struct {
	state engineState
}

func (w directWriter) TokenPut(token *types.Token) error { return w.state.TokenPut(token) }

func (w directWriter) SetNextTokenID(id uint64) error { return w.state.SetNextTokenID(id) }

func (w directWriter) AuthorBalancePut(author [20]byte, amount *big.Int) error {
	return w.state.AuthorBalancePut(author, amount)
}

func (w directWriter) TreasuryBalancePut(amount *big.Int) error {
	return w.state.TreasuryBalancePut(amount)
}

func (w directWriter) Commit() error { return nil }

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// Mint validates and executes one batch issuance. Token identifiers are
// allocated contiguously, the author is credited exactly half of the required
// price, and the remainder plus any overpayment accrues to the treasury. The
// call leaves no partial effects on any failure path: every precondition is
// checked before the first write, and the writes themselves are staged and
// committed as one batch.
func (e *Engine) Mint(caller, author [20]byte, quantity uint32, payment *big.Int) (*Receipt, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	season, err := e.state.SeasonGet()
	if err != nil {
		return nil, err
	}
	if season != nil && season.Ended {
		return nil, ErrMintingDisabled
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if quantity > maxBatchSize {
		return nil, ErrExceedsMaxBatchSize
	}
	if payment == nil || payment.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	price, err := e.state.MintPriceGet()
	if err != nil {
		return nil, err
	}
	required := new(big.Int).Mul(newBigInt(price), big.NewInt(int64(quantity)))
	if payment.Cmp(required) < 0 {
		return nil, ErrInsufficientPayment
	}

	startID, err := e.state.NextTokenID()
	if err != nil {
		return nil, err
	}

	// The author share is half of the required price, never of the funds
	// actually received; overpayment accrues entirely to the treasury.
	authorShare := new(big.Int).Div(required, big.NewInt(2))
	treasuryShare := new(big.Int).Sub(payment, authorShare)

	writer := e.newBatch()
	mintedAt := e.now()
	for i := uint64(0); i < uint64(quantity); i++ {
		token := &types.Token{
			ID:           startID + i,
			PromptAuthor: author,
			Revealed:     false,
			MintedAt:     mintedAt,
		}
		if err := writer.TokenPut(token); err != nil {
			return nil, err
		}
	}
	if err := writer.SetNextTokenID(startID + uint64(quantity)); err != nil {
		return nil, err
	}
	if authorShare.Sign() > 0 {
		balance, err := e.state.AuthorBalanceGet(author)
		if err != nil {
			return nil, err
		}
		balance = new(big.Int).Add(newBigInt(balance), authorShare)
		if err := writer.AuthorBalancePut(author, balance); err != nil {
			return nil, err
		}
	}
	if treasuryShare.Sign() > 0 {
		treasury, err := e.state.TreasuryBalanceGet()
		if err != nil {
			return nil, err
		}
		treasury = new(big.Int).Add(newBigInt(treasury), treasuryShare)
		if err := writer.TreasuryBalancePut(treasury); err != nil {
			return nil, err
		}
	}
	if err := writer.Commit(); err != nil {
		return nil, err
	}

	if e.registry != nil {
		e.registry.TokensMinted(caller, startID, quantity)
	}
	e.emit(BatchIssuedEvent(hexAddr(caller), hexAddr(author), startID, quantity, payment.String()))
	return &Receipt{
		StartTokenID:  startID,
		Quantity:      quantity,
		Required:      required,
		AuthorShare:   authorShare,
		TreasuryShare: treasuryShare,
	}, nil
}

// SetMintPrice updates the prospective per-token price. Zero is permitted and
// enables free mints. Balances recorded from prior issuances are untouched.
func (e *Engine) SetMintPrice(caller [20]byte, newPrice *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := access.RequireAdminOrKeeper(e.roles, caller); err != nil {
		return err
	}
	if newPrice == nil || newPrice.Sign() < 0 {
		return ErrInvalidAmount
	}
	oldPrice, err := e.state.MintPriceGet()
	if err != nil {
		return err
	}
	if err := e.state.MintPricePut(new(big.Int).Set(newPrice)); err != nil {
		return err
	}
	e.emit(PriceUpdatedEvent(newBigInt(oldPrice).String(), newPrice.String()))
	return nil
}

// MintPrice returns the current per-token price.
func (e *Engine) MintPrice() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	price, err := e.state.MintPriceGet()
	if err != nil {
		return nil, err
	}
	return newBigInt(price), nil
}

// AuthorClaimable returns the claimable balance accrued for the author.
func (e *Engine) AuthorClaimable(author [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	balance, err := e.state.AuthorBalanceGet(author)
	if err != nil {
		return nil, err
	}
	return newBigInt(balance), nil
}

// TreasuryBalance returns the pooled platform balance.
func (e *Engine) TreasuryBalance() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	treasury, err := e.state.TreasuryBalanceGet()
	if err != nil {
		return nil, err
	}
	return newBigInt(treasury), nil
}

// TokenPromptAuthor returns the address credited for the token's revenue
// share.
func (e *Engine) TokenPromptAuthor(id uint64) ([20]byte, error) {
	var zero [20]byte
	if e == nil || e.state == nil {
		return zero, ErrNilState
	}
	token, ok, err := e.state.TokenGet(id)
	if err != nil {
		return zero, err
	}
	if !ok || token == nil {
		return zero, ErrTokenNotFound
	}
	return token.PromptAuthor, nil
}
