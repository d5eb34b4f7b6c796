package mint

import (
	"errors"
	"math/big"
	"testing"

	"promptmint/core/events"
	"promptmint/core/types"
	"promptmint/native/access"
)

type mockState struct {
	tokens   map[uint64]*types.Token
	nextID   uint64
	authors  map[[20]byte]*big.Int
	treasury *big.Int
	price    *big.Int
	season   *types.SeasonState
}

func newMockState() *mockState {
	return &mockState{
		tokens:   make(map[uint64]*types.Token),
		nextID:   1,
		authors:  make(map[[20]byte]*big.Int),
		treasury: big.NewInt(0),
		price:    big.NewInt(0),
		season:   &types.SeasonState{},
	}
}

func (m *mockState) TokenGet(id uint64) (*types.Token, bool, error) {
	token, ok := m.tokens[id]
	if !ok {
		return nil, false, nil
	}
	return token.Clone(), true, nil
}

func (m *mockState) TokenPut(token *types.Token) error {
	if token == nil {
		return nil
	}
	m.tokens[token.ID] = token.Clone()
	return nil
}

func (m *mockState) NextTokenID() (uint64, error) { return m.nextID, nil }

func (m *mockState) SetNextTokenID(id uint64) error {
	m.nextID = id
	return nil
}

func (m *mockState) AuthorBalanceGet(author [20]byte) (*big.Int, error) {
	balance, ok := m.authors[author]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

func (m *mockState) AuthorBalancePut(author [20]byte, amount *big.Int) error {
	m.authors[author] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) TreasuryBalanceGet() (*big.Int, error) {
	return new(big.Int).Set(m.treasury), nil
}

func (m *mockState) TreasuryBalancePut(amount *big.Int) error {
	m.treasury = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) MintPriceGet() (*big.Int, error) { return new(big.Int).Set(m.price), nil }

func (m *mockState) MintPricePut(price *big.Int) error {
	m.price = new(big.Int).Set(price)
	return nil
}

func (m *mockState) SeasonGet() (*types.SeasonState, error) { return m.season.Clone(), nil }

func (m *mockState) SeasonPut(season *types.SeasonState) error {
	m.season = season.Clone()
	return nil
}

// heldValue is the conservation check: everything the system holds must equal
// the treasury plus the sum of author balances.
func (m *mockState) heldValue() *big.Int {
	total := new(big.Int).Set(m.treasury)
	for _, balance := range m.authors {
		total = total.Add(total, balance)
	}
	return total
}

type mockRoles struct {
	admins  map[[20]byte]bool
	keepers map[[20]byte]bool
}

func newMockRoles(admins ...[20]byte) *mockRoles {
	roles := &mockRoles{admins: make(map[[20]byte]bool), keepers: make(map[[20]byte]bool)}
	for _, admin := range admins {
		roles.admins[admin] = true
	}
	return roles
}

func (r *mockRoles) grantKeeper(addr [20]byte) { r.keepers[addr] = true }

func (r *mockRoles) HasRole(role string, addr []byte) bool {
	var key [20]byte
	copy(key[:], addr)
	switch role {
	case access.RoleAdmin:
		return r.admins[key]
	case access.RoleKeeper:
		return r.keepers[key]
	default:
		return false
	}
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func newTestEngine(t *testing.T) (*Engine, *mockState, *mockRoles, *events.CaptureEmitter) {
	t.Helper()
	state := newMockState()
	roles := newMockRoles(newTestAddress(0xAD))
	emitter := &events.CaptureEmitter{}
	engine := NewEngine()
	engine.SetState(state)
	engine.SetRoles(roles)
	engine.SetEmitter(emitter)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine, state, roles, emitter
}

func TestMintSplitsRequiredPriceEvenly(t *testing.T) {
	engine, state, _, emitter := newTestEngine(t)
	state.price = big.NewInt(1_000)
	buyer := newTestAddress(0x01)
	author := newTestAddress(0x02)

	receipt, err := engine.Mint(buyer, author, 5, big.NewInt(5_000))
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if receipt.StartTokenID != 1 || receipt.Quantity != 5 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if got := state.authors[author]; got.Cmp(big.NewInt(2_500)) != 0 {
		t.Fatalf("author balance = %s, want 2500", got)
	}
	if state.treasury.Cmp(big.NewInt(2_500)) != 0 {
		t.Fatalf("treasury = %s, want 2500", state.treasury)
	}
	if state.heldValue().Cmp(big.NewInt(5_000)) != 0 {
		t.Fatalf("held value = %s, want 5000", state.heldValue())
	}
	for id := uint64(1); id <= 5; id++ {
		token, ok := state.tokens[id]
		if !ok {
			t.Fatalf("token %d missing", id)
		}
		if token.PromptAuthor != author || token.Revealed {
			t.Fatalf("token %d not initialised correctly: %+v", id, token)
		}
	}
	if state.nextID != 6 {
		t.Fatalf("next id = %d, want 6", state.nextID)
	}
	evts := emitter.Events()
	if len(evts) != 1 || evts[0].EventType() != EventTypeBatchIssued {
		t.Fatalf("expected one batch issued event, got %v", evts)
	}
}

func TestMintOverpaymentAccruesToTreasury(t *testing.T) {
	engine, state, _, _ := newTestEngine(t)
	state.price = big.NewInt(1_000)
	buyer := newTestAddress(0x01)
	author := newTestAddress(0x02)

	// required 3000, submitted 30500: the author share stays floor(3000/2),
	// the 27500 overpay lands entirely in the treasury.
	if _, err := engine.Mint(buyer, author, 3, big.NewInt(30_500)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if got := state.authors[author]; got.Cmp(big.NewInt(1_500)) != 0 {
		t.Fatalf("author balance = %s, want 1500", got)
	}
	if state.treasury.Cmp(big.NewInt(29_000)) != 0 {
		t.Fatalf("treasury = %s, want 29000", state.treasury)
	}
	if state.heldValue().Cmp(big.NewInt(30_500)) != 0 {
		t.Fatalf("held value = %s, want the full payment", state.heldValue())
	}
}

func TestMintOddRequiredPriceFloorsAuthorShare(t *testing.T) {
	engine, state, _, _ := newTestEngine(t)
	state.price = big.NewInt(3)
	buyer := newTestAddress(0x01)
	author := newTestAddress(0x02)

	if _, err := engine.Mint(buyer, author, 1, big.NewInt(3)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if got := state.authors[author]; got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("author balance = %s, want floor(3/2)", got)
	}
	if state.treasury.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("treasury = %s, want 2", state.treasury)
	}
}

func TestMintValidation(t *testing.T) {
	engine, state, _, _ := newTestEngine(t)
	state.price = big.NewInt(1_000)
	buyer := newTestAddress(0x01)
	author := newTestAddress(0x02)

	if _, err := engine.Mint(buyer, author, 0, big.NewInt(0)); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("quantity 0: got %v, want ErrInvalidQuantity", err)
	}
	if _, err := engine.Mint(buyer, author, maxBatchSize+1, big.NewInt(1_000_000)); !errors.Is(err, ErrExceedsMaxBatchSize) {
		t.Fatalf("quantity 51: got %v, want ErrExceedsMaxBatchSize", err)
	}
	if _, err := engine.Mint(buyer, author, 2, big.NewInt(1_999)); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("underpay: got %v, want ErrInsufficientPayment", err)
	}
	if _, err := engine.Mint(buyer, author, 1, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("nil payment: got %v, want ErrInvalidAmount", err)
	}
	if len(state.tokens) != 0 || state.nextID != 1 {
		t.Fatalf("failed mints must leave no tokens behind")
	}
	if state.heldValue().Sign() != 0 {
		t.Fatalf("failed mints must not move value")
	}
}

func TestMintAtBatchCapSucceeds(t *testing.T) {
	engine, state, _, _ := newTestEngine(t)
	state.price = big.NewInt(10)
	buyer := newTestAddress(0x01)
	author := newTestAddress(0x02)

	receipt, err := engine.Mint(buyer, author, maxBatchSize, big.NewInt(500))
	if err != nil {
		t.Fatalf("mint at cap failed: %v", err)
	}
	if receipt.Quantity != maxBatchSize || len(state.tokens) != maxBatchSize {
		t.Fatalf("expected %d tokens, got %d", maxBatchSize, len(state.tokens))
	}
}

func TestMintFreeWhenPriceZero(t *testing.T) {
	engine, state, _, _ := newTestEngine(t)
	buyer := newTestAddress(0x01)
	author := newTestAddress(0x02)

	receipt, err := engine.Mint(buyer, author, 2, big.NewInt(0))
	if err != nil {
		t.Fatalf("free mint failed: %v", err)
	}
	if receipt.AuthorShare.Sign() != 0 || receipt.TreasuryShare.Sign() != 0 {
		t.Fatalf("free mint must not accrue balances: %+v", receipt)
	}
	if state.heldValue().Sign() != 0 {
		t.Fatalf("free mint must not move value")
	}
}

func TestMintAllocatesContiguousIDsAcrossCalls(t *testing.T) {
	engine, state, _, _ := newTestEngine(t)
	state.price = big.NewInt(10)
	buyer := newTestAddress(0x01)
	author := newTestAddress(0x02)

	first, err := engine.Mint(buyer, author, 3, big.NewInt(30))
	if err != nil {
		t.Fatalf("first mint failed: %v", err)
	}
	second, err := engine.Mint(buyer, author, 2, big.NewInt(20))
	if err != nil {
		t.Fatalf("second mint failed: %v", err)
	}
	if first.StartTokenID != 1 || second.StartTokenID != 4 {
		t.Fatalf("ids not contiguous: first=%d second=%d", first.StartTokenID, second.StartTokenID)
	}
	for id := uint64(1); id <= 5; id++ {
		if _, ok := state.tokens[id]; !ok {
			t.Fatalf("token %d missing from contiguous block", id)
		}
	}
}

func TestSetMintPriceRequiresAdminOrKeeper(t *testing.T) {
	engine, state, roles, emitter := newTestEngine(t)
	outsider := newTestAddress(0x99)
	keeper := newTestAddress(0x33)

	if err := engine.SetMintPrice(outsider, big.NewInt(500)); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("outsider price change: got %v, want ErrUnauthorized", err)
	}
	roles.grantKeeper(keeper)
	if err := engine.SetMintPrice(keeper, big.NewInt(500)); err != nil {
		t.Fatalf("keeper price change failed: %v", err)
	}
	if state.price.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("price = %s, want 500", state.price)
	}
	if err := engine.SetMintPrice(newTestAddress(0xAD), big.NewInt(0)); err != nil {
		t.Fatalf("admin zero price failed: %v", err)
	}
	var priceEvents int
	for _, evt := range emitter.Events() {
		if evt.EventType() == EventTypePriceUpdated {
			priceEvents++
		}
	}
	if priceEvents != 2 {
		t.Fatalf("expected 2 price events, got %d", priceEvents)
	}
}

func TestPriceChangeLeavesRecordedBalancesUntouched(t *testing.T) {
	engine, state, _, _ := newTestEngine(t)
	state.price = big.NewInt(1_000)
	buyer := newTestAddress(0x01)
	author := newTestAddress(0x02)

	if _, err := engine.Mint(buyer, author, 4, big.NewInt(4_000)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	authorBefore := new(big.Int).Set(state.authors[author])
	treasuryBefore := new(big.Int).Set(state.treasury)

	if err := engine.SetMintPrice(newTestAddress(0xAD), big.NewInt(9_999)); err != nil {
		t.Fatalf("price change failed: %v", err)
	}
	if state.authors[author].Cmp(authorBefore) != 0 || state.treasury.Cmp(treasuryBefore) != 0 {
		t.Fatalf("price change must not recompute prior balances")
	}

	// The new price applies only prospectively.
	if _, err := engine.Mint(buyer, author, 1, big.NewInt(4_000)); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("new price not applied to next mint: %v", err)
	}
}

func TestTokenPromptAuthor(t *testing.T) {
	engine, state, _, _ := newTestEngine(t)
	state.price = big.NewInt(10)
	author := newTestAddress(0x02)

	if _, err := engine.Mint(newTestAddress(0x01), author, 1, big.NewInt(10)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	got, err := engine.TokenPromptAuthor(1)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if got != author {
		t.Fatalf("prompt author mismatch")
	}
	if _, err := engine.TokenPromptAuthor(42); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("missing token: got %v, want ErrTokenNotFound", err)
	}
}

type recordingRegistry struct {
	owner    [20]byte
	start    uint64
	quantity uint32
	calls    int
}

func (r *recordingRegistry) TokensMinted(owner [20]byte, startTokenID uint64, quantity uint32) {
	r.owner = owner
	r.start = startTokenID
	r.quantity = quantity
	r.calls++
}

func TestMintNotifiesAssetRegistry(t *testing.T) {
	engine, state, _, _ := newTestEngine(t)
	state.price = big.NewInt(10)
	registry := &recordingRegistry{}
	engine.SetAssetRegistry(registry)
	buyer := newTestAddress(0x01)

	if _, err := engine.Mint(buyer, newTestAddress(0x02), 3, big.NewInt(30)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if registry.calls != 1 || registry.owner != buyer || registry.start != 1 || registry.quantity != 3 {
		t.Fatalf("registry not notified correctly: %+v", registry)
	}
}
