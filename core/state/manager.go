package state

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"

	"promptmint/core/types"
	"promptmint/storage"
)

// firstTokenID is where the identifier counter starts; ids are contiguous and
// never reused.
const firstTokenID uint64 = 1

// Manager reads and writes the contract core's records on a key-value
// database. All records are RLP encoded. It satisfies the state interfaces of
// the mint and reveal engines plus the role registry consulted by the
// authorization gate.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	tokenPrefix         = []byte("token:")
	authorBalancePrefix = []byte("author-balance:")
	rolePrefix          = []byte("role:")
	nextTokenIDKey      = []byte("mint:next-token-id")
	treasuryKey         = []byte("mint:treasury")
	mintPriceKey        = []byte("mint:price")
	seasonKey           = []byte("mint:season")
	placeholderKey      = []byte("reveal:placeholder")
)

func tokenKey(id uint64) []byte {
	buf := make([]byte, len(tokenPrefix)+8)
	copy(buf, tokenPrefix)
	binary.BigEndian.PutUint64(buf[len(tokenPrefix):], id)
	return buf
}

func authorBalanceKey(author [20]byte) []byte {
	buf := make([]byte, len(authorBalancePrefix)+len(author))
	copy(buf, authorBalancePrefix)
	copy(buf[len(authorBalancePrefix):], author[:])
	return buf
}

func roleKey(role string) []byte {
	buf := make([]byte, len(rolePrefix)+len(role))
	copy(buf, rolePrefix)
	copy(buf[len(rolePrefix):], role)
	return buf
}

func (m *Manager) get(key []byte) ([]byte, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

// storedToken mirrors types.Token with RLP-friendly field types.
type storedToken struct {
	ID           uint64
	PromptAuthor [20]byte
	Revealed     bool
	PermanentURI string
	MintedAt     uint64
}

func encodeToken(token *types.Token) ([]byte, error) {
	if token == nil {
		return nil, fmt.Errorf("token must not be nil")
	}
	if token.ID < firstTokenID {
		return nil, fmt.Errorf("invalid token id %d", token.ID)
	}
	record := storedToken{
		ID:           token.ID,
		PromptAuthor: token.PromptAuthor,
		Revealed:     token.Revealed,
		PermanentURI: token.PermanentURI,
		MintedAt:     uint64(token.MintedAt),
	}
	return rlp.EncodeToBytes(&record)
}

// TokenPut stores the provided token record.
func (m *Manager) TokenPut(token *types.Token) error {
	encoded, err := encodeToken(token)
	if err != nil {
		return err
	}
	return m.db.Put(tokenKey(token.ID), encoded)
}

// TokenGet retrieves a token record by identifier.
func (m *Manager) TokenGet(id uint64) (*types.Token, bool, error) {
	data, err := m.get(tokenKey(id))
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	var record storedToken
	if err := rlp.DecodeBytes(data, &record); err != nil {
		return nil, false, err
	}
	return &types.Token{
		ID:           record.ID,
		PromptAuthor: record.PromptAuthor,
		Revealed:     record.Revealed,
		PermanentURI: record.PermanentURI,
		MintedAt:     int64(record.MintedAt),
	}, true, nil
}

// NextTokenID returns the identifier the next issuance will start at.
func (m *Manager) NextTokenID() (uint64, error) {
	data, err := m.get(nextTokenIDKey)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return firstTokenID, nil
	}
	var next uint64
	if err := rlp.DecodeBytes(data, &next); err != nil {
		return 0, err
	}
	return next, nil
}

// SetNextTokenID advances the identifier counter. Moving it backwards is
// rejected so ids are never reused.
func (m *Manager) SetNextTokenID(id uint64) error {
	current, err := m.NextTokenID()
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
	return m.db.Put(nextTokenIDKey, encoded)
}

func (m *Manager) balanceGet(key []byte) (*big.Int, error) {
	data, err := m.get(key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(data, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func encodeAmount(amount *big.Int) ([]byte, error) {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("negative balance not allowed")
	}
	return rlp.EncodeToBytes(amount)
}

func (m *Manager) balancePut(key []byte, amount *big.Int) error {
	encoded, err := encodeAmount(amount)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// AuthorBalanceGet returns the claimable balance for the author, implicitly
// zero when never credited.
func (m *Manager) AuthorBalanceGet(author [20]byte) (*big.Int, error) {
	return m.balanceGet(authorBalanceKey(author))
}

// AuthorBalancePut stores the claimable balance for the author.
func (m *Manager) AuthorBalancePut(author [20]byte, amount *big.Int) error {
	return m.balancePut(authorBalanceKey(author), amount)
}

// TreasuryBalanceGet returns the pooled platform balance.
func (m *Manager) TreasuryBalanceGet() (*big.Int, error) {
	return m.balanceGet(treasuryKey)
}

// TreasuryBalancePut stores the pooled platform balance.
func (m *Manager) TreasuryBalancePut(amount *big.Int) error {
	return m.balancePut(treasuryKey, amount)
}

// MintPriceGet returns the current per-token price, zero when unset.
func (m *Manager) MintPriceGet() (*big.Int, error) {
	return m.balanceGet(mintPriceKey)
}

// MintPricePut stores the per-token price.
func (m *Manager) MintPricePut(price *big.Int) error {
	return m.balancePut(mintPriceKey, price)
}

type storedSeason struct {
	Ended   bool
	EndedAt uint64
}

// SeasonGet returns the season state, active when never written.
func (m *Manager) SeasonGet() (*types.SeasonState, error) {
	data, err := m.get(seasonKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return &types.SeasonState{}, nil
	}
	var record storedSeason
	if err := rlp.DecodeBytes(data, &record); err != nil {
		return nil, err
	}
	return &types.SeasonState{Ended: record.Ended, EndedAt: int64(record.EndedAt)}, nil
}

// SeasonPut stores the season state. Reopening an ended season is rejected.
func (m *Manager) SeasonPut(season *types.SeasonState) error {
	if season == nil {
		return fmt.Errorf("season must not be nil")
	}
	current, err := m.SeasonGet()
	if err != nil {
		return err
	}
	if current.Ended && !season.Ended {
		return fmt.Errorf("season end is permanent")
	}
	encoded, err := rlp.EncodeToBytes(&storedSeason{Ended: season.Ended, EndedAt: uint64(season.EndedAt)})
	if err != nil {
		return err
	}
	return m.db.Put(seasonKey, encoded)
}

// PlaceholderURIGet returns the shared placeholder metadata reference.
func (m *Manager) PlaceholderURIGet() (string, error) {
	data, err := m.get(placeholderKey)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}
	var uri string
	if err := rlp.DecodeBytes(data, &uri); err != nil {
		return "", err
	}
	return uri, nil
}

// PlaceholderURIPut stores the shared placeholder metadata reference.
func (m *Manager) PlaceholderURIPut(uri string) error {
	encoded, err := rlp.EncodeToBytes(uri)
	if err != nil {
		return err
	}
	return m.db.Put(placeholderKey, encoded)
}

// SetRole associates an address with the specified role. Duplicate
// assignments are ignored while the stored list remains sorted for
// determinism.
func (m *Manager) SetRole(role string, addr []byte) error {
	trimmed := strings.TrimSpace(role)
	if trimmed == "" {
		return fmt.Errorf("role must not be empty")
	}
	if len(addr) == 0 {
		return fmt.Errorf("address must not be empty")
	}
	members, err := m.RoleMembers(trimmed)
	if err != nil {
		return err
	}
	for _, existing := range members {
		if bytes.Equal(existing, addr) {
			return nil
		}
	}
	members = append(members, append([]byte(nil), addr...))
	sort.Slice(members, func(i, j int) bool {
		return hex.EncodeToString(members[i]) < hex.EncodeToString(members[j])
	})
	encoded, err := rlp.EncodeToBytes(members)
	if err != nil {
		return err
	}
	return m.db.Put(roleKey(trimmed), encoded)
}

// RevokeRole removes an address from the specified role. Revoking a member
// that was never granted is a no-op, and revoking the last member removes the
// stored record entirely.
func (m *Manager) RevokeRole(role string, addr []byte) error {
	trimmed := strings.TrimSpace(role)
	if trimmed == "" {
		return fmt.Errorf("role must not be empty")
	}
	members, err := m.RoleMembers(trimmed)
	if err != nil {
		return err
	}
	filtered := members[:0]
	for _, existing := range members {
		if !bytes.Equal(existing, addr) {
			filtered = append(filtered, existing)
		}
	}
	if len(filtered) == len(members) {
		return nil
	}
	if len(filtered) == 0 {
		return m.db.Delete(roleKey(trimmed))
	}
	encoded, err := rlp.EncodeToBytes(filtered)
	if err != nil {
		return err
	}
	return m.db.Put(roleKey(trimmed), encoded)
}

// RoleMembers returns all addresses assigned to the provided role.
func (m *Manager) RoleMembers(role string) ([][]byte, error) {
	data, err := m.get(roleKey(strings.TrimSpace(role)))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return [][]byte{}, nil
	}
	var members [][]byte
	if err := rlp.DecodeBytes(data, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// HasRole reports whether the provided address is associated with the
// specified role. Read errors result in a false return, matching the
// fail-closed semantics required by the authorization gate.
func (m *Manager) HasRole(role string, addr []byte) bool {
	if len(addr) == 0 {
		return false
	}
	members, err := m.RoleMembers(role)
	if err != nil {
		return false
	}
	for _, member := range members {
		if bytes.Equal(member, addr) {
			return true
		}
	}
	return false
}
