package reveal

import (
	"errors"
	"fmt"

	"promptmint/core/events"
	"promptmint/core/types"
	"promptmint/native/access"
)

var (
	ErrNilState       = errors.New("reveal: state not configured")
	ErrLengthMismatch = errors.New("reveal: token and uri lists differ in length")
	ErrTokenNotFound  = errors.New("reveal: token not found")
	// ErrAlreadyRevealed matches any AlreadyRevealedError through errors.Is.
	ErrAlreadyRevealed = errors.New("reveal: token already revealed")
)

// AlreadyRevealedError identifies the batch element that targeted a token
// whose metadata is already permanent.
type AlreadyRevealedError struct {
	TokenID uint64
}

func (e *AlreadyRevealedError) Error() string {
	return fmt.Sprintf("reveal: token %d already revealed", e.TokenID)
}

func (e *AlreadyRevealedError) Is(target error) bool {
	return target == ErrAlreadyRevealed
}

type engineState interface {
	TokenGet(id uint64) (*types.Token, bool, error)
	TokenPut(token *types.Token) error
	PlaceholderURIGet() (string, error)
	PlaceholderURIPut(uri string) error
}

// BatchWriter stages the token writes of one reveal batch and applies them
// atomically on Commit.
type BatchWriter interface {
	TokenPut(token *types.Token) error
	Commit() error
}

// Engine tracks which tokens carry permanent metadata and serves the shared
// placeholder for everything still hidden.
type Engine struct {
	state        engineState
	roles        access.RoleView
	emitter      events.Emitter
	batchFactory func() BatchWriter
}

// NewEngine constructs a reveal engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
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

// SetBatchFactory configures how reveal batches stage their writes. Without a
// factory every write goes straight to the state backend.
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

func (w directWriter) Commit() error { return nil }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

// SetPlaceholderURI updates the shared metadata reference served for every
// unrevealed token. Tokens already revealed are unaffected.
func (e *Engine) SetPlaceholderURI(caller [20]byte, uri string) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := access.RequireAdmin(e.roles, caller); err != nil {
		return err
	}
	if err := e.state.PlaceholderURIPut(uri); err != nil {
		return err
	}
	e.emit(PlaceholderUpdatedEvent(uri))
	return nil
}

// RevealTokens assigns permanent metadata to every listed token, or to none
// of them. The batch is validated in full before the first write: a missing
// token, an already revealed token, or a duplicate id within the batch
// rejects the entire call. An empty batch succeeds as a no-op.
func (e *Engine) RevealTokens(caller [20]byte, tokenIDs []uint64, uris []string) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := access.RequireAdminOrKeeper(e.roles, caller); err != nil {
		return err
	}
	if len(tokenIDs) != len(uris) {
		return ErrLengthMismatch
	}
	if len(tokenIDs) == 0 {
		return nil
	}

	staged := make([]*types.Token, 0, len(tokenIDs))
	seen := make(map[uint64]struct{}, len(tokenIDs))
	for i, id := range tokenIDs {
		token, ok, err := e.state.TokenGet(id)
		if err != nil {
			return err
		}
		if !ok || token == nil {
			return ErrTokenNotFound
		}
		if token.Revealed {
			return &AlreadyRevealedError{TokenID: id}
		}
		if _, dup := seen[id]; dup {
			return &AlreadyRevealedError{TokenID: id}
		}
		seen[id] = struct{}{}
		token.Revealed = true
		token.PermanentURI = uris[i]
		staged = append(staged, token)
	}
	writer := e.newBatch()
	for _, token := range staged {
		if err := writer.TokenPut(token); err != nil {
			return err
		}
	}
	if err := writer.Commit(); err != nil {
		return err
	}
	e.emit(TokensRevealedEvent(tokenIDs))
	return nil
}

// TokenURI returns the token's permanent metadata reference once revealed,
// and the shared placeholder before that.
func (e *Engine) TokenURI(id uint64) (string, error) {
	if e == nil || e.state == nil {
		return "", ErrNilState
	}
	token, ok, err := e.state.TokenGet(id)
	if err != nil {
		return "", err
	}
	if !ok || token == nil {
		return "", ErrTokenNotFound
	}
	if token.Revealed {
		return token.PermanentURI, nil
	}
	return e.state.PlaceholderURIGet()
}

// IsRevealed reports whether the token carries permanent metadata.
func (e *Engine) IsRevealed(id uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	token, ok, err := e.state.TokenGet(id)
	if err != nil {
		return false, err
	}
	if !ok || token == nil {
		return false, ErrTokenNotFound
	}
	return token.Revealed, nil
}

// PlaceholderURI returns the shared placeholder currently configured.
func (e *Engine) PlaceholderURI() (string, error) {
	if e == nil || e.state == nil {
		return "", ErrNilState
	}
	return e.state.PlaceholderURIGet()
}
