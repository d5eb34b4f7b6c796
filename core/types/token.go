package types

// Token is a single issued collectible. Ownership is tracked by the external
// asset registry; the core records only the revenue-share author and the
// metadata reveal state. PermanentURI is set exactly once, together with the
// Revealed flip.
type Token struct {
	ID           uint64   `json:"id"`
	PromptAuthor [20]byte `json:"promptAuthor"`
	Revealed     bool     `json:"revealed"`
	PermanentURI string   `json:"permanentUri"`
	MintedAt     int64    `json:"mintedAt"`
}

// Clone returns a copy of the token so callers can mutate it freely.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

// SeasonState captures the one-way issuance window. EndedAt is only
// meaningful once Ended is true.
type SeasonState struct {
	Ended   bool  `json:"ended"`
	EndedAt int64 `json:"endedAt"`
}

// Clone returns a copy of the season state.
func (s *SeasonState) Clone() *SeasonState {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
