package rpc

import (
	"net/http"
)

type setPlaceholderParams struct {
	Caller string `json:"caller"`
	URI    string `json:"uri"`
}

type revealBatchParams struct {
	Caller   string   `json:"caller"`
	TokenIDs []uint64 `json:"tokenIds"`
	URIs     []string `json:"uris"`
}

type revealBatchResult struct {
	Revealed int `json:"revealed"`
}

type tokenURIResult struct {
	TokenID uint64 `json:"tokenId"`
	URI     string `json:"uri"`
}

type isRevealedResult struct {
	TokenID  uint64 `json:"tokenId"`
	Revealed bool   `json:"revealed"`
}

func (s *Server) handleRevealSetPlaceholder(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params setPlaceholderParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeHexAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.reveal.SetPlaceholderURI(caller, params.URI); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, setPlaceholderParams{URI: params.URI})
}

func (s *Server) handleRevealBatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params revealBatchParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeHexAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.reveal.RevealTokens(caller, params.TokenIDs, params.URIs); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, revealBatchResult{Revealed: len(params.TokenIDs)})
}

func (s *Server) handleRevealTokenURI(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params tokenIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	uri, err := s.reveal.TokenURI(params.TokenID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, tokenURIResult{TokenID: params.TokenID, URI: uri})
}

func (s *Server) handleRevealIsRevealed(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params tokenIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	revealed, err := s.reveal.IsRevealed(params.TokenID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, isRevealedResult{TokenID: params.TokenID, Revealed: revealed})
}
