package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"promptmint/core/state"
	"promptmint/native/access"
	"promptmint/native/mint"
	"promptmint/native/reveal"
	"promptmint/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server exposes the contract core over JSON-RPC. Mutating methods require
// the bearer token from PROMPTMINT_RPC_TOKEN when one is configured.
type Server struct {
	mint      *mint.Engine
	reveal    *reveal.Engine
	state     *state.Manager
	authToken string
}

func NewServer(mintEngine *mint.Engine, revealEngine *reveal.Engine, manager *state.Manager) *Server {
	return &Server{
		mint:      mintEngine,
		reveal:    revealEngine,
		state:     manager,
		authToken: strings.TrimSpace(os.Getenv("PROMPTMINT_RPC_TOKEN")),
	}
}

// Start serves JSON-RPC requests on addr until the listener fails. Prometheus
// metrics are scraped from /metrics on the same listener.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps engine failures onto JSON-RPC error codes so clients
// can distinguish authorization from domain rejections.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, access.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, "caller lacks required role", err.Error())
	case errors.Is(err, mint.ErrTokenNotFound), errors.Is(err, reveal.ErrTokenNotFound):
		writeError(w, http.StatusNotFound, id, codeInvalidParams, "token not found", err.Error())
	default:
		writeError(w, http.StatusBadRequest, id, codeServerError, "operation failed", err.Error())
	}
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

// statusRecorder captures the status code written to the response so the
// request metrics carry the outcome.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// moduleName extracts the module label from a method such as "mint_create".
func moduleName(method string) string {
	if idx := strings.Index(method, "_"); idx > 0 {
		return method[:idx]
	}
	return method
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(rw http.ResponseWriter, r *http.Request) {
	start := time.Now()
	w := &statusRecorder{ResponseWriter: rw, status: http.StatusOK}
	method := ""
	defer func() {
		observability.ModuleMetrics().Observe(moduleName(method), method, w.status, time.Since(start))
	}()

	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	method = req.Method

	mutating := true
	switch req.Method {
	case "mint_price", "mint_claimable", "mint_tokenAuthor", "treasury_balance",
		"season_status", "reveal_tokenURI", "reveal_isRevealed", "access_roleMembers":
		mutating = false
	}
	if mutating {
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
	}

	switch req.Method {
	case "mint_create":
		s.handleMintCreate(w, r, req)
	case "mint_setPrice":
		s.handleMintSetPrice(w, r, req)
	case "mint_price":
		s.handleMintPrice(w, r, req)
	case "mint_claimRewards":
		s.handleMintClaimRewards(w, r, req)
	case "mint_claimable":
		s.handleMintClaimable(w, r, req)
	case "mint_tokenAuthor":
		s.handleMintTokenAuthor(w, r, req)
	case "treasury_withdraw":
		s.handleTreasuryWithdraw(w, r, req)
	case "treasury_deposit":
		s.handleTreasuryDeposit(w, r, req)
	case "treasury_balance":
		s.handleTreasuryBalance(w, r, req)
	case "season_end":
		s.handleSeasonEnd(w, r, req)
	case "season_sweep":
		s.handleSeasonSweep(w, r, req)
	case "season_status":
		s.handleSeasonStatus(w, r, req)
	case "reveal_setPlaceholder":
		s.handleRevealSetPlaceholder(w, r, req)
	case "reveal_batch":
		s.handleRevealBatch(w, r, req)
	case "reveal_tokenURI":
		s.handleRevealTokenURI(w, r, req)
	case "reveal_isRevealed":
		s.handleRevealIsRevealed(w, r, req)
	case "access_grantRole":
		s.handleAccessGrantRole(w, r, req)
	case "access_revokeRole":
		s.handleAccessRevokeRole(w, r, req)
	case "access_roleMembers":
		s.handleAccessRoleMembers(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
	}
}

// decodeParams unwraps the single parameter object convention used by every
// handler.
func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}
