package rpc

import (
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type mintCreateParams struct {
	Caller   string `json:"caller"`
	Author   string `json:"author"`
	Quantity uint32 `json:"quantity"`
	Payment  string `json:"payment"`
}

type mintCreateResult struct {
	StartTokenID  uint64 `json:"startTokenId"`
	Quantity      uint32 `json:"quantity"`
	Required      string `json:"required"`
	AuthorShare   string `json:"authorShare"`
	TreasuryShare string `json:"treasuryShare"`
}

type setPriceParams struct {
	Caller string `json:"caller"`
	Price  string `json:"price"`
}

type callerParams struct {
	Caller string `json:"caller"`
}

type addressParams struct {
	Address string `json:"address"`
}

type tokenIDParams struct {
	TokenID uint64 `json:"tokenId"`
}

type depositParams struct {
	Sender string `json:"sender"`
	Amount string `json:"amount"`
}

type amountResult struct {
	Amount string `json:"amount"`
}

type seasonStatusResult struct {
	Ended   bool  `json:"ended"`
	EndedAt int64 `json:"endedAt,omitempty"`
}

type sweepParams struct {
	Caller  string   `json:"caller"`
	Authors []string `json:"authors"`
}

type sweepResult struct {
	TotalSwept   string `json:"totalSwept"`
	AuthorsSwept int    `json:"authorsSwept"`
}

func decodeHexAddress(raw string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return out, fmt.Errorf("invalid hex address: %q", raw)
	}
	copy(out[:], common.HexToAddress(trimmed).Bytes())
	return out, nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %q", raw)
	}
	return amount, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func (s *Server) handleMintCreate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params mintCreateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeHexAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	author, err := decodeHexAddress(params.Author)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid author address", err.Error())
		return
	}
	payment, err := parseAmount(params.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid payment amount", err.Error())
		return
	}
	receipt, err := s.mint.Mint(caller, author, params.Quantity, payment)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, mintCreateResult{
		StartTokenID:  receipt.StartTokenID,
		Quantity:      receipt.Quantity,
		Required:      bigString(receipt.Required),
		AuthorShare:   bigString(receipt.AuthorShare),
		TreasuryShare: bigString(receipt.TreasuryShare),
	})
}

func (s *Server) handleMintSetPrice(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params setPriceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeHexAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid price", err.Error())
		return
	}
	if err := s.mint.SetMintPrice(caller, price); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: price.String()})
}

func (s *Server) handleMintPrice(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	price, err := s.mint.MintPrice()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: bigString(price)})
}

func (s *Server) handleMintClaimRewards(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeHexAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := s.mint.ClaimAuthorRewards(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: bigString(amount)})
}

func (s *Server) handleMintClaimable(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	addr, err := decodeHexAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	amount, err := s.mint.AuthorClaimable(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: bigString(amount)})
}

func (s *Server) handleMintTokenAuthor(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params tokenIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	author, err := s.mint.TokenPromptAuthor(params.TokenID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, addressParams{Address: common.BytesToAddress(author[:]).Hex()})
}

func (s *Server) handleTreasuryWithdraw(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeHexAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := s.mint.WithdrawTreasury(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: bigString(amount)})
}

func (s *Server) handleTreasuryDeposit(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params depositParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	sender, err := decodeHexAddress(params.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid sender address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	if err := s.mint.ReceiveDirectPayment(sender, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: amount.String()})
}

func (s *Server) handleTreasuryBalance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	balance, err := s.mint.TreasuryBalance()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: bigString(balance)})
}

func (s *Server) handleSeasonEnd(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeHexAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	endedAt, err := s.mint.EndSeason(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, seasonStatusResult{Ended: true, EndedAt: endedAt})
}

func (s *Server) handleSeasonSweep(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params sweepParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeHexAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	authors := make([][20]byte, 0, len(params.Authors))
	for _, raw := range params.Authors {
		author, err := decodeHexAddress(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid author address", err.Error())
			return
		}
		authors = append(authors, author)
	}
	result, err := s.mint.SweepUnclaimedRewards(caller, authors)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, sweepResult{
		TotalSwept:   bigString(result.TotalSwept),
		AuthorsSwept: result.AuthorsSwept,
	})
}

func (s *Server) handleSeasonStatus(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	ended, err := s.mint.SeasonEnded()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	endedAt, err := s.mint.SeasonEndTime()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, seasonStatusResult{Ended: ended, EndedAt: endedAt})
}
