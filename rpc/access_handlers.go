package rpc

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"promptmint/native/access"
)

type roleChangeParams struct {
	Caller  string `json:"caller"`
	Role    string `json:"role"`
	Address string `json:"address"`
}

type roleMembersParams struct {
	Role string `json:"role"`
}

type roleMembersResult struct {
	Role    string   `json:"role"`
	Members []string `json:"members"`
}

func normalizeRole(raw string) (string, error) {
	role := strings.ToUpper(strings.TrimSpace(raw))
	switch role {
	case access.RoleAdmin, access.RoleKeeper:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role: %q", raw)
	}
}

func (s *Server) handleRoleChange(w http.ResponseWriter, req *RPCRequest, grant bool) {
	var params roleChangeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeHexAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	target, err := decodeHexAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid target address", err.Error())
		return
	}
	role, err := normalizeRole(params.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid role", err.Error())
		return
	}
	if err := access.RequireAdmin(s.state, caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if grant {
		err = s.state.SetRole(role, target[:])
	} else {
		err = s.state.RevokeRole(role, target[:])
	}
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, roleChangeParams{Role: role, Address: common.BytesToAddress(target[:]).Hex()})
}

func (s *Server) handleAccessGrantRole(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.handleRoleChange(w, req, true)
}

func (s *Server) handleAccessRevokeRole(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.handleRoleChange(w, req, false)
}

func (s *Server) handleAccessRoleMembers(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params roleMembersParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	role, err := normalizeRole(params.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid role", err.Error())
		return
	}
	members, err := s.state.RoleMembers(role)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	encoded := make([]string, 0, len(members))
	for _, member := range members {
		encoded = append(encoded, common.BytesToAddress(member).Hex())
	}
	writeResult(w, req.ID, roleMembersResult{Role: role, Members: encoded})
}
