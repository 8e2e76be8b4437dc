package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alphabill-org/starregistry/types"
)

type (
	StarRegistrar interface {
		RequestVerificationMessage(address string) string
		SubmitStar(address, message, signature string, star json.RawMessage) (*types.Block, error)
	}

	verificationRequest struct {
		Address string `json:"address"`
	}

	verificationResponse struct {
		Message string `json:"message"`
	}

	submitStarRequest struct {
		Address   string          `json:"address"`
		Message   string          `json:"message"`
		Signature string          `json:"signature"`
		Star      json.RawMessage `json:"star"`
	}
)

// OwnershipEndpoints registers the endpoints of the ownership verification protocol.
func OwnershipEndpoints(sr StarRegistrar, log *slog.Logger) RegistrarFunc {
	return func(r *mux.Router) {
		api := &ownershipAPI{registrar: sr, rw: &responseWriter{log: log}}
		r.HandleFunc("/ownership/requests", api.requestVerificationMessage).Methods(http.MethodPost, http.MethodOptions)
		r.HandleFunc("/stars", api.submitStar).Methods(http.MethodPost, http.MethodOptions)
	}
}

type ownershipAPI struct {
	registrar StarRegistrar
	rw        *responseWriter
}

func (api *ownershipAPI) requestVerificationMessage(w http.ResponseWriter, r *http.Request) {
	req := &verificationRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		api.rw.ErrorResponse(w, http.StatusBadRequest, fmt.Errorf("failed to decode request body: %w", err))
		return
	}
	if req.Address == "" {
		api.rw.InvalidParamResponse(w, "address", errors.New("parameter is required"))
		return
	}
	api.rw.WriteResponse(w, &verificationResponse{Message: api.registrar.RequestVerificationMessage(req.Address)})
}

func (api *ownershipAPI) submitStar(w http.ResponseWriter, r *http.Request) {
	req := &submitStarRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		api.rw.ErrorResponse(w, http.StatusBadRequest, fmt.Errorf("failed to decode request body: %w", err))
		return
	}
	for _, p := range [][2]string{{"address", req.Address}, {"message", req.Message}, {"signature", req.Signature}} {
		if p[1] == "" {
			api.rw.InvalidParamResponse(w, p[0], errors.New("parameter is required"))
			return
		}
	}

	b, err := api.registrar.SubmitStar(req.Address, req.Message, req.Signature, req.Star)
	if err != nil {
		api.rw.WriteErrorResponse(w, err)
		return
	}
	api.rw.WriteResponse(w, b)
}
