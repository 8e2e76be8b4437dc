package rpc

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/alphabill-org/starregistry/types"
)

type (
	Ledger interface {
		Height() uint64
		GetBlockByHash(hash string) (*types.Block, error)
		GetBlockByHeight(height uint64) (*types.Block, error)
		StarsByOwner(address string) ([]*types.StarRecord, error)
		ValidateChain() []error
	}

	heightResponse struct {
		Height uint64 `json:"height"`
	}

	validateResponse struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}

	starsResponse struct {
		Stars  []*types.StarRecord `json:"stars"`
		Errors []string            `json:"errors"`
	}
)

// LedgerEndpoints registers read only endpoints of the ledger.
func LedgerEndpoints(l Ledger, log *slog.Logger) RegistrarFunc {
	return func(r *mux.Router) {
		api := &ledgerAPI{ledger: l, rw: &responseWriter{log: log}}
		r.HandleFunc("/chain/height", api.getChainHeight).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc("/chain/validate", api.validateChain).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc("/blocks/hash/{hash}", api.getBlockByHash).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc("/blocks/height/{height}", api.getBlockByHeight).Methods(http.MethodGet, http.MethodOptions)
		r.HandleFunc("/stars/owner/{address}", api.getStarsByOwner).Methods(http.MethodGet, http.MethodOptions)
	}
}

type ledgerAPI struct {
	ledger Ledger
	rw     *responseWriter
}

func (api *ledgerAPI) getChainHeight(w http.ResponseWriter, r *http.Request) {
	api.rw.WriteResponse(w, &heightResponse{Height: api.ledger.Height()})
}

func (api *ledgerAPI) validateChain(w http.ResponseWriter, r *http.Request) {
	errs := api.ledger.ValidateChain()
	api.rw.WriteResponse(w, &validateResponse{Valid: len(errs) == 0, Errors: errorStrings(errs...)})
}

func (api *ledgerAPI) getBlockByHash(w http.ResponseWriter, r *http.Request) {
	b, err := api.ledger.GetBlockByHash(mux.Vars(r)["hash"])
	if err != nil {
		api.rw.WriteErrorResponse(w, err)
		return
	}
	api.rw.WriteResponse(w, b)
}

func (api *ledgerAPI) getBlockByHeight(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.ParseUint(mux.Vars(r)["height"], 10, 64)
	if err != nil {
		api.rw.InvalidParamResponse(w, "height", err)
		return
	}
	b, err := api.ledger.GetBlockByHeight(height)
	if err != nil {
		api.rw.WriteErrorResponse(w, err)
		return
	}
	api.rw.WriteResponse(w, b)
}

func (api *ledgerAPI) getStarsByOwner(w http.ResponseWriter, r *http.Request) {
	stars, err := api.ledger.StarsByOwner(mux.Vars(r)["address"])
	if stars == nil {
		stars = []*types.StarRecord{}
	}
	api.rw.WriteResponse(w, &starsResponse{Stars: stars, Errors: errorStrings(err)})
}
