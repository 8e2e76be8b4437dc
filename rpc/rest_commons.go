package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alphabill-org/starregistry/ledger"
	"github.com/alphabill-org/starregistry/logger"
	"github.com/alphabill-org/starregistry/ownership"
	"github.com/alphabill-org/starregistry/types"
)

type (
	ErrorResponse struct {
		Message string `json:"message"`
	}

	responseWriter struct {
		log *slog.Logger
	}
)

func (rw *responseWriter) WriteResponse(w http.ResponseWriter, data any) {
	w.Header().Set(headerContentType, applicationJson)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rw.log.Warn("failed to encode response data as json", logger.Error(err))
	}
}

/*
WriteErrorResponse picks the HTTP status code based on the kind of the error.
Unexpected errors are logged and reported as internal server error.
*/
func (rw *responseWriter) WriteErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		rw.ErrorResponse(w, http.StatusNotFound, err)
	case errors.Is(err, ownership.ErrMalformedMessage), errors.Is(err, types.ErrInvalidStar):
		rw.ErrorResponse(w, http.StatusBadRequest, err)
	case errors.Is(err, ownership.ErrSignature):
		rw.ErrorResponse(w, http.StatusUnauthorized, err)
	case errors.Is(err, ownership.ErrTimeout):
		rw.ErrorResponse(w, http.StatusGone, err)
	case errors.Is(err, ledger.ErrChainIntegrity):
		rw.log.Error("chain integrity violation", logger.Error(err))
		rw.ErrorResponse(w, http.StatusConflict, err)
	default:
		rw.log.Error("request failed", logger.Error(err))
		rw.ErrorResponse(w, http.StatusInternalServerError, err)
	}
}

func (rw *responseWriter) InvalidParamResponse(w http.ResponseWriter, name string, err error) {
	rw.ErrorResponse(w, http.StatusBadRequest, fmt.Errorf("invalid parameter %q: %w", name, err))
}

func (rw *responseWriter) ErrorResponse(w http.ResponseWriter, code int, err error) {
	w.Header().Set(headerContentType, applicationJson)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Message: err.Error()}); err != nil {
		rw.log.Warn("failed to encode error response as json", logger.Error(err))
	}
}

// errorStrings flattens (joined) error into list of messages.
func errorStrings(errs ...error) []string {
	out := []string{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		if je, ok := err.(interface{ Unwrap() []error }); ok {
			out = append(out, errorStrings(je.Unwrap()...)...)
			continue
		}
		out = append(out, err.Error())
	}
	return out
}
