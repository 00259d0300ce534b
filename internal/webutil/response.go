package webutil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fudahub/fudahub/internal/auth"
	"github.com/fudahub/fudahub/internal/corpus"
	"github.com/fudahub/fudahub/internal/group"
	"github.com/fudahub/fudahub/internal/match"
	"github.com/fudahub/fudahub/internal/ranking"
)

type apiError struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, apiError{Error: msg})
}

// HandleError maps domain errors onto status codes; anything unknown is a
// 500 with a generic message.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, match.ErrSessionNotFound),
		errors.Is(err, corpus.ErrNotFound),
		errors.Is(err, group.ErrNotFound),
		errors.Is(err, ranking.ErrNoCurrentSeason):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, match.ErrWrongState),
		errors.Is(err, group.ErrNotMember):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, match.ErrLevelNotFound),
		errors.Is(err, auth.ErrUsernameTaken):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, match.ErrNotOwner), errors.Is(err, group.ErrNotOwner):
		WriteError(w, http.StatusForbidden, err.Error())
	default:
		var pool match.ErrPoolTooSmall
		if errors.As(err, &pool) {
			WriteError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
