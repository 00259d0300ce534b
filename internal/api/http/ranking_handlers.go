package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fudahub/fudahub/internal/ranking"
	"github.com/fudahub/fudahub/internal/webutil"
)

// GET /seasons/current
func CurrentSeasonHandler(store *ranking.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := store.CurrentSeason(r.Context(), time.Now().Unix())
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusOK, s)
	}
}

// POST /seasons {"name":..,"starts_at":..,"ends_at":..} — admin
func CreateSeasonHandler(store *ranking.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name     string `json:"name" validate:"required,max=64"`
			StartsAt int64  `json:"starts_at" validate:"required"`
			EndsAt   int64  `json:"ends_at" validate:"required,gtfield=StartsAt"`
		}
		if err := webutil.DecodeJSON(r, &req); err != nil {
			webutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		s, err := store.CreateSeason(r.Context(), req.Name, req.StartsAt, req.EndsAt)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusCreated, s)
	}
}

// GET /seasons/{seasonID}/ranking?limit=&offset=
func SeasonRankingHandler(store *ranking.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seasonID := chi.URLParam(r, "seasonID")
		season, err := store.GetSeason(r.Context(), seasonID)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		list, err := store.List(r.Context(), seasonID,
			webutil.QueryInt(r, "limit", 50), webutil.QueryInt(r, "offset", 0))
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusOK, map[string]any{
			"season":  season,
			"banzuke": list,
		})
	}
}
