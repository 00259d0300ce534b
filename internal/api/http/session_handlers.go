package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fudahub/fudahub/internal/match"
	"github.com/fudahub/fudahub/internal/ranking"
	"github.com/fudahub/fudahub/internal/rbac"
	"github.com/fudahub/fudahub/internal/webutil"
)

// POST /sessions {"level_id":...}
// The season is the current one; starting a match outside any season window
// is a 404 on the season, not a silent unranked session.
func CreateSessionHandler(engine *match.Engine, seasons *ranking.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LevelID string `json:"level_id" validate:"required"`
		}
		if err := webutil.DecodeJSON(r, &req); err != nil {
			webutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		season, err := seasons.CurrentSeason(r.Context(), time.Now().Unix())
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		sub := rbac.SubjectFromContext(r.Context())
		sess, q, err := engine.Start(r.Context(), sub, req.LevelID, season.ID)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusCreated, map[string]any{
			"session":  sessionView(sess),
			"question": q,
		})
	}
}

// POST /sessions/{sessionID}/answers {"round_index":..,"selected_poem_id":..,"elapsed_ms":..}
func AnswerHandler(engine *match.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RoundIndex     *int   `json:"round_index" validate:"required"`
			SelectedPoemID string `json:"selected_poem_id" validate:"required"`
			ElapsedMs      int64  `json:"elapsed_ms" validate:"gte=0"`
		}
		if err := webutil.DecodeJSON(r, &req); err != nil {
			webutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		sub := rbac.SubjectFromContext(r.Context())
		res, err := engine.Answer(r.Context(), chi.URLParam(r, "sessionID"), sub,
			*req.RoundIndex, req.SelectedPoemID, req.ElapsedMs)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusOK, res)
	}
}

// POST /sessions/{sessionID}/submit — idempotent; retrying returns the same
// verdict.
func SubmitSessionHandler(engine *match.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		v, err := engine.Submit(r.Context(), chi.URLParam(r, "sessionID"), sub)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusOK, v)
	}
}

// GET /sessions/{sessionID}/question — re-deals the current round, for a
// client that reloaded mid-match.
func CurrentQuestionHandler(engine *match.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		q, err := engine.CurrentQuestion(r.Context(), chi.URLParam(r, "sessionID"), sub)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusOK, q)
	}
}

// GET /sessions/{sessionID}
func GetSessionHandler(store match.Store, engine *match.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		sess, err := store.GetSession(r.Context(), id)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())
		if role != "admin" && sess.UserID != sub {
			webutil.HandleError(w, match.ErrSessionNotFound)
			return
		}
		stats, err := engine.Stats(r.Context(), id, "")
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusOK, map[string]any{
			"session": sessionView(sess),
			"stats":   stats,
		})
	}
}

// GET /sessions?season_id=&status=&user_id=&limit=&offset=
// Players only see their own; admins may filter by any user.
func ListSessionsHandler(store match.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())
		userID := r.URL.Query().Get("user_id")
		if role != "admin" {
			userID = sub
		}
		list, err := store.ListSessions(r.Context(), match.ListOpts{
			UserID:   userID,
			SeasonID: r.URL.Query().Get("season_id"),
			Status:   r.URL.Query().Get("status"),
			Limit:    webutil.QueryInt(r, "limit", 50),
			Offset:   webutil.QueryInt(r, "offset", 0),
		})
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		views := make([]map[string]any, 0, len(list))
		for _, s := range list {
			views = append(views, sessionView(s))
		}
		webutil.WriteJSON(w, http.StatusOK, views)
	}
}

// sessionView strips the working board from responses: the board tells the
// client which card is currently correct, which stays server-side.
func sessionView(s match.Session) map[string]any {
	v := map[string]any{
		"id":          s.ID,
		"user_id":     s.UserID,
		"season_id":   s.SeasonID,
		"entry_id":    s.EntryID,
		"level_id":    s.LevelID,
		"round_count": s.RoundCount,
		"status":      s.Status,
		"round_index": s.RoundIndex,
		"started_at":  s.StartedAt,
	}
	if s.SubmittedAt != 0 {
		v["submitted_at"] = s.SubmittedAt
	}
	if s.Terminal() {
		v["confirmed_at"] = s.ConfirmedAt
		v["score"] = s.Score
		v["correct_count"] = s.CorrectCount
		v["total_elapsed_ms"] = s.TotalElapsedMs
		if len(s.Reasons) > 0 {
			v["reasons"] = s.Reasons
		}
	}
	return v
}
