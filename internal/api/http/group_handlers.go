package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fudahub/fudahub/internal/group"
	"github.com/fudahub/fudahub/internal/ranking"
	"github.com/fudahub/fudahub/internal/rbac"
	"github.com/fudahub/fudahub/internal/webutil"
)

// POST /groups {"name":..,"description":..}
func CreateGroupHandler(store *group.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name        string `json:"name" validate:"required,min=2,max=64"`
			Description string `json:"description" validate:"max=500"`
		}
		if err := webutil.DecodeJSON(r, &req); err != nil {
			webutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		g, err := store.Create(r.Context(), req.Name, req.Description, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusCreated, g)
	}
}

// GET /groups
func ListGroupsHandler(store *group.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context(),
			webutil.QueryInt(r, "limit", 50), webutil.QueryInt(r, "offset", 0))
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusOK, list)
	}
}

// GET /groups/{groupID} — detail with members and the current season's club
// leaderboard (empty board outside any season window).
func GetGroupHandler(store *group.SQLStore, seasons *ranking.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "groupID")
		g, err := store.Get(r.Context(), id)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		members, err := store.Members(r.Context(), id)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		out := map[string]any{"group": g, "members": members}
		if season, err := seasons.CurrentSeason(r.Context(), time.Now().Unix()); err == nil {
			board, err := store.Leaderboard(r.Context(), id, season.ID)
			if err != nil {
				webutil.HandleError(w, err)
				return
			}
			out["season"] = season
			out["leaderboard"] = board
		}
		webutil.WriteJSON(w, http.StatusOK, out)
	}
}

// POST /groups/{groupID}/join
func JoinGroupHandler(store *group.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Join(r.Context(), chi.URLParam(r, "groupID"), rbac.SubjectFromContext(r.Context())); err != nil {
			webutil.HandleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DELETE /groups/{groupID}/members/{userID} — the group owner removes a
// member. Self-removal goes through leave instead.
func RemoveMemberHandler(store *group.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.RemoveMember(r.Context(), chi.URLParam(r, "groupID"),
			rbac.SubjectFromContext(r.Context()), chi.URLParam(r, "userID"))
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /groups/{groupID}/leave
func LeaveGroupHandler(store *group.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Leave(r.Context(), chi.URLParam(r, "groupID"), rbac.SubjectFromContext(r.Context())); err != nil {
			webutil.HandleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
