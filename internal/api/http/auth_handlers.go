package http

import (
	"net/http"

	"github.com/fudahub/fudahub/internal/auth"
	authmw "github.com/fudahub/fudahub/internal/auth/middleware"
	"github.com/fudahub/fudahub/internal/webutil"
)

// POST /auth/register {"username":..., "password":...}
func RegisterHandler(users *auth.UserStore, svc *authmw.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username" validate:"required,min=3,max=32"`
			Password string `json:"password" validate:"required,min=8,max=128"`
		}
		if err := webutil.DecodeJSON(r, &req); err != nil {
			webutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		u, err := users.Create(r.Context(), req.Username, req.Password, "player")
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		tok, err := svc.IssueJWT(u.ID, u.Role)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusCreated, map[string]any{"user": u, "access_token": tok})
	}
}

// POST /auth/login {"username":..., "password":...}
func LoginHandler(users *auth.UserStore, svc *authmw.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username" validate:"required"`
			Password string `json:"password" validate:"required"`
		}
		if err := webutil.DecodeJSON(r, &req); err != nil {
			webutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		u, err := users.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		tok, err := svc.IssueJWT(u.ID, u.Role)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusOK, map[string]any{"user": u, "access_token": tok})
	}
}
