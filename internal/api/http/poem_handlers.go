package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fudahub/fudahub/internal/corpus"
	"github.com/fudahub/fudahub/internal/match"
	"github.com/fudahub/fudahub/internal/webutil"
)

// GET /poems?max_kimariji=n
func ListPoemsHandler(store corpus.Accessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			poems []corpus.Poem
			err   error
		)
		if n := webutil.QueryInt(r, "max_kimariji", 0); n > 0 {
			poems, err = store.FilterByMaxKimariji(r.Context(), n)
		} else {
			poems, err = store.All(r.Context())
		}
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusOK, poems)
	}
}

// GET /poems/{poemID}
func GetPoemHandler(store corpus.Accessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.ByID(r.Context(), chi.URLParam(r, "poemID"))
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		webutil.WriteJSON(w, http.StatusOK, p)
	}
}

// POST /poems/import — admin-only full-corpus replacement. The body is the
// complete hundred-poem set; partial imports are rejected.
func ImportPoemsHandler(store *corpus.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Poems []corpus.Poem `json:"poems" validate:"required"`
		}
		if err := webutil.DecodeJSON(r, &req); err != nil {
			webutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := store.Replace(r.Context(), req.Poems); err != nil {
			webutil.WriteError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		webutil.WriteJSON(w, http.StatusOK, map[string]int{"imported": len(req.Poems)})
	}
}

// GET /levels
func ListLevelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		webutil.WriteJSON(w, http.StatusOK, match.Levels)
	}
}
