package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fudahub/fudahub/internal/corpus"
	"github.com/fudahub/fudahub/internal/storage"
	"github.com/fudahub/fudahub/internal/webutil"
)

func audioKey(poemID string) string { return "poems/" + poemID + "/recitation.mp3" }

// PUT /assets/poems/{poemID}/audio — admin multipart upload, field "file".
func PutPoemAudioHandler(bs storage.BlobStore, poems corpus.Accessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poemID := chi.URLParam(r, "poemID")
		if _, err := poems.ByID(r.Context(), poemID); err != nil {
			webutil.HandleError(w, err)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			webutil.WriteError(w, http.StatusBadRequest, "file required")
			return
		}
		defer f.Close()
		key := audioKey(poemID)
		if _, err := bs.Put(key, f); err != nil {
			webutil.WriteError(w, http.StatusInternalServerError, "store error")
			return
		}
		webutil.WriteJSON(w, http.StatusOK, map[string]string{"key": key})
	}
}

// GET /assets/poems/{poemID}/audio
func GetPoemAudioHandler(bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, err := bs.Get(audioKey(chi.URLParam(r, "poemID")))
		if err != nil {
			webutil.WriteError(w, http.StatusNotFound, "no recitation audio")
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = io.Copy(w, rc)
	}
}
