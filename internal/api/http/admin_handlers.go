package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fudahub/fudahub/internal/match"
	syncx "github.com/fudahub/fudahub/internal/sync"
	"github.com/fudahub/fudahub/internal/webutil"
)

// POST /admin/sessions/sweep — marks non-terminal sessions older than the
// match expiry window as expired. Abandoned sessions never call submit, so
// this is the only path that settles them.
func SweepExpiredHandler(store match.Store, events *syncx.EventRepo, expiry time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cutoff := time.Now().Add(-expiry).Unix()
		n, err := store.SweepExpired(r.Context(), cutoff)
		if err != nil {
			webutil.HandleError(w, err)
			return
		}
		if events != nil && n > 0 {
			data, _ := json.Marshal(map[string]int64{"swept": n, "cutoff": cutoff})
			_ = events.AppendTyped(r.Context(), syncx.EventSessionsSwept, fmt.Sprintf("cutoff-%d", cutoff), string(data))
		}
		webutil.WriteJSON(w, http.StatusOK, map[string]int64{"swept": n})
	}
}
