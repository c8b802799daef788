package start

import (
	"encoding/json"
	"net/http"

	"github.com/dutow/galera/internal/log"
	"github.com/dutow/galera/ist"
)

// pushRequest is the body of an admin-triggered IST push, standing in for
// the IST_REQUEST message a real donor would receive over group
// communication instead of over this admin HTTP endpoint.
type pushRequest struct {
	PeerAddr     string `json:"peer_addr"`
	First        int64  `json:"first"`
	Last         int64  `json:"last"`
	PreloadStart int64  `json:"preload_start"`
}

func newPushHandler(dp *donorPool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		var req pushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.PeerAddr == "" {
			http.Error(w, "peer_addr is required", http.StatusBadRequest)
			return
		}

		rng := ist.Range{
			First:        ist.Seqno(req.First),
			Last:         ist.Seqno(req.Last),
			PreloadStart: ist.Seqno(req.PreloadStart),
		}
		log.Info("ist: admin push requested: peer=%s range=[%d,%d] preload_start=%d",
			req.PeerAddr, rng.First, rng.Last, rng.PreloadStart)
		dp.pool.Run(req.PeerAddr, ist.CurrentVersion, dp.tlsConfig, dp.cache, rng)

		w.WriteHeader(http.StatusAccepted)
	})
}
