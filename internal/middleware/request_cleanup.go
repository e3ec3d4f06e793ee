package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// MaxDrainBytes bounds how much of an unread request body is discarded to
// keep the connection reusable. Bodies with more left over are just closed.
const MaxDrainBytes = 64 << 10

func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil || r.Body == http.NoBody {
				return
			}

			drained, err := io.CopyN(io.Discard, r.Body, MaxDrainBytes)
			if err == nil {
				log.Debugf("request body of [%s] still had data after %d drained bytes, closing", r.URL.Path, drained)
			}
			_ = r.Body.Close()
		})
	}
}
