package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl marks GET and HEAD responses as cacheable for maxAge seconds. Writes are always marked no-store. A zero maxAge disables
// caching of reads too.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	readPolicy := "no-cache"
	if maxAge > 0 {
		readPolicy = fmt.Sprintf("public, max-age=%d", maxAge)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				w.Header().Set("Cache-Control", readPolicy)
			} else {
				w.Header().Set("Cache-Control", "no-store")
			}
			next.ServeHTTP(w, r)
		})
	}
}
