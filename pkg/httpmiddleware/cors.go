package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures CORS.
type CORSConfig struct {
	// Origins allowed to call the API. Empty or "*" allows any origin.
	Origins []string
	// Methods defaults to "GET, POST, OPTIONS".
	Methods []string
	// Headers allowed in requests. When empty the preflight
	// Access-Control-Request-Headers value is echoed.
	Headers []string
	// MaxAge of preflight results, omitted when zero.
	MaxAge int
}

// CORS answers preflight requests and sets Access-Control-Allow-Origin on
// responses to allowed origins. Origins are matched case-insensitively.
func CORS(cfg CORSConfig) Middleware {
	wildcard := len(cfg.Origins) == 0
	origins := make(map[string]struct{}, len(cfg.Origins))
	for _, o := range cfg.Origins {
		if o == "*" {
			wildcard = true
		}
		origins[strings.ToLower(o)] = struct{}{}
	}

	methods := strings.Join(cfg.Methods, ", ")
	if methods == "" {
		methods = "GET, POST, OPTIONS"
	}
	headers := strings.Join(cfg.Headers, ", ")
	var maxAge string
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	allow := func(origin string) string {
		if wildcard {
			return "*"
		}
		if _, ok := origins[strings.ToLower(origin)]; ok {
			return origin
		}
		return ""
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if !wildcard {
				h.Add("Vary", "Origin")
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allowed := allow(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				if allowed != "" {
					h.Set("Access-Control-Allow-Origin", allowed)
					h.Set("Access-Control-Allow-Methods", methods)
					switch rh := r.Header.Get("Access-Control-Request-Headers"); {
					case headers != "":
						h.Set("Access-Control-Allow-Headers", headers)
					case rh != "":
						h.Set("Access-Control-Allow-Headers", rh)
					}
					if maxAge != "" {
						h.Set("Access-Control-Max-Age", maxAge)
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Expose-Headers", requestIDHeader)
			}
			next.ServeHTTP(w, r)
		})
	}
}
