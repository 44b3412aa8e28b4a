package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy lets the browser agenda front-end call the API from another origin.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type compiledCORS struct {
	wildcard    bool
	origins     map[string]struct{}
	methods     string
	headers     string
	credentials bool
	maxAge      string
}

func (p CORSPolicy) compile() compiledCORS {
	c := compiledCORS{
		origins:     make(map[string]struct{}, len(p.AllowedOrigins)),
		methods:     strings.Join(trimAll(p.AllowedMethods), ", "),
		headers:     strings.Join(trimAll(p.AllowedHeaders), ", "),
		credentials: p.AllowCredentials,
	}
	for _, o := range trimAll(p.AllowedOrigins) {
		if o == "*" {
			c.wildcard = true
			continue
		}
		c.origins[strings.ToLower(o)] = struct{}{}
	}
	if secs := int(p.MaxAge.Seconds()); secs > 0 {
		c.maxAge = strconv.Itoa(secs)
	}
	return c
}

// allowOrigin returns the value for Access-Control-Allow-Origin, or "" when the origin is not allowed.
// A wildcard policy echoes the origin when credentials are allowed, since browsers reject "*" then.
func (c compiledCORS) allowOrigin(origin string) string {
	if _, ok := c.origins[strings.ToLower(origin)]; ok {
		return origin
	}
	if !c.wildcard {
		return ""
	}
	if c.credentials {
		return origin
	}
	return "*"
}

// WithCORS is a no-op when AllowedOrigins is empty.
func WithCORS(policy CORSPolicy) Middleware {
	if len(trimAll(policy.AllowedOrigins)) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	c := policy.compile()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allow := ""
			if origin != "" {
				allow = c.allowOrigin(origin)
			}
			if allow == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allow)
			h.Add("Vary", "Origin")
			if c.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if !preflight {
				next.ServeHTTP(w, r)
				return
			}
			if c.methods != "" {
				h.Set("Access-Control-Allow-Methods", c.methods)
			}
			if c.headers != "" {
				h.Set("Access-Control-Allow-Headers", c.headers)
			}
			if c.maxAge != "" {
				h.Set("Access-Control-Max-Age", c.maxAge)
			}
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
