package i18n

import "net/http"

// Middleware injects a localizer into every request context. The request's
// Accept-Language header takes priority; defaultLang is the fallback.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	fallback := NewLocalizer(defaultLang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := fallback
			if accept := r.Header.Get("Accept-Language"); accept != "" {
				loc = NewLocalizer(accept, defaultLang)
			}
			ctx := WithLocalizer(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
