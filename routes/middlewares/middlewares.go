package middlewares

import (
	"net/http"
	"net/url"

	"github.com/mbolis/rpe-survey/gate"
	"github.com/mbolis/rpe-survey/httpx"
	"github.com/mbolis/rpe-survey/log"
)

const (
	PassphraseCookie = "trainer_passphrase"
	PassphraseHeader = "X-Trainer-Passphrase"
)

// Passphrase returns what the client presented to the trainer gate, from the
// header first, then the cookie.
func Passphrase(r *http.Request) string {
	if p := r.Header.Get(PassphraseHeader); p != "" {
		return p
	}
	if c, err := r.Cookie(PassphraseCookie); err == nil {
		return c.Value
	}
	return ""
}

// TrainerAPI answers 401 to requests that do not pass the trainer gate.
func TrainerAPI(passphrase string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.Check(Passphrase(r), passphrase) {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "trainer.gate.api")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TrainerPage redirects browsers that do not pass the trainer gate to the
// login page, remembering where they were going.
func TrainerPage(passphrase string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate.Check(Passphrase(r), passphrase) {
				next.ServeHTTP(w, r)
				return
			}

			log.Debug("trainer.gate.page")
			w.Header().Set("location", "/trainer/login?goto="+url.QueryEscape(r.RequestURI))
			w.WriteHeader(http.StatusTemporaryRedirect)
		})
	}
}
