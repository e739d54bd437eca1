package routes

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/mbolis/rpe-survey/app"
	"github.com/mbolis/rpe-survey/gate"
	"github.com/mbolis/rpe-survey/httpx"
	"github.com/mbolis/rpe-survey/log"
	"github.com/mbolis/rpe-survey/routes/middlewares"
)

//go:embed templates
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func TrainerLoginPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		renderPage(w, "login.html", map[string]any{
			"Goto":   safeGoto(q.Get("goto")),
			"Failed": q.Get("failed") != "",
		})
	}
}

func TrainerLogin(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_form")
			return
		}

		passphrase := r.PostFormValue("passphrase")
		target := safeGoto(r.PostFormValue("goto"))
		if !gate.Check(passphrase, app.TrainerPassphrase) {
			log.Debug("trainer.login.failed")
			http.Redirect(w, r, "/trainer/login?failed=1&goto="+url.QueryEscape(target), http.StatusSeeOther)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Path:     "/",
			Name:     middlewares.PassphraseCookie,
			Value:    passphrase,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

func TrainerLogout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Path:   "/",
			Name:   middlewares.PassphraseCookie,
			Value:  "",
			MaxAge: -1,
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func TrainerPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, "trainer.html", map[string]any{
			"DashboardURL": app.DashboardURL,
			"Today":        app.Now().Format("1/2/2006"),
		})
	}
}

// safeGoto keeps redirects on this site.
func safeGoto(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/trainer"
	}
	return target
}

func renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.ExecuteTemplate(w, name, data)
	if err != nil {
		log.Errorf("template.%s: %s", name, err)
	}
}
