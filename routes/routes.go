package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mbolis/rpe-survey/app"
	"github.com/mbolis/rpe-survey/log"
	"github.com/mbolis/rpe-survey/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	requestLogger := middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.Logger,
		NoColor: true,
	})

	root := chi.NewRouter()
	root.Use(requestLogger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.Get("/trainer/login", TrainerLoginPage(app))
	root.Post("/trainer/login", TrainerLogin(app))
	root.Post("/trainer/logout", TrainerLogout(app))
	root.
		With(middlewares.TrainerPage(app.TrainerPassphrase)).
		Get("/trainer", TrainerPage(app))

	root.Mount("/", servePublicFiles(app.PublicDir))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	api.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middlewares.PassphraseHeader},
	}))

	api.Get("/schema", GetSchema(app))
	api.Post("/submissions", SubmitSurvey(app))

	api.Route("/reports", func(r chi.Router) {
		r.Use(middlewares.TrainerAPI(app.TrainerPassphrase))

		r.Get("/positions", PositionAverages(app))
		r.Get("/daily", DailyAverages(app))
		r.Get("/summary", GetSummary(app))
		r.Get("/responses.csv", ExportResponses(app))
	})

	return api
}

func servePublicFiles(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}
