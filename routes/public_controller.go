package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/mbolis/rpe-survey/app"
	"github.com/mbolis/rpe-survey/httpx"
	"github.com/mbolis/rpe-survey/log"
	"github.com/mbolis/rpe-survey/model"
	"github.com/mbolis/rpe-survey/validation"
)

const dayLayout = "2006-01-02"

func GetSchema(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, app.Schema)
	}
}

// SubmitSurvey stores one RPE response. The athlete profile is written the
// first time an email is seen; later submissions only record intensity. A
// second submission on the same day replaces the first.
func SubmitSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := model.SubmissionPayload{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if result := validation.CheckPayload(app.Validator, app.Schema, payload); !result.Valid() {
			httpx.LogValidation(w, r, "submission.validate", result)
			return
		}

		payload.Email = strings.ToLower(payload.Email)
		now := app.Now()
		day := now.Format(dayLayout)

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO athlete (email, last4, last_name, first_name, position, summer_attendance, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (email) DO NOTHING`,
			payload.Email,
			payload.Last4,
			payload.LastName,
			payload.FirstName,
			payload.Position,
			payload.SummerAttendance,
			now,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_athlete", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO rpe_entry (email, day, intensity, submitted_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (email, day) DO UPDATE SET
				intensity = excluded.intensity,
				submitted_at = excluded.submitted_at`,
			payload.Email,
			day,
			payload.IntensityLevel,
			now,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_entry", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_entry.commit", err)
			return
		}

		log.WithFields(log.Fields{"email": payload.Email, "day": day}).Info("submission.recorded")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"email":          payload.Email,
			"day":            day,
			"intensityLevel": payload.IntensityLevel,
		})
	}
}
