package routes

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"github.com/mbolis/rpe-survey/app"
	"github.com/mbolis/rpe-survey/httpx"
	"github.com/mbolis/rpe-survey/log"
	"github.com/mbolis/rpe-survey/model"
	"github.com/mbolis/rpe-survey/schema"
)

// Average of each athlete's own average, per position.
func PositionAverages(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT position, AVG(athlete_avg), COUNT(*)
			FROM (
				SELECT a.position AS position, AVG(e.intensity) AS athlete_avg
				FROM athlete a
				JOIN rpe_entry e ON (a.email = e.email)
				GROUP BY a.email
			)
			GROUP BY position
			ORDER BY 2 DESC, position`)
		if err != nil {
			httpx.LogInternalError(w, "db.position_averages", err)
			return
		}
		defer rows.Close()

		averages := []model.PositionAverage{}
		for rows.Next() {
			avg := model.PositionAverage{Rank: len(averages) + 1}
			err = rows.Scan(&avg.Position, &avg.Average, &avg.Athletes)
			if err != nil {
				httpx.LogInternalError(w, "db.position_averages.scan", err)
				return
			}
			averages = append(averages, avg)
		}
		if err = rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.position_averages.rows", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"positions": averages,
		})
	}
}

func DailyAverages(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		position := r.URL.Query().Get("position")
		if position != "" && !isPosition(app.Schema, position) {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.query.position", "unknown position %q", position)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT e.day, a.position, AVG(e.intensity)
			FROM rpe_entry e
			JOIN athlete a ON (a.email = e.email)
			WHERE ? = '' OR a.position = ?
			GROUP BY e.day, a.position
			ORDER BY e.day, a.position`,
			position,
			position,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.daily_averages", err)
			return
		}
		defer rows.Close()

		averages := []model.DailyAverage{}
		for rows.Next() {
			avg := model.DailyAverage{}
			err = rows.Scan(&avg.Day, &avg.Position, &avg.Average)
			if err != nil {
				httpx.LogInternalError(w, "db.daily_averages.scan", err)
				return
			}
			averages = append(averages, avg)
		}
		if err = rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.daily_averages.rows", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"days": averages,
		})
	}
}

func GetSummary(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary := model.Summary{}
		err := app.QueryRowContext(r.Context(), `
			SELECT
				(SELECT COUNT(*) FROM athlete),
				(SELECT COUNT(DISTINCT day) FROM rpe_entry),
				(SELECT COALESCE(AVG(athlete_avg), 0) FROM (
					SELECT AVG(intensity) AS athlete_avg
					FROM rpe_entry
					GROUP BY email
				))`,
		).Scan(&summary.Athletes, &summary.Sessions, &summary.TeamAverage)
		if err != nil {
			httpx.LogInternalError(w, "db.summary", err)
			return
		}

		render.JSON(w, r, summary)
	}
}

var exportColumns = []string{
	"Email",
	"Last 4 Digits",
	"Last Name",
	"First Name",
	"Position",
	"Summer Attendance",
}

// ExportResponses writes one row per athlete, in order of first submission,
// with one column per recorded day holding that day's intensity.
func ExportResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dayRows, err := app.QueryContext(r.Context(), `
			SELECT DISTINCT day FROM rpe_entry ORDER BY day`)
		if err != nil {
			httpx.LogInternalError(w, "db.export.days", err)
			return
		}
		var days []string
		for dayRows.Next() {
			var day string
			if err = dayRows.Scan(&day); err != nil {
				dayRows.Close()
				httpx.LogInternalError(w, "db.export.days.scan", err)
				return
			}
			days = append(days, day)
		}
		err = dayRows.Err()
		dayRows.Close()
		if err != nil {
			httpx.LogInternalError(w, "db.export.days.rows", err)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT
				a.email, a.last4, a.last_name, a.first_name, a.position, a.summer_attendance,
				e.day, e.intensity
			FROM athlete a
			LEFT OUTER JOIN rpe_entry e ON (a.email = e.email)
			ORDER BY a.created_at, a.email, e.day`)
		if err != nil {
			httpx.LogInternalError(w, "db.export", err)
			return
		}
		defer rows.Close()

		header := append([]string{}, exportColumns...)
		column := make(map[string]int, len(days))
		for i, day := range days {
			column[day] = len(exportColumns) + i
			header = append(header, exportDay(day))
		}

		var records [][]string
		var current []string
		for rows.Next() {
			var email, last4, lastName, firstName, position, attendance string
			var day *string
			var intensity *int
			err = rows.Scan(&email, &last4, &lastName, &firstName, &position, &attendance, &day, &intensity)
			if err != nil {
				httpx.LogInternalError(w, "db.export.scan", err)
				return
			}

			if current == nil || current[0] != email {
				current = make([]string, len(header))
				copy(current, []string{email, last4, lastName, firstName, position, attendance})
				records = append(records, current)
			}
			if day == nil || intensity == nil {
				continue
			}
			// days recorded after the first query are left out
			if i, ok := column[*day]; ok {
				current[i] = strconv.Itoa(*intensity)
			}
		}
		if err = rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.export.rows", err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="responses.csv"`)
		out := csv.NewWriter(w)
		out.Write(header)
		out.WriteAll(records)
		if err = out.Error(); err != nil {
			log.Errorf("export.write: %s", err)
		}
	}
}

// exportDay renders a stored day the way the spreadsheet export always has.
func exportDay(day string) string {
	t, err := time.Parse(dayLayout, day)
	if err != nil {
		return day
	}
	return t.Format("01/02/2006")
}

func isPosition(s model.Schema, position string) bool {
	f, ok := s.Field(schema.Position)
	if !ok {
		return false
	}
	for _, p := range f.Constraint.Values {
		if p == position {
			return true
		}
	}
	return false
}
