package routes

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/rpe-survey/app"
	"github.com/mbolis/rpe-survey/config"
	"github.com/mbolis/rpe-survey/database"
	"github.com/mbolis/rpe-survey/form"
	"github.com/mbolis/rpe-survey/model"
	"github.com/mbolis/rpe-survey/routes/middlewares"
	"github.com/mbolis/rpe-survey/schema"
	"github.com/mbolis/rpe-survey/submission"
	"github.com/mbolis/rpe-survey/validation"
)

const testPassphrase = "go-bulldogs"

type testEnv struct {
	app app.App
	srv *httptest.Server

	mu    sync.Mutex
	clock time.Time
}

func (env *testEnv) now() time.Time {
	env.mu.Lock()
	defer env.mu.Unlock()
	return env.clock
}

func (env *testEnv) nextDay() {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.clock = env.clock.Add(24 * time.Hour)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "rpe.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{clock: time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)}
	s := schema.RPE("truman.edu")
	env.app = app.App{
		DB: db,
		Config: config.Config{
			PublicDir:         t.TempDir(),
			EmailDomain:       "truman.edu",
			DashboardURL:      "http://127.0.0.1:4025/dashboard/",
			TrainerPassphrase: testPassphrase,
		},
		Schema:    s,
		Validator: validation.NewPayloadValidator(s),
		Now:       env.now,
	}
	env.srv = httptest.NewServer(Wire(env.app))
	t.Cleanup(env.srv.Close)
	return env
}

func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
}

func (env *testEnv) post(t *testing.T, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(env.srv.URL+"/api/submissions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (env *testEnv) trainerGet(t *testing.T, path string, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, env.srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set(middlewares.PassphraseHeader, testPassphrase)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func payload(email, position string, intensity int) model.SubmissionPayload {
	return model.SubmissionPayload{
		FirstName:        "Jane",
		LastName:         "Doe",
		Email:            email,
		Last4:            "1234",
		Position:         position,
		SummerAttendance: "yes",
		IntensityLevel:   intensity,
	}
}

func TestGetSchema(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/api/schema")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		EmailDomain string `json:"emailDomain"`
		Fields      []struct {
			Name     string `json:"name"`
			Kind     string `json:"kind"`
			Required bool   `json:"required"`
		} `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "truman.edu", got.EmailDomain)
	require.Len(t, got.Fields, 7)
	assert.Equal(t, schema.IntensityLevel, got.Fields[6].Name)
	assert.Equal(t, "numeric-range", got.Fields[6].Kind)
}

func TestSubmitSurvey_Created(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, payload("JD1234@truman.edu", "WR", 7))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "jd1234@truman.edu", body["email"])
	assert.Equal(t, "2025-06-10", body["day"])
	assert.Equal(t, float64(7), body["intensityLevel"])

	var intensity int
	err := env.app.QueryRow(`SELECT intensity FROM rpe_entry WHERE email = ? AND day = ?`, "jd1234@truman.edu", "2025-06-10").Scan(&intensity)
	require.NoError(t, err)
	assert.Equal(t, 7, intensity)
}

func TestSubmitSurvey_SameDayOverwrites(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.post(t, payload("jd@truman.edu", "WR", 3)).StatusCode)
	second := payload("jd@truman.edu", "QB", 9)
	second.FirstName = "Janet"
	require.Equal(t, http.StatusCreated, env.post(t, second).StatusCode)

	var entries, intensity int
	require.NoError(t, env.app.QueryRow(`SELECT COUNT(*), MAX(intensity) FROM rpe_entry`).Scan(&entries, &intensity))
	assert.Equal(t, 1, entries)
	assert.Equal(t, 9, intensity)

	// profile is kept from the first submission
	var firstName, position string
	require.NoError(t, env.app.QueryRow(`SELECT first_name, position FROM athlete WHERE email = ?`, "jd@truman.edu").Scan(&firstName, &position))
	assert.Equal(t, "Jane", firstName)
	assert.Equal(t, "WR", position)
}

func TestSubmitSurvey_NewDayAddsEntry(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.post(t, payload("jd@truman.edu", "WR", 3)).StatusCode)
	env.nextDay()
	require.Equal(t, http.StatusCreated, env.post(t, payload("jd@truman.edu", "WR", 5)).StatusCode)

	var entries int
	require.NoError(t, env.app.QueryRow(`SELECT COUNT(*) FROM rpe_entry WHERE email = ?`, "jd@truman.edu").Scan(&entries))
	assert.Equal(t, 2, entries)
}

func TestSubmitSurvey_BadJSON(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.srv.URL+"/api/submissions", "application/json", strings.NewReader(`{"intensityLevel": "seven"`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitSurvey_Invalid(t *testing.T) {
	env := newTestEnv(t)

	bad := payload("jd@gmail.com", "GK", 11)
	resp := env.post(t, bad)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Errors, schema.Email)
	assert.Contains(t, body.Errors, schema.Position)
	assert.Contains(t, body.Errors, schema.IntensityLevel)

	var athletes int
	require.NoError(t, env.app.QueryRow(`SELECT COUNT(*) FROM athlete`).Scan(&athletes))
	assert.Zero(t, athletes)
}

func TestReports_RequirePassphrase(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/reports/positions", "/api/reports/daily", "/api/reports/summary", "/api/reports/responses.csv"} {
		resp, err := http.Get(env.srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)

		req, _ := http.NewRequest(http.MethodGet, env.srv.URL+path, nil)
		req.Header.Set(middlewares.PassphraseHeader, "wrong")
		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func seed(t *testing.T, env *testEnv) {
	t.Helper()
	// day one
	env.post(t, payload("a@truman.edu", "OL", 8))
	env.post(t, payload("b@truman.edu", "OL", 6))
	env.post(t, payload("c@truman.edu", "WR", 4))
	// day two
	env.nextDay()
	env.post(t, payload("a@truman.edu", "OL", 10))
	env.post(t, payload("c@truman.edu", "WR", 2))
}

func TestPositionAverages(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env)

	var got struct {
		Positions []model.PositionAverage `json:"positions"`
	}
	env.trainerGet(t, "/api/reports/positions", &got)

	// a: 9, b: 6 -> OL 7.5; c: 3 -> WR 3
	require.Len(t, got.Positions, 2)
	assert.Equal(t, model.PositionAverage{Position: "OL", Average: 7.5, Athletes: 2, Rank: 1}, got.Positions[0])
	assert.Equal(t, model.PositionAverage{Position: "WR", Average: 3, Athletes: 1, Rank: 2}, got.Positions[1])
}

func TestDailyAverages(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env)

	var got struct {
		Days []model.DailyAverage `json:"days"`
	}
	env.trainerGet(t, "/api/reports/daily", &got)
	assert.Equal(t, []model.DailyAverage{
		{Day: "2025-06-10", Position: "OL", Average: 7},
		{Day: "2025-06-10", Position: "WR", Average: 4},
		{Day: "2025-06-11", Position: "OL", Average: 10},
		{Day: "2025-06-11", Position: "WR", Average: 2},
	}, got.Days)

	got.Days = nil
	env.trainerGet(t, "/api/reports/daily?position=WR", &got)
	assert.Len(t, got.Days, 2)

	resp := env.trainerGet(t, "/api/reports/daily?position=GK", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetSummary(t *testing.T) {
	env := newTestEnv(t)

	var empty model.Summary
	env.trainerGet(t, "/api/reports/summary", &empty)
	assert.Equal(t, model.Summary{}, empty)

	seed(t, env)
	var got model.Summary
	env.trainerGet(t, "/api/reports/summary", &got)
	assert.Equal(t, 3, got.Athletes)
	assert.Equal(t, 2, got.Sessions)
	assert.InDelta(t, 6.0, got.TeamAverage, 0.0001)
}

func TestExportResponses(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env)

	resp := env.trainerGet(t, "/api/reports/responses.csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Email", "Last 4 Digits", "Last Name", "First Name", "Position", "Summer Attendance", "06/10/2025", "06/11/2025"},
		{"a@truman.edu", "1234", "Doe", "Jane", "OL", "yes", "8", "10"},
		{"b@truman.edu", "1234", "Doe", "Jane", "OL", "yes", "6", ""},
		{"c@truman.edu", "1234", "Doe", "Jane", "WR", "yes", "4", "2"},
	}, records)
}

func TestTrainerPage_RedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	resp, err := noRedirect().Get(env.srv.URL + "/trainer")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/trainer/login?goto=%2Ftrainer", resp.Header.Get("Location"))
}

func TestTrainerLogin_WrongPassphrase(t *testing.T) {
	env := newTestEnv(t)

	resp, err := noRedirect().PostForm(env.srv.URL+"/trainer/login", url.Values{
		"passphrase": {"nope"},
		"goto":       {"/trainer"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "failed=1")
	assert.Empty(t, resp.Cookies())
}

func TestTrainerLogin_OpensDashboard(t *testing.T) {
	env := newTestEnv(t)

	resp, err := noRedirect().PostForm(env.srv.URL+"/trainer/login", url.Values{
		"passphrase": {testPassphrase},
		"goto":       {"//evil.example.com"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/trainer", resp.Header.Get("Location"))

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middlewares.PassphraseCookie, cookies[0].Name)

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/trainer", nil)
	req.AddCookie(cookies[0])
	resp, err = noRedirect().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), `<iframe src="http://127.0.0.1:4025/dashboard/"`)
	assert.Contains(t, string(page), "6/10/2025")
}

func TestTrainerLoginPage(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/trainer/login?failed=1&goto=%2Ftrainer")
	require.NoError(t, err)
	defer resp.Body.Close()

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Incorrect passphrase")
	assert.Contains(t, string(page), `value="/trainer"`)
}

func TestTrainerLogout(t *testing.T) {
	env := newTestEnv(t)

	resp, err := noRedirect().Post(env.srv.URL+"/trainer/logout", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Len(t, resp.Cookies(), 1)
	assert.Equal(t, -1, resp.Cookies()[0].MaxAge)
}

func TestFormSubmitsToCollector(t *testing.T) {
	env := newTestEnv(t)

	f := form.New(env.app.Schema, submission.NewClient(env.srv.URL+"/api/submissions"))
	values := map[string]string{
		schema.Email:            "jd1234",
		schema.Last4:            "4321",
		schema.LastName:         "Doe",
		schema.FirstName:        "Jane",
		schema.Position:         "TE",
		schema.SummerAttendance: "no",
		schema.IntensityLevel:   "10",
	}
	for name, value := range values {
		require.NoError(t, f.Set(name, value))
	}

	out, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.IsType(t, submission.Success{}, out)
	assert.Equal(t, form.Success, f.State())

	var position string
	var intensity int
	err = env.app.QueryRow(`
		SELECT a.position, e.intensity
		FROM athlete a JOIN rpe_entry e ON (a.email = e.email)
		WHERE a.email = ?`, "jd1234@truman.edu").Scan(&position, &intensity)
	require.NoError(t, err)
	assert.Equal(t, "TE", position)
	assert.Equal(t, 10, intensity)
}
