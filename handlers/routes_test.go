package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phish-scoreboard/services"
	"phish-scoreboard/testutil"
	"phish-scoreboard/workers"
)

type testServer struct {
	app        *fiber.App
	dispatcher *workers.Dispatcher
}

func newTestServer(t *testing.T, generator *services.PhishingGenerator) *testServer {
	t.Helper()
	db := testutil.OpenTestDB(t)

	participants := services.NewParticipantService(db)
	ledger := services.NewLedger(db, services.DefaultPointPolicy(), participants)
	dispatcher := workers.NewDispatcher(time.Second)
	enrollment := services.NewEnrollmentService(participants, ledger, services.NewWebhookNotifier("", time.Second), dispatcher, time.Second)
	exporter := services.NewExportService(participants, "Phishing Simulation Data")
	if generator == nil {
		generator = services.NewPhishingGenerator("", "http://unused", "m", "https://link", time.Second)
	}

	app := fiber.New()
	SetupHealthRoutes(app, db)
	api := app.Group("/api")
	SetupParticipantRoutes(api, enrollment, participants)
	SetupLedgerRoutes(api, ledger, services.NewScoreboardService(db), 10)
	SetupAdminRoutes(api, ledger, exporter)
	SetupPhishingRoutes(api, generator)

	return &testServer{app: app, dispatcher: dispatcher}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (s *testServer) register(t *testing.T, body string) string {
	t.Helper()
	status, out := s.do(t, http.MethodPost, "/api/students-data", body)
	require.Equal(t, http.StatusCreated, status, string(out))
	s.dispatcher.Wait()

	var resp struct {
		Success   bool   `json:"success"`
		StudentID string `json:"studentID"`
	}
	require.NoError(t, json.Unmarshal(out, &resp))
	require.True(t, resp.Success)
	return resp.StudentID
}

func TestRegisterAndRecordAction(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.register(t, `{"fullName":"Asha","studentID":"S1","email":"asha@example.edu"}`)
	assert.Equal(t, "S1", id)

	status, out := s.do(t, http.MethodPost, "/api/record-action", `{"studentID":"S1","action":"reported_phish","meta":{"via":"banner"}}`)
	require.Equal(t, http.StatusCreated, status, string(out))
	assert.JSONEq(t, `{"success":true,"points":80}`, string(out))

	status, out = s.do(t, http.MethodGet, "/api/actions?studentID=S1", "")
	require.Equal(t, http.StatusOK, status)
	var actions []struct {
		ActionType string          `json:"action_type"`
		Points     int             `json:"points"`
		Meta       json.RawMessage `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(out, &actions))
	require.Len(t, actions, 2)
	assert.Equal(t, "reported_phish", actions[0].ActionType)
	assert.Equal(t, 80, actions[0].Points)
	assert.JSONEq(t, `{"via":"banner"}`, string(actions[0].Meta))
	assert.Equal(t, "submit_application", actions[1].ActionType)
	assert.Equal(t, -10, actions[1].Points)

	status, out = s.do(t, http.MethodGet, "/api/scores", "")
	require.Equal(t, http.StatusOK, status)
	var scores []map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &scores))
	require.Len(t, scores, 1)
	assert.Equal(t, "S1", scores[0]["studentID"])
	assert.EqualValues(t, 70, scores[0]["score"])
	assert.EqualValues(t, 2, scores[0]["actions_count"])
}

func TestRegisterWithoutIdentifiers(t *testing.T) {
	s := newTestServer(t, nil)

	id := s.register(t, `{"fullName":"Anon","year":3,"cgpa":8.5}`)
	assert.True(t, strings.HasPrefix(id, "anonymous_"), id)

	status, out := s.do(t, http.MethodGet, "/api/students-data", "")
	require.Equal(t, http.StatusOK, status)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "3", list[0]["year"])
	assert.Equal(t, "8.5", list[0]["cgpa"])
	assert.True(t, strings.HasPrefix(list[0]["email"].(string), "noreply_"))
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, `{"studentID":"S1","email":"a@example.edu"}`)

	status, out := s.do(t, http.MethodPost, "/api/students-data", `{"studentID":"S2","email":"a@example.edu"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(out), "already exists")

	status, _ = s.do(t, http.MethodPost, "/api/students-data", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRecordActionErrors(t *testing.T) {
	s := newTestServer(t, nil)

	status, out := s.do(t, http.MethodPost, "/api/record-action", `{"studentID":"ghost","action":"clicked_apply"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"student not found"}`, string(out))

	status, out = s.do(t, http.MethodPost, "/api/record-action", `{"action":"clicked_apply"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"studentID and action are required"}`, string(out))

	status, _ = s.do(t, http.MethodPost, "/api/record-action", `{`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRecordActionAcceptsPlainText(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, `{"studentID":"S1"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/record-action", strings.NewReader(`{"studentID":"S1","action":"ignored_email"}`))
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestActionsRequiresStudentID(t *testing.T) {
	s := newTestServer(t, nil)

	status, _ := s.do(t, http.MethodGet, "/api/actions", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, out := s.do(t, http.MethodGet, "/api/actions?studentID=nobody", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(out))
}

func TestLeaderboard(t *testing.T) {
	s := newTestServer(t, nil)
	for _, id := range []string{"A", "B", "C"} {
		s.register(t, `{"studentID":"`+id+`"}`)
	}
	s.do(t, http.MethodPost, "/api/record-action", `{"studentID":"B","action":"submitted_sensitive_info"}`)
	s.do(t, http.MethodPost, "/api/record-action", `{"studentID":"C","action":"opened_phishing_link"}`)
	s.do(t, http.MethodPost, "/api/record-action", `{"studentID":"A","action":"reported_phish"}`)

	status, out := s.do(t, http.MethodGet, "/api/leaderboard?limit=2", "")
	require.Equal(t, http.StatusOK, status)
	var entries []struct {
		StudentID string `json:"studentID"`
		Score     int    `json:"score"`
	}
	require.NoError(t, json.Unmarshal(out, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[0].StudentID)
	assert.Equal(t, -110, entries[0].Score)
	assert.Equal(t, "C", entries[1].StudentID)

	status, out = s.do(t, http.MethodGet, "/api/leaderboard?limit=0", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(out))
}

func TestActionTypes(t *testing.T) {
	s := newTestServer(t, nil)

	status, out := s.do(t, http.MethodGet, "/api/action-types", "")
	require.Equal(t, http.StatusOK, status)
	var table map[string]int
	require.NoError(t, json.Unmarshal(out, &table))
	assert.Equal(t, services.DefaultPointPolicy().Table(), table)
}

func TestClearAndExport(t *testing.T) {
	s := newTestServer(t, nil)

	status, _ := s.do(t, http.MethodGet, "/api/export-students-data", "")
	assert.Equal(t, http.StatusNotFound, status)

	s.register(t, `{"fullName":"Asha","studentID":"S1"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/export-students-data", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, "attachment; filename=phishing-simulation-data.csv", resp.Header.Get(fiber.HeaderContentDisposition))
	assert.True(t, strings.HasPrefix(string(body), "id,fullName,studentID"))

	status, out := s.do(t, http.MethodPost, "/api/clear-students-data", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"success":true,"message":"All student entries cleared."}`, string(out))

	status, out = s.do(t, http.MethodGet, "/api/scores", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(out))

	status, out = s.do(t, http.MethodGet, "/api/actions?studentID=S1", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(out))
}

func TestGeneratePhishing(t *testing.T) {
	s := newTestServer(t, nil)

	status, _ := s.do(t, http.MethodPost, "/api/generate-phishing", `{"prompt":""}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/api/generate-phishing", `{"prompt":"bank alert"}`)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestGeneratePhishingUpstream(t *testing.T) {
	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"subject\":\"Hi\",\"body\":\"Click https://link\"}"}]}}]}`)
	}))
	defer gemini.Close()
	s := newTestServer(t, services.NewPhishingGenerator("k", gemini.URL, "m", "https://link", time.Second))

	status, out := s.do(t, http.MethodPost, "/api/generate-phishing", `{"prompt":"bank alert"}`)
	require.Equal(t, http.StatusOK, status, string(out))
	assert.JSONEq(t, `{"subject":"Hi","body":"Click https://link"}`, string(out))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	status, out := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(out))
}
