package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sebaB003/tpsx/pkg/tpsx"
	"github.com/sebaB003/tpsx/pkg/tpsx/store/memstore"
	"github.com/sebaB003/tpsx/pkg/tpsx/text"
)

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	opts := tpsx.Options{Language: text.Italian}
	e, err := tpsx.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{Engine: e, Options: opts, Merge: true, ModelName: "zoo"}
	if withStore {
		cfg.Store = memstore.New()
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, want, rec.Body.String())
	}
}

func train(t *testing.T, s *Server) {
	t.Helper()
	mustStatus(t, do(t, s, http.MethodPost, "/api/train", `{"topics":["felini"],"examples":["gatto lince"]}`), http.StatusOK)
	mustStatus(t, do(t, s, http.MethodPost, "/api/train", `{"topics":["animali"],"examples":["gatto cane"]}`), http.StatusOK)
	mustStatus(t, do(t, s, http.MethodPost, "/api/relations",
		`{"from":["felini"],"to":["animali"],"coexist":true,"bidirectional":true}`), http.StatusOK)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(t, s, http.MethodGet, "/healthcheck", "")
	mustStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestTopics(t *testing.T) {
	s := newTestServer(t, false)

	rec := do(t, s, http.MethodPost, "/api/topics", `{"label":"pesci"}`)
	mustStatus(t, rec, http.StatusCreated)
	mustStatus(t, do(t, s, http.MethodPost, "/api/topics", `{"label":"pesci"}`), http.StatusOK)
	mustStatus(t, do(t, s, http.MethodPost, "/api/topics", `{"label":""}`), http.StatusBadRequest)

	rec = do(t, s, http.MethodGet, "/api/topics", "")
	mustStatus(t, rec, http.StatusOK)
	var body struct {
		Topics []topicDTO `json:"topics"`
	}
	decode(t, rec, &body)
	if len(body.Topics) != 1 || body.Topics[0] != (topicDTO{ID: 1, Label: "pesci"}) {
		t.Errorf("topics = %+v", body.Topics)
	}
}

func TestPredictMergesCoexistingTopics(t *testing.T) {
	s := newTestServer(t, false)
	train(t, s)

	rec := do(t, s, http.MethodPost, "/api/predict", `{"sentences":["Un gatto."]}`)
	mustStatus(t, rec, http.StatusOK)

	var body struct {
		Results []resultDTO `json:"results"`
		Merge   bool        `json:"merge"`
	}
	decode(t, rec, &body)
	if !body.Merge {
		t.Error("merge should default to the server setting")
	}
	if len(body.Results) != 2 {
		t.Fatalf("results = %+v, want 2", body.Results)
	}
	for _, r := range body.Results {
		if r.AdjustedScore <= r.Score {
			t.Errorf("%s adjusted %v not above raw %v", r.Topic, r.AdjustedScore, r.Score)
		}
		if len(r.Related) != 1 || !r.Related[0].Coexist {
			t.Errorf("%s related = %+v", r.Topic, r.Related)
		}
	}

	rec = do(t, s, http.MethodPost, "/api/predict", `{"sentences":["Un gatto."],"merge":false}`)
	mustStatus(t, rec, http.StatusOK)
	decode(t, rec, &body)
	for _, r := range body.Results {
		if r.AdjustedScore != r.Score {
			t.Errorf("unmerged %s adjusted %v != raw %v", r.Topic, r.AdjustedScore, r.Score)
		}
	}
}

func TestRelationErrors(t *testing.T) {
	s := newTestServer(t, false)
	train(t, s)

	rec := do(t, s, http.MethodPost, "/api/relations", `{"from":["felini"],"to":["pesci"],"coexist":true}`)
	mustStatus(t, rec, http.StatusNotFound)
	var env ErrorEnvelope
	decode(t, rec, &env)
	if env.Error.Code != "declare_relations_failed" || env.Error.Message == "" {
		t.Errorf("error envelope = %+v", env)
	}

	mustStatus(t, do(t, s, http.MethodPost, "/api/relations", `{"from":["felini"],"to":["felini"]}`), http.StatusBadRequest)
	mustStatus(t, do(t, s, http.MethodPost, "/api/relations", `{not json`), http.StatusBadRequest)

	rec = do(t, s, http.MethodGet, "/api/relations", "")
	mustStatus(t, rec, http.StatusOK)
	var body struct {
		Relations []relationDTO `json:"relations"`
	}
	decode(t, rec, &body)
	if len(body.Relations) != 1 || body.Relations[0].Text != "felini --- animali" {
		t.Errorf("relations = %+v", body.Relations)
	}
}

func TestRelatedOf(t *testing.T) {
	s := newTestServer(t, false)
	train(t, s)

	rec := do(t, s, http.MethodGet, "/api/topics/felini/related", "")
	mustStatus(t, rec, http.StatusOK)
	var body struct {
		Related []relatedDTO `json:"related"`
	}
	decode(t, rec, &body)
	if len(body.Related) != 1 || body.Related[0] != (relatedDTO{Topic: "animali", Coexist: true}) {
		t.Errorf("related = %+v", body.Related)
	}

	mustStatus(t, do(t, s, http.MethodGet, "/api/topics/pesci/related", ""), http.StatusNotFound)
}

func TestTrainValidation(t *testing.T) {
	s := newTestServer(t, false)
	mustStatus(t, do(t, s, http.MethodPost, "/api/train", `{"topics":[],"examples":["gatto"]}`), http.StatusBadRequest)
	mustStatus(t, do(t, s, http.MethodPost, "/api/train", `{"topics":["a"],"tokens":["x",""]}`), http.StatusBadRequest)
	if st := s.Current().Stats(); st.Topics != 0 || st.Tokens != 0 {
		t.Errorf("failed training changed state: %+v", st)
	}
}

func TestModelsSaveAndLoad(t *testing.T) {
	s := newTestServer(t, true)
	train(t, s)

	rec := do(t, s, http.MethodPost, "/api/models", "")
	mustStatus(t, rec, http.StatusCreated)
	var saved struct {
		Model modelDTO `json:"model"`
	}
	decode(t, rec, &saved)
	if saved.Model.ID == "" || saved.Model.Name != "zoo" || saved.Model.Language != "italian" {
		t.Fatalf("saved model = %+v", saved.Model)
	}

	// Diverge from the stored model, then restore it.
	mustStatus(t, do(t, s, http.MethodPost, "/api/train", `{"topics":["pesci"],"examples":["pinne"]}`), http.StatusOK)
	if n := len(s.Current().Topics()); n != 3 {
		t.Fatalf("topics before load = %d, want 3", n)
	}

	mustStatus(t, do(t, s, http.MethodPost, "/api/models/"+saved.Model.ID+"/load", ""), http.StatusOK)
	if n := len(s.Current().Topics()); n != 2 {
		t.Errorf("topics after load = %d, want 2", n)
	}

	rec = do(t, s, http.MethodGet, "/api/models?name=zoo", "")
	mustStatus(t, rec, http.StatusOK)
	var list struct {
		Models []modelDTO `json:"models"`
	}
	decode(t, rec, &list)
	if len(list.Models) != 1 || list.Models[0].ID != saved.Model.ID {
		t.Errorf("models = %+v", list.Models)
	}

	mustStatus(t, do(t, s, http.MethodPost, "/api/models/01ARZ3NDEKTSV4RRFFQ69G5FAV/load", ""), http.StatusNotFound)
}

func TestSaveModelEmptyChunkedBody(t *testing.T) {
	s := newTestServer(t, true)
	train(t, s)

	req := httptest.NewRequest(http.MethodPost, "/api/models", strings.NewReader(""))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine.ServeHTTP(rec, req)
	mustStatus(t, rec, http.StatusCreated)

	mustStatus(t, do(t, s, http.MethodPost, "/api/models", `{"name":`), http.StatusBadRequest)
}

func TestModelsWithoutStore(t *testing.T) {
	s := newTestServer(t, false)
	mustStatus(t, do(t, s, http.MethodPost, "/api/models", ""), http.StatusNotImplemented)
	mustStatus(t, do(t, s, http.MethodGet, "/api/models", ""), http.StatusNotImplemented)
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, false)

	rec := do(t, s, http.MethodGet, "/healthcheck", "")
	if id := rec.Header().Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("generated request id = %q", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	s.Engine.ServeHTTP(rec, req)
	if id := rec.Header().Get("X-Request-ID"); id != "abc" {
		t.Errorf("propagated request id = %q, want abc", id)
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e, err := tpsx.New(tpsx.Options{Language: text.English})
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(Config{Engine: e, CORSOrigins: []string{"http://localhost:5173"}})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Engine.ServeHTTP(rec, req)
	mustStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow-origin = %q", got)
	}
}
