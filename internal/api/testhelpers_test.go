// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/sawitrec/internal/auth"
	"github.com/tomtom215/sawitrec/internal/config"
	"github.com/tomtom215/sawitrec/internal/dataset"
	"github.com/tomtom215/sawitrec/internal/feedback"
	"github.com/tomtom215/sawitrec/internal/ingest"
	"github.com/tomtom215/sawitrec/internal/recommend"
	"github.com/tomtom215/sawitrec/internal/recommend/storage"
)

const testAdminSecret = "test_admin_secret_with_at_least_32_characters"

// envelope mirrors APIResponse with a raw data payload.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func price(v float64) *float64 { return &v }

// newTestService serves users u1, u2 and products p1, p2, p3.
// u1 scores p1 0.9, p2 0.1 (already liked) and p3 0.5.
func newTestService(t *testing.T) *recommend.Service {
	t.Helper()
	users, err := recommend.NewEncoder([]string{"u1", "u2"})
	if err != nil {
		t.Fatal(err)
	}
	products, err := recommend.NewEncoder([]string{"p1", "p2", "p3"})
	if err != nil {
		t.Fatal(err)
	}
	matrix, err := recommend.NewInteractionMatrix(2, 3, []recommend.MatrixEntry{
		{User: 0, Item: 1, Value: 1},
		{User: 1, Item: 0, Value: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	model, err := recommend.NewFactorModel(
		[][]float64{{1, 0}, {0, 1}},
		[][]float64{{0.9, 0}, {0.1, 1}, {0.5, 0}},
	)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := recommend.NewSnapshot(3, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), users, products, matrix, model)
	if err != nil {
		t.Fatal(err)
	}
	catalog := recommend.NewCatalog([]recommend.Product{
		{ID: "p1", Name: "NPK Fertilizer 15-15-15", Price: price(350000), Type: "GOODS", Unit: "sack"},
		{ID: "p2", Name: "Palm Seedling", Price: price(45000), Type: "GOODS", Unit: "pcs"},
		{ID: "p3", Name: "Harvesting Service", Type: "SERVICE", Unit: "ha"},
	})
	svc, err := recommend.NewService(nil, snap, catalog, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

// memSink collects accepted feedback records.
type memSink struct {
	mu      sync.Mutex
	records []*feedback.Record
	err     error
}

func (s *memSink) Append(_ context.Context, rec *feedback.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

// mockUpdater records batches and returns a scripted outcome.
type mockUpdater struct {
	mu       sync.Mutex
	batches  [][]dataset.Interaction
	files    []string
	report   *ingest.UpdateReport
	err      error
	fileRead []dataset.Interaction
}

func (m *mockUpdater) Apply(_ context.Context, batch []dataset.Interaction) (*ingest.UpdateReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, batch)
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockUpdater) ApplyFile(ctx context.Context, loader ingest.InteractionLoader, path string) (*ingest.UpdateReport, error) {
	batch, err := loader.LoadInteractions(ctx, path)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.files = append(m.files, path)
	m.fileRead = batch
	m.mu.Unlock()
	return m.Apply(ctx, batch)
}

// mockLoader returns the uploaded file contents as a single interaction.
type mockLoader struct{}

func (mockLoader) LoadInteractions(_ context.Context, path string) ([]dataset.Interaction, error) {
	return []dataset.Interaction{{UserID: "u1", ProductID: "p3", Strength: 1}}, nil
}

type mockReloader struct {
	res *storage.ReloadResult
	err error
}

func (m *mockReloader) ReloadLatest(context.Context) (*storage.ReloadResult, error) {
	return m.res, m.err
}

type testServer struct {
	handler  http.Handler
	svc      *recommend.Service
	sink     *memSink
	updater  *mockUpdater
	reloader *mockReloader
	jwt      *auth.JWTManager
}

type serverOption func(*serverOptions)

type serverOptions struct {
	adminSecret string
	chi         *ChiMiddlewareConfig
	handlerCfg  HandlerConfig
	noFeedback  bool
}

func withoutAdmin() serverOption {
	return func(o *serverOptions) { o.adminSecret = "" }
}

func withRateLimit(reqs int) serverOption {
	return func(o *serverOptions) {
		o.chi.RateLimitRequests = reqs
		o.chi.RateLimitDisabled = false
	}
}

func withHandlerConfig(cfg HandlerConfig) serverOption {
	return func(o *serverOptions) { o.handlerCfg = cfg }
}

func withoutFeedback() serverOption {
	return func(o *serverOptions) { o.noFeedback = true }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	chiCfg := DefaultChiMiddlewareConfig()
	chiCfg.CORSAllowedOrigins = []string{"https://shop.example.com"}
	chiCfg.RateLimitDisabled = true
	o := &serverOptions{
		adminSecret: testAdminSecret,
		chi:         chiCfg,
		handlerCfg:  DefaultHandlerConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}

	ts := &testServer{
		svc:      newTestService(t),
		sink:     &memSink{},
		updater:  &mockUpdater{report: &ingest.UpdateReport{Received: 1, Applied: 1, Rejected: map[string]int{}, PreviousVersion: 3, Version: 4, Swapped: true}},
		reloader: &mockReloader{res: &storage.ReloadResult{PreviousVersion: 3, Version: 3}},
	}

	deps := Deps{Updater: ts.updater, Loader: mockLoader{}, Reloader: ts.reloader}
	if !o.noFeedback {
		acceptor, err := feedback.NewAcceptor(ts.svc, ts.sink, zerolog.Nop())
		if err != nil {
			t.Fatal(err)
		}
		deps.Feedback = acceptor
	}

	h, err := NewHandler(o.handlerCfg, ts.svc, deps)
	if err != nil {
		t.Fatal(err)
	}

	var authMW *auth.Middleware
	if o.adminSecret != "" {
		ts.jwt, err = auth.NewJWTManager(&config.SecurityConfig{AdminJWTSecret: o.adminSecret})
		if err != nil {
			t.Fatal(err)
		}
		authMW = auth.NewMiddleware(ts.jwt, WriteError)
	}

	ts.handler = NewRouter(h, NewChiMiddleware(o.chi), authMW, 5*time.Second).SetupChi()
	return ts
}

func (ts *testServer) adminToken(t *testing.T, role string) string {
	t.Helper()
	token, err := ts.jwt.GenerateToken("ops", role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func (ts *testServer) do(t *testing.T, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "192.0.2.10:5000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v (data %s)", err, env.Data)
	}
}
