package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/biodoia/contentforge/internal/pipeline"
	"github.com/biodoia/contentforge/pkg/cache"
	"github.com/biodoia/contentforge/pkg/config"
	"github.com/biodoia/contentforge/pkg/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// mockStore è un ContentStore in memoria con errori iniettabili
type mockStore struct {
	generations []*models.Generation
	createErr   error
	listErr     error
	pingErr     error
}

func (m *mockStore) CreateGeneration(gen *models.Generation) error {
	if m.createErr != nil {
		return m.createErr
	}
	if gen.ID == uuid.Nil {
		gen.ID = uuid.New()
	}
	gen.CreatedAt = time.Now()
	m.generations = append(m.generations, gen)
	return nil
}

func (m *mockStore) ListGenerations(limit int) ([]models.Generation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.Generation, 0, limit)
	for i := len(m.generations) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.generations[i])
	}
	return out, nil
}

func (m *mockStore) GetGenerationByID(id uuid.UUID) (*models.Generation, error) {
	for _, gen := range m.generations {
		if gen.ID == id {
			return gen, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStore) DeleteGeneration(id uuid.UUID) error {
	for i, gen := range m.generations {
		if gen.ID == id {
			m.generations = append(m.generations[:i], m.generations[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockStore) CountGenerations() (int64, error) {
	return int64(len(m.generations)), nil
}

func (m *mockStore) Ping() error {
	return m.pingErr
}

// mockRunner è un pipeline.Runner con risultato fisso
type mockRunner struct {
	result *pipeline.Result
	err    error
	topics []string
}

func (m *mockRunner) Run(ctx context.Context, topic string) (*pipeline.Result, error) {
	m.topics = append(m.topics, topic)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockRunner) Describe() []pipeline.StageInfo {
	return []pipeline.StageInfo{
		{Name: "research", Role: "researcher"},
		{Name: "write", Role: "writer"},
		{Name: "edit", Role: "editor"},
	}
}

// mockCache è una cache.Cache in memoria con errore di lettura iniettabile
type mockCache struct {
	entries map[string]*cache.Entry
	getErr  error
	sets    []string
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]*cache.Entry)}
}

func (m *mockCache) Get(ctx context.Context, topic string) (*cache.Entry, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	entry, ok := m.entries[cache.TopicKey(topic)]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return entry, nil
}

func (m *mockCache) Set(ctx context.Context, topic string, entry *cache.Entry) error {
	m.entries[cache.TopicKey(topic)] = entry
	m.sets = append(m.sets, topic)
	return nil
}

func (m *mockCache) Invalidate(ctx context.Context, topic string) error {
	delete(m.entries, cache.TopicKey(topic))
	return nil
}

func (m *mockCache) Ping(ctx context.Context) error { return nil }

func (m *mockCache) Close() error { return nil }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.Server.RateLimit.Enabled = false
	cfg.Monitoring.Prometheus.Enabled = false
	return cfg
}

func defaultResult() *pipeline.Result {
	return &pipeline.Result{
		Content: "# Generated Post\n\nBody.",
		Post: &pipeline.BlogPost{
			Title:    "Generated Post",
			Content:  "Body.",
			Keywords: []string{"test", "post"},
		},
		Model:    "test-model",
		Provider: "mock",
		Duration: 2 * time.Second,
	}
}

func newTestGateway(t *testing.T, cfg *config.Config, store ContentStore, runner pipeline.Runner) *Gateway {
	t.Helper()
	gw, err := New(cfg, store, runner, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return gw
}

func doJSON(t *testing.T, gw *Gateway, method, target string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := gw.App().Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	return resp, payload
}

func TestGenerateContentSuccess(t *testing.T) {
	store := &mockStore{}
	runner := &mockRunner{result: defaultResult()}
	gw := newTestGateway(t, testConfig(), store, runner)

	resp, payload := doJSON(t, gw, "POST", "/api/generate-content", map[string]string{"topic": "test driven development"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d (%v)", resp.StatusCode, payload)
	}

	if payload["status"] != "success" {
		t.Errorf("Expected success status, got %v", payload["status"])
	}

	content, _ := payload["content"].(string)
	if content == "" {
		t.Error("Expected non-empty content")
	}

	if payload["save_status"] != "saved" {
		t.Errorf("Expected save_status saved, got %v", payload["save_status"])
	}

	if payload["id"] == nil {
		t.Error("Expected generation id in response")
	}

	if len(store.generations) != 1 {
		t.Fatalf("Expected 1 stored generation, got %d", len(store.generations))
	}

	if store.generations[0].Topic != "test driven development" {
		t.Errorf("Stored wrong topic: %q", store.generations[0].Topic)
	}
}

func TestGenerateContentEmptyTopic(t *testing.T) {
	gw := newTestGateway(t, testConfig(), &mockStore{}, &mockRunner{result: defaultResult()})

	for _, topic := range []string{"", "   ", "\n\t"} {
		resp, payload := doJSON(t, gw, "POST", "/api/generate-content", map[string]string{"topic": topic})

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Topic %q: expected 400, got %d", topic, resp.StatusCode)
		}
		if payload["status"] != "error" {
			t.Errorf("Topic %q: expected error status, got %v", topic, payload["status"])
		}
	}
}

func TestGenerateContentPipelineFailure(t *testing.T) {
	runner := &mockRunner{err: errors.New("all providers are down")}
	gw := newTestGateway(t, testConfig(), &mockStore{}, runner)

	resp, payload := doJSON(t, gw, "POST", "/api/generate-content", map[string]string{"topic": "anything"})

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", resp.StatusCode)
	}

	message, _ := payload["message"].(string)
	if message == "" {
		t.Error("Expected error message in response")
	}
}

func TestGenerateContentStoreOutage(t *testing.T) {
	store := &mockStore{createErr: errors.New("connection refused")}
	gw := newTestGateway(t, testConfig(), store, &mockRunner{result: defaultResult()})

	resp, payload := doJSON(t, gw, "POST", "/api/generate-content", map[string]string{"topic": "resilience"})

	// Il salvataggio è best-effort: la generazione riuscita va comunque servita
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 despite store outage, got %d", resp.StatusCode)
	}

	if payload["save_status"] != "failed" {
		t.Errorf("Expected save_status failed, got %v", payload["save_status"])
	}

	if payload["id"] != nil {
		t.Error("Expected no id when save failed")
	}

	content, _ := payload["content"].(string)
	if content == "" {
		t.Error("Expected generated content despite store outage")
	}
}

func TestGenerateContentCacheHit(t *testing.T) {
	contentCache := newMockCache()
	contentCache.Set(context.Background(), "cached topic", &cache.Entry{
		Topic:    "cached topic",
		Content:  "# Cached Post\n\nFrom cache.",
		Keywords: []string{"cached"},
		Model:    "test-model",
		Provider: "mock",
		CachedAt: time.Now().Unix(),
	})
	contentCache.sets = nil

	runner := &mockRunner{result: defaultResult()}
	gw, err := New(testConfig(), &mockStore{}, runner, contentCache)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, payload := doJSON(t, gw, "POST", "/api/generate-content", map[string]string{"topic": "cached topic"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d (%v)", resp.StatusCode, payload)
	}
	if payload["save_status"] != "cached" {
		t.Errorf("Expected save_status cached, got %v", payload["save_status"])
	}
	if payload["content"] != "# Cached Post\n\nFrom cache." {
		t.Errorf("Expected cached content, got %v", payload["content"])
	}
	if len(runner.topics) != 0 {
		t.Errorf("Expected pipeline untouched on cache hit, ran for %v", runner.topics)
	}
}

func TestGenerateContentCacheUnavailable(t *testing.T) {
	contentCache := newMockCache()
	contentCache.getErr = errors.New("connection refused")

	runner := &mockRunner{result: defaultResult()}
	store := &mockStore{}
	gw, err := New(testConfig(), store, runner, contentCache)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, payload := doJSON(t, gw, "POST", "/api/generate-content", map[string]string{"topic": "fresh topic"})

	// Cache irraggiungibile: la richiesta passa comunque dalla pipeline
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d (%v)", resp.StatusCode, payload)
	}
	if payload["save_status"] != "saved" {
		t.Errorf("Expected save_status saved, got %v", payload["save_status"])
	}
	if len(runner.topics) != 1 || runner.topics[0] != "fresh topic" {
		t.Errorf("Expected pipeline run for topic, got %v", runner.topics)
	}
}

func TestGenerateContentPopulatesCache(t *testing.T) {
	contentCache := newMockCache()
	gw, err := New(testConfig(), &mockStore{}, &mockRunner{result: defaultResult()}, contentCache)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, _ := doJSON(t, gw, "POST", "/api/generate-content", map[string]string{"topic": "new topic"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if len(contentCache.sets) != 1 || contentCache.sets[0] != "new topic" {
		t.Errorf("Expected generation cached for topic, got %v", contentCache.sets)
	}

	entry, getErr := contentCache.Get(context.Background(), "new topic")
	if getErr != nil {
		t.Fatalf("Get() error = %v", getErr)
	}
	if entry.Content == "" {
		t.Error("Expected cached entry with content")
	}
}

func TestListContent(t *testing.T) {
	store := &mockStore{}
	for i := 0; i < 5; i++ {
		store.CreateGeneration(&models.Generation{
			Topic:   fmt.Sprintf("topic %d", i),
			Content: "content",
		})
	}

	gw := newTestGateway(t, testConfig(), store, &mockRunner{result: defaultResult()})

	resp, payload := doJSON(t, gw, "GET", "/api/content", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if payload["count"] != float64(5) {
		t.Errorf("Expected count 5, got %v", payload["count"])
	}

	resp, payload = doJSON(t, gw, "GET", "/api/content?limit=2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if payload["count"] != float64(2) {
		t.Errorf("Expected count 2, got %v", payload["count"])
	}
}

func TestListContentInvalidLimit(t *testing.T) {
	gw := newTestGateway(t, testConfig(), &mockStore{}, &mockRunner{result: defaultResult()})

	for _, limit := range []string{"0", "-1", "abc"} {
		resp, _ := doJSON(t, gw, "GET", "/api/content?limit="+limit, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Limit %q: expected 400, got %d", limit, resp.StatusCode)
		}
	}
}

func TestGetContent(t *testing.T) {
	store := &mockStore{}
	gen := &models.Generation{Topic: "stored topic", Content: "stored content"}
	store.CreateGeneration(gen)

	gw := newTestGateway(t, testConfig(), store, &mockRunner{result: defaultResult()})

	resp, payload := doJSON(t, gw, "GET", "/api/content/"+gen.ID.String(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	content, _ := payload["content"].(map[string]any)
	if content["topic"] != "stored topic" {
		t.Errorf("Expected stored topic, got %v", content["topic"])
	}
}

func TestGetContentNotFound(t *testing.T) {
	gw := newTestGateway(t, testConfig(), &mockStore{}, &mockRunner{result: defaultResult()})

	resp, _ := doJSON(t, gw, "GET", "/api/content/"+uuid.NewString(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, gw, "GET", "/api/content/not-a-uuid", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed id, got %d", resp.StatusCode)
	}
}

func TestDeleteContent(t *testing.T) {
	store := &mockStore{}
	gen := &models.Generation{Topic: "to delete", Content: "bye"}
	store.CreateGeneration(gen)

	gw := newTestGateway(t, testConfig(), store, &mockRunner{result: defaultResult()})

	resp, payload := doJSON(t, gw, "DELETE", "/api/content/"+gen.ID.String(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if payload["status"] != "success" {
		t.Errorf("Expected success, got %v", payload["status"])
	}
	if len(store.generations) != 0 {
		t.Errorf("Expected empty store after delete, got %d items", len(store.generations))
	}
}

func TestDeleteContentNonexistent(t *testing.T) {
	gw := newTestGateway(t, testConfig(), &mockStore{}, &mockRunner{result: defaultResult()})

	resp, payload := doJSON(t, gw, "DELETE", "/api/content/"+uuid.NewString(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for nonexistent id, got %d", resp.StatusCode)
	}
	if payload["status"] != "error" {
		t.Errorf("Expected error status, got %v", payload["status"])
	}
}

func TestRootBanner(t *testing.T) {
	gw := newTestGateway(t, testConfig(), &mockStore{}, &mockRunner{result: defaultResult()})

	resp, payload := doJSON(t, gw, "GET", "/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if payload["service"] != "ContentForge" {
		t.Errorf("Unexpected banner: %v", payload)
	}
}

func TestMessage(t *testing.T) {
	gw := newTestGateway(t, testConfig(), &mockStore{}, &mockRunner{result: defaultResult()})

	resp, payload := doJSON(t, gw, "GET", "/api/message", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	message, _ := payload["message"].(string)
	if message == "" {
		t.Error("Expected greeting message")
	}
}

func TestHealthStates(t *testing.T) {
	tests := []struct {
		name       string
		apiKey     string
		pingErr    error
		wantStatus string
	}{
		{"healthy", "key", nil, "ok"},
		{"store unreachable", "key", errors.New("no route"), "degraded"},
		{"llm key absent", "", nil, "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.LLM.APIKey = tt.apiKey
			store := &mockStore{pingErr: tt.pingErr}

			gw := newTestGateway(t, cfg, store, &mockRunner{result: defaultResult()})

			resp, payload := doJSON(t, gw, "GET", "/health", nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Expected 200, got %d", resp.StatusCode)
			}
			if payload["status"] != tt.wantStatus {
				t.Errorf("Expected status %q, got %v", tt.wantStatus, payload["status"])
			}
		})
	}
}

func TestReady(t *testing.T) {
	gw := newTestGateway(t, testConfig(), &mockStore{}, &mockRunner{result: defaultResult()})

	resp, payload := doJSON(t, gw, "GET", "/ready", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if payload["ready"] != true {
		t.Errorf("Expected ready true, got %v", payload["ready"])
	}

	gw = newTestGateway(t, testConfig(), &mockStore{pingErr: errors.New("down")}, &mockRunner{result: defaultResult()})

	resp, payload = doJSON(t, gw, "GET", "/ready", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", resp.StatusCode)
	}
	if payload["ready"] != false {
		t.Errorf("Expected ready false, got %v", payload["ready"])
	}
}

func TestPipelineInfo(t *testing.T) {
	gw := newTestGateway(t, testConfig(), &mockStore{}, &mockRunner{result: defaultResult()})

	resp, payload := doJSON(t, gw, "GET", "/api/pipeline", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	stages, _ := payload["stages"].([]any)
	if len(stages) != 3 {
		t.Errorf("Expected 3 stages, got %d", len(stages))
	}
}
