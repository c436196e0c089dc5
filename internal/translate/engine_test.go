package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// requestLog records which model every API call addressed.
type requestLog struct {
	mu     sync.Mutex
	order  []string
	counts map[string]int
}

func (l *requestLog) count(model string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[model]
}

func (l *requestLog) callOrder() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

func modelFromPath(path string) string {
	base := path[strings.LastIndex(path, "/")+1:]
	return strings.TrimSuffix(base, ":generateContent")
}

// mockGeminiServer routes each generateContent call through respond,
// passing the addressed model and its per-model call number.
func mockGeminiServer(t *testing.T, respond func(model string, call int) (string, int)) (*httptest.Server, *requestLog) {
	t.Helper()
	log := &requestLog{counts: make(map[string]int)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		model := modelFromPath(r.URL.Path)

		log.mu.Lock()
		log.counts[model]++
		call := log.counts[model]
		log.order = append(log.order, model)
		log.mu.Unlock()

		content, status := respond(model, call)
		w.WriteHeader(status)
		w.Write([]byte(content))
	}))
	t.Cleanup(server.Close)
	return server, log
}

// mockMappingResponse builds a generateContent response whose candidate
// text is the given mapping serialized as JSON.
func mockMappingResponse(pairs map[string]string) string {
	mapping, _ := json.Marshal(pairs)
	resp := generateResponse{
		Candidates: []candidate{
			{Content: candidateContent{Parts: []part{{Text: string(mapping)}}}},
		},
	}
	jsonBytes, _ := json.Marshal(resp)
	return string(jsonBytes)
}

const rateLimitBody = `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"1s"}]}}`

// testEngine builds an engine with waits short enough for tests.
func testEngine(serverURL string, batchSize int, models ...string) *Engine {
	if len(models) == 0 {
		models = []string{"model-a", "model-b", "model-c"}
	}
	return NewEngine(EngineConfig{
		APIKey:         "test-key",
		BaseURL:        serverURL,
		TargetLanguage: "ar",
		Models:         models,
		BatchSize:      batchSize,
		RetryDelay:     time.Millisecond,
		RetryBuffer:    time.Millisecond,
		MaxRetryDelay:  5 * time.Millisecond,
		BatchPause:     time.Millisecond,
	})
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		name            string
		cfg             EngineConfig
		expectedBatch   int
		expectedRetries int
		expectedModels  int
	}{
		{
			name: "with all values set",
			cfg: EngineConfig{
				APIKey:      "key",
				BatchSize:   10,
				MaxAttempts: 5,
				Models:      []string{"one-model"},
			},
			expectedBatch:   10,
			expectedRetries: 5,
			expectedModels:  1,
		},
		{
			name:            "with defaults",
			cfg:             EngineConfig{APIKey: "key"},
			expectedBatch:   DefaultBatchSize,
			expectedRetries: DefaultMaxAttempts,
			expectedModels:  len(DefaultModels),
		},
		{
			name: "with negative values",
			cfg: EngineConfig{
				APIKey:      "key",
				BatchSize:   -1,
				MaxAttempts: -1,
			},
			expectedBatch:   DefaultBatchSize,
			expectedRetries: DefaultMaxAttempts,
			expectedModels:  len(DefaultModels),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(tt.cfg)
			if e.batchSize != tt.expectedBatch {
				t.Errorf("batchSize = %d, want %d", e.batchSize, tt.expectedBatch)
			}
			if e.maxAttempts != tt.expectedRetries {
				t.Errorf("maxAttempts = %d, want %d", e.maxAttempts, tt.expectedRetries)
			}
			if len(e.models) != tt.expectedModels {
				t.Errorf("models = %d, want %d", len(e.models), tt.expectedModels)
			}
			if e.client == nil {
				t.Error("client should not be nil")
			}
		})
	}
}

func TestSplitBatches(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		if got := splitBatches(nil, 50); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("partitions preserve order and union", func(t *testing.T) {
		texts := []string{"a", "b", "c", "d", "e", "f", "g"}
		batches := splitBatches(texts, 3)

		if len(batches) != 3 {
			t.Fatalf("expected 3 batches, got %d", len(batches))
		}
		var flattened []string
		for _, b := range batches {
			flattened = append(flattened, b...)
		}
		if len(flattened) != len(texts) {
			t.Fatalf("flattened length %d, want %d", len(flattened), len(texts))
		}
		for i := range texts {
			if flattened[i] != texts[i] {
				t.Errorf("flattened[%d] = %q, want %q", i, flattened[i], texts[i])
			}
		}
	})

	t.Run("exact multiple of batch size", func(t *testing.T) {
		batches := splitBatches([]string{"a", "b", "c", "d"}, 2)
		if len(batches) != 2 {
			t.Errorf("expected 2 batches, got %d", len(batches))
		}
	})

	t.Run("single batch when under size", func(t *testing.T) {
		batches := splitBatches([]string{"a", "b"}, 50)
		if len(batches) != 1 || len(batches[0]) != 2 {
			t.Errorf("expected one batch of 2, got %v", batches)
		}
	})
}

func TestTranslateAll_EmptyInput(t *testing.T) {
	e := testEngine("http://localhost:0", 50)

	result := e.TranslateAll(context.Background(), nil)
	if result == nil {
		t.Fatal("expected non-nil map")
	}
	if len(result) != 0 {
		t.Errorf("expected empty map, got %v", result)
	}
}

func TestTranslateAll_SingleBatchSuccess(t *testing.T) {
	mapping := map[string]string{"Hello": "مرحبا", "Save": "حفظ"}
	server, log := mockGeminiServer(t, func(model string, call int) (string, int) {
		return mockMappingResponse(mapping), http.StatusOK
	})

	var progress [][2]int
	e := testEngine(server.URL, 50)
	e.onProgress = func(processed, total int) {
		progress = append(progress, [2]int{processed, total})
	}

	result := e.TranslateAll(context.Background(), []string{"Hello", "Save"})

	if len(result) != 2 || result["Hello"] != "مرحبا" || result["Save"] != "حفظ" {
		t.Errorf("unexpected result %v", result)
	}
	if e.WorkingModel() != "model-a" {
		t.Errorf("working model = %q, want model-a", e.WorkingModel())
	}
	if log.count("model-a") != 1 {
		t.Errorf("model-a calls = %d, want 1", log.count("model-a"))
	}
	if len(progress) != 1 || progress[0] != [2]int{2, 2} {
		t.Errorf("unexpected progress %v", progress)
	}
}

func TestTranslateAll_RateLimitRetriesThenCachesModel(t *testing.T) {
	server, log := mockGeminiServer(t, func(model string, call int) (string, int) {
		if model != "model-a" {
			t.Errorf("unexpected call to %s", model)
			return "", http.StatusInternalServerError
		}
		if call <= 2 {
			return rateLimitBody, http.StatusTooManyRequests
		}
		return mockMappingResponse(map[string]string{"x": "y"}), http.StatusOK
	})

	e := testEngine(server.URL, 2)

	// Two batches; the second must go straight to the cached model.
	result := e.TranslateAll(context.Background(), []string{"one", "two", "three"})

	if len(result) != 1 {
		t.Errorf("unexpected result %v", result)
	}
	if e.WorkingModel() != "model-a" {
		t.Errorf("working model = %q, want model-a", e.WorkingModel())
	}
	if got := log.count("model-a"); got != 4 {
		t.Errorf("model-a calls = %d, want 4 (3 for first batch, 1 for second)", got)
	}
	if got := log.count("model-b"); got != 0 {
		t.Errorf("model-b calls = %d, want 0", got)
	}
}

func TestTranslateAll_NonRateLimitAdvancesImmediately(t *testing.T) {
	server, log := mockGeminiServer(t, func(model string, call int) (string, int) {
		if model == "model-a" {
			return `{"error":{"code":500}}`, http.StatusInternalServerError
		}
		return mockMappingResponse(map[string]string{"Hello": "مرحبا"}), http.StatusOK
	})

	e := testEngine(server.URL, 50)
	result := e.TranslateAll(context.Background(), []string{"Hello"})

	if result["Hello"] != "مرحبا" {
		t.Errorf("unexpected result %v", result)
	}
	if got := log.count("model-a"); got != 1 {
		t.Errorf("model-a calls = %d, want 1 (no retries on non-429)", got)
	}
	if got := log.count("model-b"); got != 1 {
		t.Errorf("model-b calls = %d, want 1", got)
	}
	if e.WorkingModel() != "model-b" {
		t.Errorf("working model = %q, want model-b", e.WorkingModel())
	}
}

func TestTranslateAll_AllModelsFailRunContinues(t *testing.T) {
	server, log := mockGeminiServer(t, func(model string, call int) (string, int) {
		if model == "model-a" && call == 2 {
			return mockMappingResponse(map[string]string{"two": "اثنان"}), http.StatusOK
		}
		return `{"error":{"code":503}}`, http.StatusServiceUnavailable
	})

	e := testEngine(server.URL, 1)
	result := e.TranslateAll(context.Background(), []string{"one", "two"})

	// First batch exhausts the chain and yields nothing; the run continues
	// and the second batch succeeds.
	if len(result) != 1 || result["two"] != "اثنان" {
		t.Errorf("unexpected result %v", result)
	}
	if got := log.count("model-a"); got != 2 {
		t.Errorf("model-a calls = %d, want 2", got)
	}
	if got := log.count("model-b"); got != 1 {
		t.Errorf("model-b calls = %d, want 1", got)
	}
	if got := log.count("model-c"); got != 1 {
		t.Errorf("model-c calls = %d, want 1", got)
	}
}

func TestTranslateAll_CachedModelFailureDoesNotFallBack(t *testing.T) {
	server, log := mockGeminiServer(t, func(model string, call int) (string, int) {
		if model != "model-a" {
			return mockMappingResponse(map[string]string{"never": "used"}), http.StatusOK
		}
		if call == 1 {
			return mockMappingResponse(map[string]string{"one": "واحد"}), http.StatusOK
		}
		return `{"error":{"code":500}}`, http.StatusInternalServerError
	})

	e := testEngine(server.URL, 1)
	result := e.TranslateAll(context.Background(), []string{"one", "two"})

	if len(result) != 1 || result["one"] != "واحد" {
		t.Errorf("unexpected result %v", result)
	}
	if got := log.count("model-a"); got != 2 {
		t.Errorf("model-a calls = %d, want 2", got)
	}
	if got := log.count("model-b"); got != 0 {
		t.Errorf("model-b calls = %d, want 0 (no chain fallback for cached model)", got)
	}
}

func TestTryModel_ParseFailureConsumesAttempts(t *testing.T) {
	garbage := func() string {
		resp := generateResponse{
			Candidates: []candidate{
				{Content: candidateContent{Parts: []part{{Text: "this is not a mapping"}}}},
			},
		}
		b, _ := json.Marshal(resp)
		return string(b)
	}()

	server, log := mockGeminiServer(t, func(model string, call int) (string, int) {
		if model == "model-a" {
			return garbage, http.StatusOK
		}
		return mockMappingResponse(map[string]string{"Hello": "مرحبا"}), http.StatusOK
	})

	e := testEngine(server.URL, 50)
	result := e.TranslateAll(context.Background(), []string{"Hello"})

	if result["Hello"] != "مرحبا" {
		t.Errorf("unexpected result %v", result)
	}
	if got := log.count("model-a"); got != DefaultMaxAttempts {
		t.Errorf("model-a calls = %d, want %d (parse failures consume attempts)", got, DefaultMaxAttempts)
	}
	if e.WorkingModel() != "model-b" {
		t.Errorf("working model = %q, want model-b", e.WorkingModel())
	}
}

func TestTryModel_RateLimitExhaustsAttempts(t *testing.T) {
	server, log := mockGeminiServer(t, func(model string, call int) (string, int) {
		if model == "model-a" {
			return rateLimitBody, http.StatusTooManyRequests
		}
		return mockMappingResponse(map[string]string{"Hello": "مرحبا"}), http.StatusOK
	})

	e := testEngine(server.URL, 50)
	result := e.TranslateAll(context.Background(), []string{"Hello"})

	if result["Hello"] != "مرحبا" {
		t.Errorf("unexpected result %v", result)
	}
	if got := log.count("model-a"); got != DefaultMaxAttempts {
		t.Errorf("model-a calls = %d, want %d", got, DefaultMaxAttempts)
	}

	order := log.callOrder()
	if order[len(order)-1] != "model-b" {
		t.Errorf("expected final call to model-b, got order %v", order)
	}
}

func TestRetryWait(t *testing.T) {
	// Production defaults: suggested+5s, capped at 60s, 30s assumed when
	// the body has no hint.
	e := NewEngine(EngineConfig{APIKey: "key", BaseURL: "http://localhost"})

	tests := []struct {
		name string
		body string
		want time.Duration
	}{
		{
			name: "suggested 30s plus buffer",
			body: `{"error":{"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"30s"}]}}`,
			want: 35 * time.Second,
		},
		{
			name: "suggested 60s capped",
			body: `{"error":{"details":[{"retryDelay":"60s"}]}}`,
			want: 60 * time.Second,
		},
		{
			name: "suggested 120s capped",
			body: `{"error":{"details":[{"retryDelay":"120s"}]}}`,
			want: 60 * time.Second,
		},
		{
			name: "no hint falls back to default",
			body: `{"error":{"message":"quota exceeded"}}`,
			want: 35 * time.Second,
		},
		{
			name: "bare numeric hint",
			body: `{"retryDelay": 10}`,
			want: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.retryWait([]byte(tt.body)); got != tt.want {
				t.Errorf("retryWait = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslateAll_PausesBetweenBatches(t *testing.T) {
	server, _ := mockGeminiServer(t, func(model string, call int) (string, int) {
		return mockMappingResponse(map[string]string{"x": "y"}), http.StatusOK
	})

	e := testEngine(server.URL, 1)
	e.batchPause = 30 * time.Millisecond

	start := time.Now()
	e.TranslateAll(context.Background(), []string{"one", "two", "three"})
	elapsed := time.Since(start)

	// Two pauses for three batches; none after the last.
	if elapsed < 60*time.Millisecond {
		t.Errorf("elapsed %v, expected at least two 30ms pauses", elapsed)
	}
}
