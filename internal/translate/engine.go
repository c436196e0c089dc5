// Package translate produces string-to-string translation mappings in
// batches, falling back across a chain of Gemini models and tolerating
// partial failure per batch.
package translate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rtl-converter/internal/logger"
	"rtl-converter/internal/types"
)

// DefaultBatchSize is the maximum number of strings sent in one request.
const DefaultBatchSize = 50

// DefaultMaxAttempts is the number of request rounds allowed per model
// for a single batch.
const DefaultMaxAttempts = 3

// DefaultRetryDelay is the assumed wait when a rate-limited response
// carries no usable retry hint.
const DefaultRetryDelay = 30 * time.Second

// DefaultRetryBuffer is added on top of the server-suggested retry delay.
const DefaultRetryBuffer = 5 * time.Second

// DefaultMaxRetryDelay caps the wait between rate-limit retries.
const DefaultMaxRetryDelay = 60 * time.Second

// DefaultBatchPause is the pause between consecutive batches.
const DefaultBatchPause = 2 * time.Second

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 90 * time.Second

// DefaultModels is the model fallback chain, tried in order until one
// produces a usable mapping.
var DefaultModels = []string{
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash",
	"gemini-1.5-pro",
}

// ProgressCallback receives the number of strings processed so far and
// the total, after every batch.
type ProgressCallback func(processed, total int)

// LogCallback receives engine log lines for forwarding to a UI.
type LogCallback func(level, message string)

// EngineConfig holds configuration options for creating an Engine.
// Zero values fall back to the package defaults.
type EngineConfig struct {
	APIKey         string
	BaseURL        string
	TargetLanguage string
	Models         []string
	BatchSize      int
	MaxAttempts    int
	RetryDelay     time.Duration
	RetryBuffer    time.Duration
	MaxRetryDelay  time.Duration
	BatchPause     time.Duration
	Timeout        time.Duration
	OnProgress     ProgressCallback
	OnLog          LogCallback
}

// Engine translates batches of strings, remembering the last model that
// succeeded and trying it alone for subsequent batches.
type Engine struct {
	apiKey         string
	baseURL        string
	targetLanguage string
	models         []string
	batchSize      int
	maxAttempts    int
	retryDelay     time.Duration
	retryBuffer    time.Duration
	maxRetryDelay  time.Duration
	batchPause     time.Duration
	onProgress     ProgressCallback
	onLog          LogCallback
	client         *http.Client
	workingModel   string
}

// NewEngine creates an Engine with the given configuration.
func NewEngine(cfg EngineConfig) *Engine {
	models := cfg.Models
	if len(models) == 0 {
		models = DefaultModels
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	retryBuffer := cfg.RetryBuffer
	if retryBuffer <= 0 {
		retryBuffer = DefaultRetryBuffer
	}

	maxRetryDelay := cfg.MaxRetryDelay
	if maxRetryDelay <= 0 {
		maxRetryDelay = DefaultMaxRetryDelay
	}

	batchPause := cfg.BatchPause
	if batchPause <= 0 {
		batchPause = DefaultBatchPause
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Engine{
		apiKey:         cfg.APIKey,
		baseURL:        cfg.BaseURL,
		targetLanguage: cfg.TargetLanguage,
		models:         models,
		batchSize:      batchSize,
		maxAttempts:    maxAttempts,
		retryDelay:     retryDelay,
		retryBuffer:    retryBuffer,
		maxRetryDelay:  maxRetryDelay,
		batchPause:     batchPause,
		onProgress:     cfg.OnProgress,
		onLog:          cfg.OnLog,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// WorkingModel returns the identifier of the last model that produced a
// usable mapping, or empty before any success.
func (e *Engine) WorkingModel() string {
	return e.workingModel
}

// TranslateAll translates texts into the engine's target language and
// returns whatever mapping it could produce. Batches that fail for every
// candidate model are logged and skipped; translation failure is never
// fatal for the run.
func (e *Engine) TranslateAll(ctx context.Context, texts []string) map[string]string {
	translations := make(map[string]string)
	if len(texts) == 0 {
		return translations
	}

	batches := splitBatches(texts, e.batchSize)

	logger.Info("starting translation",
		logger.Int("strings", len(texts)),
		logger.Int("batches", len(batches)),
		logger.String("targetLanguage", e.targetLanguage))
	e.logf("info", fmt.Sprintf("translating %d strings in %d batches", len(texts), len(batches)))

	processed := 0
	for i, batch := range batches {
		pairs, err := e.translateBatch(ctx, batch)
		if err != nil {
			logger.Warn("batch translation failed",
				logger.Int("batch", i+1),
				logger.Int("batches", len(batches)),
				logger.Err(err))
			e.logf("warn", fmt.Sprintf("batch %d/%d failed: %v", i+1, len(batches), err))
		} else {
			for k, v := range pairs {
				translations[k] = v
			}
		}

		processed += len(batch)
		if e.onProgress != nil {
			e.onProgress(processed, len(texts))
		}

		if i < len(batches)-1 {
			if err := sleepCtx(ctx, e.batchPause); err != nil {
				logger.Warn("translation interrupted", logger.Err(err))
				return translations
			}
		}
	}

	logger.Info("translation finished",
		logger.Int("translated", len(translations)),
		logger.Int("requested", len(texts)))
	e.logf("info", fmt.Sprintf("translated %d of %d strings", len(translations), len(texts)))

	return translations
}

// translateBatch runs one batch through the candidate models. Once a
// model has succeeded it becomes the only candidate for later batches;
// if it then fails the batch fails without falling back to the chain.
func (e *Engine) translateBatch(ctx context.Context, batch []string) (map[string]string, error) {
	candidates := e.models
	if e.workingModel != "" {
		candidates = []string{e.workingModel}
	}

	var lastErr error
	for _, model := range candidates {
		pairs, err := e.tryModel(ctx, model, batch)
		if err != nil {
			lastErr = err
			logger.Warn("model failed for batch",
				logger.String("model", model),
				logger.Err(err))
			e.logf("warn", fmt.Sprintf("model %s failed: %v", model, err))
			continue
		}

		e.workingModel = model
		return pairs, nil
	}

	return nil, lastErr
}

// tryModel runs up to maxAttempts request rounds against a single model.
// Rate limits wait and retry; any other transport or HTTP failure
// abandons the model immediately. A success whose payload cannot be
// parsed as a mapping consumes an attempt and retries without waiting.
func (e *Engine) tryModel(ctx context.Context, model string, batch []string) (map[string]string, error) {
	prompt := BuildPrompt(batch, e.targetLanguage)

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		status, body, err := e.callModel(ctx, model, prompt)
		if err != nil {
			return nil, err
		}

		if status == http.StatusTooManyRequests {
			if attempt == e.maxAttempts {
				return nil, types.NewAppError(types.ErrAPIRateLimit,
					fmt.Sprintf("model %s still rate limited after %d attempts", model, e.maxAttempts), nil)
			}
			wait := e.retryWait(body)
			logger.Info("rate limited, waiting before retry",
				logger.String("model", model),
				logger.Int("attempt", attempt),
				logger.String("wait", wait.String()))
			e.logf("info", fmt.Sprintf("model %s rate limited, retrying in %s", model, wait))
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if status != http.StatusOK {
			return nil, types.NewAppErrorWithDetails(types.ErrAPICall,
				fmt.Sprintf("model %s returned status %d", model, status),
				truncate(string(body), 200), nil)
		}

		text, err := extractCandidateText(body)
		if err != nil {
			lastErr = err
			logger.Debug("response carries no candidate text",
				logger.String("model", model),
				logger.Int("attempt", attempt))
			continue
		}

		pairs, err := ParseMapping(text)
		if err != nil {
			lastErr = err
			logger.Debug("candidate text is not a translation mapping",
				logger.String("model", model),
				logger.Int("attempt", attempt))
			e.logf("warn", fmt.Sprintf("model %s attempt %d returned an unparseable mapping", model, attempt))
			continue
		}

		return pairs, nil
	}

	if lastErr == nil {
		lastErr = types.NewAppError(types.ErrAPIResponse,
			fmt.Sprintf("model %s produced no usable response", model), nil)
	}
	return nil, lastErr
}

// retryWait computes the pause before retrying a rate-limited model: the
// server-suggested delay (or the default when absent) plus a buffer,
// capped at the maximum.
func (e *Engine) retryWait(body []byte) time.Duration {
	wait := e.retryDelay
	if seconds, ok := parseRetryDelay(body); ok {
		wait = time.Duration(seconds) * time.Second
	}
	wait += e.retryBuffer
	if wait > e.maxRetryDelay {
		wait = e.maxRetryDelay
	}
	return wait
}

func (e *Engine) logf(level, message string) {
	if e.onLog != nil {
		e.onLog(level, message)
	}
}

// splitBatches partitions texts into contiguous batches of at most size
// elements each.
func splitBatches(texts []string, size int) [][]string {
	if len(texts) == 0 {
		return nil
	}

	var batches [][]string
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, texts[start:end])
	}
	return batches
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
