package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"rtl-converter/internal/apply"
	"rtl-converter/internal/config"
	"rtl-converter/internal/document"
	"rtl-converter/internal/fonts"
	"rtl-converter/internal/logger"
	"rtl-converter/internal/mirror"
	"rtl-converter/internal/results"
	"rtl-converter/internal/settings"
	"rtl-converter/internal/translate"
	"rtl-converter/internal/types"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Event names for frontend communication
const (
	EventScanResult = "scan-result"
	EventProgress   = "progress"
	EventLog        = "log"
	EventDone       = "done"
	EventError      = "error"
)

// Progress milestones of the conversion pipeline. Translation owns the
// 0-40 range; each later pass advances to a fixed mark.
const (
	progressFontsLoaded = 42
	progressApplied     = 70
	progressFlow        = 80
	progressFixed       = 90
	progressSaved       = 95
	progressDone        = 100
)

// StatusCallback is a function type for status update callbacks.
// It is called whenever the processing status changes.
type StatusCallback func(status *types.Status)

// App is the main Wails application controller. It owns the loaded
// document and runs the conversion pipeline over it.
type App struct {
	ctx      context.Context
	config   *config.ConfigManager
	settings *settings.Manager
	results  *results.Manager

	// Loaded document state
	doc     *document.Document
	docPath string

	// catalog overrides the font directory scan when set. Tests and the
	// --assume-fonts CLI mode inject one here.
	catalog fonts.Catalog

	// Status tracking
	status         *types.Status
	statusMu       sync.RWMutex
	statusCallback StatusCallback

	// isWailsRuntime indicates if the app is running in a Wails environment.
	// This is used to safely skip EventsEmit calls during tests.
	isWailsRuntime bool
}

// NewApp creates a new App application struct.
func NewApp() *App {
	return &App{
		status: &types.Status{
			Phase:    types.PhaseIdle,
			Progress: 0,
			Message:  "",
		},
	}
}

// NewAppWithConfig creates a new App with a custom config path.
// This is useful for testing or when a specific configuration location is needed.
func NewAppWithConfig(configPath string) (*App, error) {
	app := NewApp()

	configMgr, err := config.NewConfigManager(configPath)
	if err != nil {
		return nil, err
	}
	app.config = configMgr

	return app, nil
}

// safeEmit safely emits an event to the frontend.
// It only emits events when running in a Wails environment.
func (a *App) safeEmit(eventName string, data ...interface{}) {
	if !a.isWailsRuntime {
		logger.Debug("event emit skipped (not in Wails runtime)",
			logger.String("event", eventName))
		return
	}
	runtime.EventsEmit(a.ctx, eventName, data...)
}

// SetWailsRuntime sets the Wails runtime flag.
// This should be called from main.go when the app is started in Wails mode.
func (a *App) SetWailsRuntime(isWails bool) {
	a.isWailsRuntime = isWails
}

// startup is called when the app starts. The context is saved so we can
// call the runtime methods. It initializes the config, settings and
// history stores.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	logger.Info("application starting up")

	if a.config == nil {
		configMgr, err := config.NewConfigManager("")
		if err != nil {
			logger.Error("failed to create config manager", err)
			return
		}
		a.config = configMgr
	}

	if err := a.config.Load(); err != nil {
		// Continue with defaults if config load fails
		logger.Warn("failed to load config, using defaults", logger.Err(err))
	}

	if a.settings == nil {
		mgr, err := settings.NewManager()
		if err != nil {
			logger.Warn("failed to initialize local settings", logger.Err(err))
		} else {
			a.settings = mgr
		}
	}

	if a.results == nil {
		mgr, err := results.NewManager()
		if err != nil {
			logger.Warn("failed to initialize conversion history", logger.Err(err))
		} else {
			a.results = mgr
		}
	}

	logger.Info("application ready",
		logger.Bool("hasAPIKey", a.config.GetAPIKey() != ""),
		logger.String("targetLanguage", a.config.GetTargetLanguage()),
		logger.String("fontFamily", a.config.GetFontFamily()))
}

// shutdown is called when the app terminates.
func (a *App) shutdown(ctx context.Context) {
	logger.Info("application shutting down")
}

// SetStatusCallback sets the callback function for status updates.
func (a *App) SetStatusCallback(callback StatusCallback) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	a.statusCallback = callback
}

// GetStatus returns the current processing status.
// This method is thread-safe.
func (a *App) GetStatus() *types.Status {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()

	// Return a copy to prevent external modification
	return &types.Status{
		Phase:    a.status.Phase,
		Progress: a.status.Progress,
		Message:  a.status.Message,
		Error:    a.status.Error,
	}
}

// IsProcessing returns true if a conversion is currently in progress.
// This method is thread-safe.
func (a *App) IsProcessing() bool {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()

	switch a.status.Phase {
	case types.PhaseIdle, types.PhaseComplete, types.PhaseError:
		return false
	default:
		return true
	}
}

// updateStatus updates the current status, notifies the callback and
// emits a progress event.
func (a *App) updateStatus(phase types.ProcessPhase, progress int, message string) {
	a.statusMu.Lock()
	a.status.Phase = phase
	a.status.Progress = progress
	a.status.Message = message
	a.status.Error = ""

	callback := a.statusCallback
	statusCopy := &types.Status{
		Phase:    a.status.Phase,
		Progress: a.status.Progress,
		Message:  a.status.Message,
		Error:    a.status.Error,
	}
	a.statusMu.Unlock()

	// Call callback outside of lock to prevent deadlocks
	if callback != nil {
		callback(statusCopy)
	}
	a.safeEmit(EventProgress, statusCopy)
}

// updateStatusError updates the status with an error.
func (a *App) updateStatusError(errorMsg string) {
	a.statusMu.Lock()
	a.status.Phase = types.PhaseError
	a.status.Error = errorMsg

	callback := a.statusCallback
	statusCopy := &types.Status{
		Phase:    a.status.Phase,
		Progress: a.status.Progress,
		Message:  a.status.Message,
		Error:    a.status.Error,
	}
	a.statusMu.Unlock()

	// Call callback outside of lock to prevent deadlocks
	if callback != nil {
		callback(statusCopy)
	}
	a.safeEmit(EventProgress, statusCopy)
}

// GetConfig returns the current application configuration.
func (a *App) GetConfig() *types.Config {
	if a.config == nil {
		return &types.Config{}
	}
	return a.config.GetConfig()
}

// SaveConfig replaces the application configuration and persists it.
func (a *App) SaveConfig(cfg *types.Config) error {
	if a.config == nil {
		return types.NewAppError(types.ErrConfig, "configuration not initialized", nil)
	}
	if cfg == nil {
		return types.NewAppError(types.ErrInvalidInput, "configuration must not be nil", nil)
	}
	a.config.SetConfig(cfg)
	return a.config.Save()
}

// SaveAPIKey stores the Gemini API key in the config file.
func (a *App) SaveAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return types.NewAppError(types.ErrInvalidInput, "API key must not be empty", nil)
	}
	if a.config == nil {
		return types.NewAppError(types.ErrConfig, "configuration not initialized", nil)
	}
	return a.config.SetAPIKey(key)
}

// HasAPIKey reports whether a Gemini API key is available from the
// config file or the environment.
func (a *App) HasAPIKey() bool {
	return a.config != nil && a.config.GetAPIKey() != ""
}

// OpenDocumentDialog opens a file selection dialog for design documents.
// Returns the selected file path or empty string if cancelled.
func (a *App) OpenDocumentDialog() string {
	if !a.isWailsRuntime {
		return ""
	}
	logger.Debug("opening document dialog")
	selection, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Select design document",
		Filters: []runtime.FileFilter{
			{
				DisplayName: "Design documents (*.json)",
				Pattern:     "*.json",
			},
			{
				DisplayName: "All files (*.*)",
				Pattern:     "*.*",
			},
		},
	})
	if err != nil {
		logger.Error("file dialog error", err)
		return ""
	}
	logger.Debug("document selected", logger.String("path", selection))
	return selection
}

// LoadDocument loads a design document from disk, remembers it as the
// current document and returns its scan summary.
func (a *App) LoadDocument(path string) (*types.ScanResult, error) {
	logger.Info("loading document", logger.String("path", path))

	doc, err := document.Load(path)
	if err != nil {
		logger.Error("failed to load document", err, logger.String("path", path))
		return nil, err
	}

	a.doc = doc
	a.docPath = path

	if a.settings != nil {
		if err := a.settings.SetLastDocument(path); err != nil {
			logger.Warn("failed to remember last document", logger.Err(err))
		}
	}

	result := a.scanCurrent()
	logger.Info("document loaded",
		logger.String("page", result.PageName),
		logger.Int("textNodes", result.TextNodeCount),
		logger.Int("uniqueTexts", result.UniqueTexts))
	a.safeEmit(EventScanResult, result)
	return result, nil
}

// Scan re-scans the currently loaded document and returns its summary.
func (a *App) Scan() (*types.ScanResult, error) {
	if a.doc == nil || a.doc.Page == nil {
		return nil, types.NewAppError(types.ErrInvalidInput, "no document loaded", nil)
	}
	result := a.scanCurrent()
	a.safeEmit(EventScanResult, result)
	return result, nil
}

func (a *App) scanCurrent() *types.ScanResult {
	page := a.doc.Page
	texts := document.CollectTexts(page)
	frames := document.FindAll(page, func(n *document.Node) bool {
		return n.Type == document.NodeTypeFrame
	})
	textNodes := document.FindAll(page, func(n *document.Node) bool {
		return n.Type == document.NodeTypeText
	})

	return &types.ScanResult{
		PageName:      page.Name,
		FrameCount:    len(frames),
		TextNodeCount: len(textNodes),
		UniqueTexts:   len(texts),
		Texts:         texts,
	}
}

// Convert runs the full conversion pipeline over the loaded document:
// translate, load fonts, apply text, mirror layout, save. The output is
// written next to the input document with an ".rtl.json" extension.
//
// Partial translation failures are tolerated; only an empty font
// resolver, an unwritable output file or an unexpected panic abort the
// run. Mutations made before an abort remain in memory.
func (a *App) Convert(req *types.ConvertRequest) (result *types.ConvertResult, err error) {
	if a.IsProcessing() {
		logger.Warn("Convert called while already processing, ignoring duplicate call")
		return nil, types.NewAppError(types.ErrInternal, "a conversion is already running", nil)
	}
	if req == nil {
		return nil, types.NewAppError(types.ErrInvalidInput, "conversion request must not be nil", nil)
	}
	if a.doc == nil || a.doc.Page == nil {
		return nil, types.NewAppError(types.ErrInvalidInput, "no document loaded", nil)
	}
	if a.config == nil {
		return nil, types.NewAppError(types.ErrConfig, "configuration not initialized", nil)
	}

	language := req.TargetLanguage
	if language == "" {
		language = a.config.GetTargetLanguage()
	}
	family := req.FontFamily
	if family == "" {
		family = a.config.GetFontFamily()
	}
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = a.config.GetAPIKey()
	}
	if apiKey == "" {
		return nil, types.NewAppError(types.ErrConfig, "no Gemini API key configured", nil)
	}

	texts := req.Texts
	if len(texts) == 0 {
		texts = document.CollectTexts(a.doc.Page)
	}
	if len(texts) == 0 {
		return nil, types.NewAppError(types.ErrInvalidInput, "document contains no text to convert", nil)
	}

	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			appErr := types.NewAppError(types.ErrInternal,
				fmt.Sprintf("conversion failed unexpectedly: %v", r), nil)
			logger.Error("conversion panicked", appErr)
			a.failConversion(language, family, started, appErr)
			result, err = nil, appErr
		}
	}()

	logger.Info("starting conversion",
		logger.String("document", a.docPath),
		logger.String("targetLanguage", language),
		logger.String("fontFamily", family),
		logger.Int("texts", len(texts)))

	// Step 1: translate all unique strings (0-40%)
	a.updateStatus(types.PhaseTranslating, 0, fmt.Sprintf("translating %d strings", len(texts)))

	engine := translate.NewEngine(translate.EngineConfig{
		APIKey:         apiKey,
		BaseURL:        a.config.GetBaseURL(),
		TargetLanguage: language,
		OnProgress: func(processed, total int) {
			if total > 0 {
				a.updateStatus(types.PhaseTranslating, processed*40/total,
					fmt.Sprintf("translated %d of %d strings", processed, total))
			}
		},
		OnLog: func(level, message string) {
			a.safeEmit(EventLog, map[string]string{"level": level, "message": message})
		},
	})

	translations := engine.TranslateAll(a.runCtx(), texts)

	translated := 0
	for _, text := range texts {
		if _, ok := translations[text]; ok {
			translated++
		}
	}
	logger.Info("translation finished",
		logger.Int("translated", translated),
		logger.Int("total", len(texts)),
		logger.String("workingModel", engine.WorkingModel()))

	// Step 2: load the target font variants
	a.updateStatus(types.PhaseFonts, 40, fmt.Sprintf("loading %s variants", family))

	catalog := a.catalog
	if catalog == nil {
		catalog = fonts.NewDirCatalog(a.config.GetFontDirs())
	}
	resolver := fonts.LoadVariants(catalog, family)
	if resolver.Empty() {
		appErr := types.NewAppError(types.ErrFont,
			fmt.Sprintf("no loadable variants of font family %q", family), nil)
		logger.Error("font loading failed", appErr, logger.String("family", family))
		a.failConversion(language, family, started, appErr)
		return nil, appErr
	}
	a.updateStatus(types.PhaseFonts, progressFontsLoaded,
		fmt.Sprintf("loaded variants: %s", strings.Join(resolver.Loaded(), ", ")))

	// Step 3: rewrite text nodes
	applied := apply.New(translations, resolver, catalog).Run(a.doc.Page)
	a.updateStatus(types.PhaseApplying, progressApplied,
		fmt.Sprintf("updated %d text nodes", applied))

	// Step 4: mirror the layout tree
	flowReversed := mirror.Flow(a.doc.Page)
	a.updateStatus(types.PhaseMirroring, progressFlow,
		fmt.Sprintf("reversed %d flow containers", flowReversed))

	fixedMoved := mirror.Fixed(a.doc.Page)
	a.updateStatus(types.PhaseMirroring, progressFixed,
		fmt.Sprintf("repositioned %d fixed children", fixedMoved))

	// Step 5: write the output document
	outPath := outputPath(a.docPath)
	if saveErr := a.doc.Save(outPath); saveErr != nil {
		logger.Error("failed to save output document", saveErr, logger.String("path", outPath))
		a.failConversion(language, family, started, saveErr)
		return nil, saveErr
	}
	a.updateStatus(types.PhaseSaving, progressSaved,
		fmt.Sprintf("saved %s", filepath.Base(outPath)))

	result = &types.ConvertResult{
		Translated:    translated,
		TotalTexts:    len(texts),
		Applied:       applied,
		FlowReversed:  flowReversed,
		FixedMoved:    fixedMoved,
		OutputPath:    outPath,
		DurationMilli: time.Since(started).Milliseconds(),
	}

	a.recordHistory(language, family, result, started, nil)
	if a.settings != nil {
		if err := a.settings.SetLastConversion(language, family); err != nil {
			logger.Warn("failed to remember conversion defaults", logger.Err(err))
		}
	}

	a.updateStatus(types.PhaseComplete, progressDone, "conversion complete")
	a.safeEmit(EventDone, result)
	logger.Info("conversion complete",
		logger.Int("applied", result.Applied),
		logger.Int("flowReversed", result.FlowReversed),
		logger.Int("fixedMoved", result.FixedMoved),
		logger.String("output", result.OutputPath))

	return result, nil
}

// failConversion reports a fatal pipeline error to the UI and the
// history store.
func (a *App) failConversion(language, family string, started time.Time, convErr error) {
	a.updateStatusError(convErr.Error())
	a.safeEmit(EventError, convErr.Error())
	a.recordHistory(language, family, nil, started, convErr)
}

// recordHistory appends a conversion record, filling in the error state
// when the run failed.
func (a *App) recordHistory(language, family string, res *types.ConvertResult, started time.Time, convErr error) {
	if a.results == nil {
		return
	}

	rec := results.Record{
		Document:       filepath.Base(a.docPath),
		TargetLanguage: language,
		FontFamily:     family,
		ConvertedAt:    started,
		Status:         results.StatusComplete,
		DurationMilli:  time.Since(started).Milliseconds(),
	}
	if a.doc != nil && a.doc.Page != nil {
		rec.PageName = a.doc.Page.Name
	}
	if convErr != nil {
		rec.Status = results.StatusError
		rec.ErrorMessage = convErr.Error()
	}
	if res != nil {
		rec.Translated = res.Translated
		rec.TotalTexts = res.TotalTexts
		rec.Applied = res.Applied
		rec.FlowReversed = res.FlowReversed
		rec.FixedMoved = res.FixedMoved
		rec.OutputPath = res.OutputPath
		rec.DurationMilli = res.DurationMilli
	}

	if err := a.results.Add(rec); err != nil {
		logger.Warn("failed to record conversion history", logger.Err(err))
	}
}

// GetRecentConversions returns the conversion history, newest first.
func (a *App) GetRecentConversions() []results.Record {
	if a.results == nil {
		return []results.Record{}
	}
	return a.results.List()
}

// UIDefaults seeds the frontend form with stored values on startup.
type UIDefaults struct {
	TargetLanguage string `json:"target_language"`
	FontFamily     string `json:"font_family"`
	LastDocument   string `json:"last_document"`
	HasAPIKey      bool   `json:"has_api_key"`
}

// GetUIDefaults returns the values the frontend form starts with: the
// configured language and family, overridden by the last-used values
// when present.
func (a *App) GetUIDefaults() *UIDefaults {
	defaults := &UIDefaults{
		TargetLanguage: config.DefaultTargetLanguage,
		FontFamily:     config.DefaultFontFamily,
	}
	if a.config != nil {
		defaults.TargetLanguage = a.config.GetTargetLanguage()
		defaults.FontFamily = a.config.GetFontFamily()
		defaults.HasAPIKey = a.config.GetAPIKey() != ""
	}
	if a.settings != nil {
		local := a.settings.Get()
		if local.LastTargetLanguage != "" {
			defaults.TargetLanguage = local.LastTargetLanguage
		}
		if local.LastFontFamily != "" {
			defaults.FontFamily = local.LastFontFamily
		}
		defaults.LastDocument = local.LastDocument
	}
	return defaults
}

// runCtx returns the runtime context, or a background context when the
// app runs outside Wails.
func (a *App) runCtx() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}

// outputPath derives the output file for a converted document: the
// input path with its extension replaced by ".rtl.json".
func outputPath(docPath string) string {
	ext := filepath.Ext(docPath)
	return strings.TrimSuffix(docPath, ext) + ".rtl.json"
}
