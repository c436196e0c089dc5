// rtlconv is the headless RTL document converter for scripted use.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"rtl-converter/internal/apply"
	"rtl-converter/internal/config"
	"rtl-converter/internal/document"
	"rtl-converter/internal/fonts"
	"rtl-converter/internal/logger"
	"rtl-converter/internal/mirror"
	"rtl-converter/internal/translate"

	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rtlconv",
		Short: "Convert design documents from LTR to RTL",
		Long: `rtlconv converts design documents from left-to-right to right-to-left.

Translates all text content via the Gemini API, re-applies the text with an
RTL font and right alignment, and mirrors the layout tree. The converted
document is written next to the input with an .rtl.json extension.

Commands:
  scan      Show document statistics without converting
  convert   Run the full conversion pipeline
  fonts     List font families and styles visible to the converter

The Gemini API key is read from --api-key, the GEMINI_API_KEY environment
variable, or the config file, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newScanCmd(),
		newConvertCmd(),
		newFontsCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	logger.Init(&logger.Config{
		LogFilePath: "rtlconv.log",
		Level:       logger.LevelWarn,
	})
	defer logger.Close()

	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rtlconv version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// scan (read-only: document statistics)
// ---------------------------------------------------------------------------

func newScanCmd() *cobra.Command {
	var showTexts bool

	cmd := &cobra.Command{
		Use:   "scan <document.json>",
		Short: "Show document statistics without converting",
		Long: `Load a design document and print its page name, frame count, text node
count and the number of unique translatable strings. Does not modify any
files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(args[0], showTexts)
		},
	}

	cmd.Flags().BoolVar(&showTexts, "texts", false, "Also print every unique string")

	return cmd
}

func runScan(path string, showTexts bool) error {
	doc, err := document.Load(path)
	if err != nil {
		return err
	}

	texts := document.CollectTexts(doc.Page)
	frames := document.FindAll(doc.Page, func(n *document.Node) bool {
		return n.Type == document.NodeTypeFrame
	})
	textNodes := document.FindAll(doc.Page, func(n *document.Node) bool {
		return n.Type == document.NodeTypeText
	})

	fmt.Printf("Page:           %s\n", doc.Page.Name)
	fmt.Printf("Frames:         %d\n", len(frames))
	fmt.Printf("Text nodes:     %d\n", len(textNodes))
	fmt.Printf("Unique strings: %d\n", len(texts))

	if showTexts {
		fmt.Println()
		for i, text := range texts {
			fmt.Printf("%4d  %s\n", i+1, text)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// convert (full pipeline)
// ---------------------------------------------------------------------------

func newConvertCmd() *cobra.Command {
	var (
		apiKey      string
		lang        string
		family      string
		output      string
		fontDirs    string
		models      string
		assumeFonts bool
	)

	cmd := &cobra.Command{
		Use:   "convert <document.json>",
		Short: "Run the full conversion pipeline",
		Long: `Translate, restyle and mirror a design document.

Examples:
  # Convert with defaults (Arabic, Noto Sans Arabic)
  rtlconv convert landing-page.json

  # Hebrew with a specific font, key from the environment
  rtlconv convert app.json --lang he --family Rubik

  # Machine without font files installed
  rtlconv convert app.json --assume-fonts

  # Restrict the model chain
  rtlconv convert app.json --models gemini-2.5-flash`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(convertArgs{
				docPath: args[0],
				apiKey:  apiKey, lang: lang, family: family,
				output: output, fontDirs: fontDirs, models: models,
				assumeFonts: assumeFonts,
			})
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key (or GEMINI_API_KEY env var, or config file)")
	cmd.Flags().StringVar(&lang, "lang", "", "Target language code (default: configured value, ar)")
	cmd.Flags().StringVar(&family, "family", "", "Font family applied to translated text (default: configured value)")
	cmd.Flags().StringVar(&output, "out", "", "Output file path (default: <input>.rtl.json)")
	cmd.Flags().StringVar(&fontDirs, "font-dirs", "", "Font directories to scan (comma-separated, default: platform directories)")
	cmd.Flags().StringVar(&models, "models", "", "Model chain to try in order (comma-separated)")
	cmd.Flags().BoolVar(&assumeFonts, "assume-fonts", false, "Treat every font as available instead of scanning font directories")

	return cmd
}

type convertArgs struct {
	docPath, apiKey, lang, family string
	output, fontDirs, models      string
	assumeFonts                   bool
}

func runConvert(a convertArgs) error {
	configMgr, err := config.NewConfigManager("")
	if err != nil {
		return err
	}
	if err := configMgr.Load(); err != nil {
		logWarning("Failed to load config, using defaults: %v", err)
	}

	// Resolve settings from flag, environment, then config file
	key := a.apiKey
	if key == "" {
		key = os.Getenv(config.EnvGeminiAPIKey)
	}
	if key == "" {
		key = configMgr.GetAPIKey()
	}
	if key == "" {
		logError("No Gemini API key found.\n\n"+
			"Provide one with --api-key, the %s environment variable,\n"+
			"or the config file at %s", config.EnvGeminiAPIKey, configMgr.GetConfigPath())
		os.Exit(1)
	}

	lang := a.lang
	if lang == "" {
		lang = configMgr.GetTargetLanguage()
	}
	family := a.family
	if family == "" {
		family = configMgr.GetFontFamily()
	}

	doc, err := document.Load(a.docPath)
	if err != nil {
		return err
	}
	texts := document.CollectTexts(doc.Page)
	if len(texts) == 0 {
		return fmt.Errorf("document contains no text to convert")
	}

	logInfo("Page: %s, %d unique strings", doc.Page.Name, len(texts))
	logInfo("Target: %s, font family: %s", lang, family)

	// Setup signal handling for graceful cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, abandoning conversion...")
		cancel()
	}()

	// Translate
	engineCfg := translate.EngineConfig{
		APIKey:         key,
		BaseURL:        configMgr.GetBaseURL(),
		TargetLanguage: lang,
		OnProgress: func(processed, total int) {
			logInfo("  translated %d/%d", processed, total)
		},
		OnLog: func(level, message string) {
			if level == "warn" || level == "error" {
				logWarning("%s", message)
			}
		},
	}
	if a.models != "" {
		engineCfg.Models = strings.Split(a.models, ",")
	}

	started := time.Now()
	engine := translate.NewEngine(engineCfg)
	translations := engine.TranslateAll(ctx, texts)
	if ctx.Err() != nil {
		logWarning("Conversion cancelled, no output written")
		os.Exit(1)
	}

	translated := 0
	for _, text := range texts {
		if _, ok := translations[text]; ok {
			translated++
		}
	}
	if translated < len(texts) {
		logWarning("Translated %d/%d strings, the rest keep their original text", translated, len(texts))
	} else {
		logSuccess("Translated %d/%d strings (model: %s)", translated, len(texts), engine.WorkingModel())
	}

	// Fonts
	var catalog fonts.Catalog
	if a.assumeFonts {
		catalog = fonts.AssumeAllCatalog{}
	} else if a.fontDirs != "" {
		catalog = fonts.NewDirCatalog(strings.Split(a.fontDirs, ","))
	} else {
		catalog = fonts.NewDirCatalog(configMgr.GetFontDirs())
	}

	resolver := fonts.LoadVariants(catalog, family)
	if resolver.Empty() {
		logError("No loadable variants of font family %q.\n"+
			"Install the family, point --font-dirs at it, or pass --assume-fonts.", family)
		os.Exit(1)
	}
	logInfo("Font variants: %s", strings.Join(resolver.Loaded(), ", "))

	// Apply and mirror
	applied := apply.New(translations, resolver, catalog).Run(doc.Page)
	flowReversed := mirror.Flow(doc.Page)
	fixedMoved := mirror.Fixed(doc.Page)

	// Save
	outPath := a.output
	if outPath == "" {
		outPath = strings.TrimSuffix(a.docPath, ".json") + ".rtl.json"
	}
	if err := doc.Save(outPath); err != nil {
		return err
	}

	logSuccess("Updated %d text nodes, reversed %d containers, moved %d fixed children",
		applied, flowReversed, fixedMoved)
	logSuccess("Wrote %s in %v", outPath, time.Since(started).Round(time.Millisecond))

	return nil
}

// ---------------------------------------------------------------------------
// fonts (catalog inspection)
// ---------------------------------------------------------------------------

func newFontsCmd() *cobra.Command {
	var fontDirs string

	cmd := &cobra.Command{
		Use:   "fonts [family]",
		Short: "List font families and styles visible to the converter",
		Long: `Without arguments, list every font family found in the font directories.
With a family name, list its indexed styles and which of the conversion
variants (Regular, Bold, Medium, SemiBold, Light) resolve.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family := ""
			if len(args) == 1 {
				family = args[0]
			}
			return runFonts(family, fontDirs)
		},
	}

	cmd.Flags().StringVar(&fontDirs, "font-dirs", "", "Font directories to scan (comma-separated, default: platform directories)")

	return cmd
}

func runFonts(family, fontDirs string) error {
	var dirs []string
	if fontDirs != "" {
		dirs = strings.Split(fontDirs, ",")
	} else {
		configMgr, err := config.NewConfigManager("")
		if err == nil {
			if loadErr := configMgr.Load(); loadErr != nil {
				logWarning("Failed to load config: %v", loadErr)
			}
			dirs = configMgr.GetFontDirs()
		} else {
			dirs = config.DefaultFontDirs()
		}
	}

	catalog := fonts.NewDirCatalog(dirs)

	if family == "" {
		families := catalog.Families()
		if len(families) == 0 {
			logWarning("No fonts found under: %s", strings.Join(dirs, ", "))
			return nil
		}
		for _, name := range families {
			fmt.Println(name)
		}
		logInfo("%d families", len(families))
		return nil
	}

	styles := catalog.Styles(family)
	if len(styles) == 0 {
		logError("Font family not found: %s", family)
		os.Exit(1)
	}

	fmt.Printf("Indexed styles of %s:\n", family)
	for _, style := range styles {
		fmt.Printf("  %s\n", style)
	}

	resolver := fonts.LoadVariants(catalog, family)
	fmt.Printf("Conversion variants: %s\n", strings.Join(resolver.Loaded(), ", "))

	return nil
}
