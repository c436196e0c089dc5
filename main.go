package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"os"
	"time"

	"rtl-converter/internal/fonts"
	"rtl-converter/internal/logger"
	"rtl-converter/internal/types"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

//go:embed all:frontend/dist
var assets embed.FS

// Command line flags
var (
	docFlag    = flag.String("doc", "", "Design document to load (JSON export)")
	langFlag   = flag.String("lang", "", "Target language code (e.g., ar, he, fa)")
	familyFlag = flag.String("family", "", "Font family applied to translated text")
	assumeFlag = flag.Bool("assume-fonts", false, "Treat every font as available instead of scanning font directories")
	cliFlag    = flag.Bool("cli", false, "Run in CLI mode without GUI")
)

// printHelp displays the help information for command line usage.
func printHelp() {
	fmt.Println("RTL Converter - translate design documents and mirror their layout for right-to-left display")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  rtl-converter [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --doc <PATH>       Design document to load (JSON export)")
	fmt.Println("  --lang <CODE>      Target language code (default: configured value, ar)")
	fmt.Println("  --family <NAME>    Font family for translated text (default: configured value)")
	fmt.Println("  --assume-fonts     Skip font directory scanning; assume every font is available")
	fmt.Println("  --cli              Run in CLI mode (no GUI)")
	fmt.Println("  -h, --help         Show this help")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  rtl-converter                                  # start the GUI")
	fmt.Println("  rtl-converter --doc landing-page.json          # start the GUI with a document loaded")
	fmt.Println("  rtl-converter --doc landing-page.json --cli")
	fmt.Println("  rtl-converter --doc app.json --lang he --family Rubik --cli")
	fmt.Println()
	fmt.Println("The Gemini API key is read from the config file or the GEMINI_API_KEY")
	fmt.Println("environment variable. The converted document is written next to the")
	fmt.Println("input with an .rtl.json extension.")
}

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *cliFlag {
		if *docFlag == "" {
			fmt.Fprintln(os.Stderr, "Error: --cli requires --doc")
			fmt.Println()
			printHelp()
			os.Exit(1)
		}
		runConversionCLI(*docFlag, *langFlag, *familyFlag, *assumeFlag)
		return
	}

	// Create an instance of the app structure
	app := NewApp()

	// Mark as running in Wails environment
	app.SetWailsRuntime(true)

	// Wrap the startup function to load a document passed on the command line
	startupFunc := func(ctx context.Context) {
		app.startup(ctx)

		if *docFlag != "" {
			// Use goroutine to avoid blocking the startup
			go func() {
				if _, err := app.LoadDocument(*docFlag); err != nil {
					runtime.EventsEmit(ctx, EventError, err.Error())
					fmt.Fprintf(os.Stderr, "Failed to load document: %v\n", err)
				}
			}()
		}
	}

	err := wails.Run(&options.App{
		Title:  "RTL Converter",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        startupFunc,
		OnShutdown:       app.shutdown,
		OnBeforeClose: func(ctx context.Context) (prevent bool) {
			// Check if a conversion is in progress
			if app.IsProcessing() {
				result, err := runtime.MessageDialog(ctx, runtime.MessageDialogOptions{
					Type:          runtime.QuestionDialog,
					Title:         "Confirm exit",
					Message:       "A conversion is still running. Quit anyway?\nThe document will not be saved.",
					Buttons:       []string{"Cancel", "Quit"},
					DefaultButton: "Cancel",
					CancelButton:  "Cancel",
				})
				if err != nil {
					// If dialog fails, allow close
					return false
				}
				if result == "Cancel" {
					return true
				}
			}
			return false
		},
		Bind: []interface{}{
			app,
		},
	})

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runConversionCLI runs a full document conversion in CLI mode without GUI.
func runConversionCLI(docPath, language, family string, assumeFonts bool) {
	// Initialize logger with console output for CLI mode
	logger.Init(&logger.Config{
		LogFilePath:   "rtl-converter-cli.log",
		Level:         logger.LevelInfo,
		EnableConsole: true,
	})
	defer logger.Close()

	fmt.Println("=== RTL Conversion (CLI mode) ===")
	fmt.Printf("Document: %s\n", docPath)

	if _, err := os.Stat(docPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: file does not exist: %s\n", docPath)
		os.Exit(1)
	}

	// Create app and initialize
	app := NewApp()
	app.startup(context.Background())

	if app.config != nil {
		fmt.Printf("API Base URL: %s\n", app.config.GetBaseURL())
		if language == "" {
			language = app.config.GetTargetLanguage()
		}
		if family == "" {
			family = app.config.GetFontFamily()
		}
	}
	fmt.Printf("Target language: %s\n", language)
	fmt.Printf("Font family: %s\n", family)

	if assumeFonts {
		fmt.Println("Font scanning disabled, assuming all fonts are available")
		app.catalog = fonts.AssumeAllCatalog{}
	}

	fmt.Println("Loading document...")
	scan, err := app.LoadDocument(docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load document: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Page: %s (%d frames, %d text nodes, %d unique strings)\n",
		scan.PageName, scan.FrameCount, scan.TextNodeCount, scan.UniqueTexts)

	if !app.HasAPIKey() {
		fmt.Fprintln(os.Stderr, "Error: no Gemini API key configured")
		fmt.Fprintf(os.Stderr, "Set it in %s or via the GEMINI_API_KEY environment variable\n",
			app.config.GetConfigPath())
		os.Exit(1)
	}

	fmt.Println("Converting...")

	// Start a goroutine to monitor progress
	done := make(chan bool)
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		lastProgress := -1
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				status := app.GetStatus()
				if status != nil && status.Progress != lastProgress {
					fmt.Printf("  [%d%%] %s: %s\n", status.Progress, status.Phase, status.Message)
					lastProgress = status.Progress
				}
			}
		}
	}()

	result, err := app.Convert(&types.ConvertRequest{
		TargetLanguage: language,
		FontFamily:     family,
	})
	close(done)

	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError: conversion failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("=== Conversion complete ===")
	fmt.Printf("Translated:    %d/%d strings\n", result.Translated, result.TotalTexts)
	fmt.Printf("Text updated:  %d nodes\n", result.Applied)
	fmt.Printf("Flow mirrored: %d containers\n", result.FlowReversed)
	fmt.Printf("Fixed moved:   %d children\n", result.FixedMoved)
	fmt.Printf("Duration:      %v\n", (time.Duration(result.DurationMilli) * time.Millisecond).Round(time.Millisecond))
	fmt.Printf("Output:        %s\n", result.OutputPath)

	app.shutdown(context.Background())
}
