// Package fonts indexes the font files available to a conversion and
// resolves style variants of the target family.
package fonts

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gofont "github.com/go-text/typesetting/font"

	"rtl-converter/internal/document"
	"rtl-converter/internal/logger"
	"rtl-converter/internal/types"
)

// Catalog reports whether a font can be used for text mutation.
type Catalog interface {
	// Load makes the given font available. Fonts the catalog does not
	// know return an error.
	Load(f document.FontName) error
}

// StaticCatalog is a fixed allow-list of fonts.
type StaticCatalog struct {
	available map[document.FontName]bool
}

func NewStaticCatalog(fonts ...document.FontName) *StaticCatalog {
	c := &StaticCatalog{available: make(map[document.FontName]bool, len(fonts))}
	for _, f := range fonts {
		c.available[f] = true
	}
	return c
}

func (c *StaticCatalog) Load(f document.FontName) error {
	if !c.available[f] {
		return types.NewAppError(types.ErrFont, fmt.Sprintf("font not available: %s", f), nil)
	}
	return nil
}

// AssumeAllCatalog treats every font as available. The headless CLI uses
// it when the machine running the conversion has no font files to probe.
type AssumeAllCatalog struct{}

func (AssumeAllCatalog) Load(document.FontName) error { return nil }

// DirCatalog indexes font files discovered under a set of directories.
// Family names come from the font's own metadata; style labels are
// derived from the face's weight and slant.
type DirCatalog struct {
	index map[string]map[string]string // lower family -> style label -> file path
	names map[string]string            // lower family -> display family
}

// NewDirCatalog walks dirs and indexes every parseable .ttf and .otf
// file. Unreadable directories and unparseable files are skipped.
func NewDirCatalog(dirs []string) *DirCatalog {
	c := &DirCatalog{
		index: make(map[string]map[string]string),
		names: make(map[string]string),
	}
	for _, dir := range dirs {
		indexed := 0
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".ttf", ".otf":
			default:
				return nil
			}
			if c.indexFile(path) {
				indexed++
			}
			return nil
		})
		logger.Debug("indexed font directory",
			logger.String("dir", dir),
			logger.Int("fonts", indexed))
	}
	return c
}

func (c *DirCatalog) indexFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	face, err := gofont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		logger.Debug("skipping unparseable font file",
			logger.String("path", path), logger.Err(err))
		return false
	}

	desc := face.Describe()
	if desc.Family == "" {
		return false
	}

	key := strings.ToLower(desc.Family)
	styles := c.index[key]
	if styles == nil {
		styles = make(map[string]string)
		c.index[key] = styles
		c.names[key] = desc.Family
	}
	label := styleLabel(desc.Aspect)
	if _, exists := styles[label]; !exists {
		styles[label] = path
	}
	return true
}

func (c *DirCatalog) Load(f document.FontName) error {
	styles := c.index[strings.ToLower(f.Family)]
	if styles == nil {
		return types.NewAppError(types.ErrFont,
			fmt.Sprintf("font family not installed: %s", f.Family), nil)
	}
	for label := range styles {
		if strings.EqualFold(label, f.Style) {
			return nil
		}
	}
	return types.NewAppError(types.ErrFont,
		fmt.Sprintf("font style not installed: %s", f), nil)
}

// Families returns every indexed family name, sorted.
func (c *DirCatalog) Families() []string {
	families := make([]string, 0, len(c.names))
	for _, name := range c.names {
		families = append(families, name)
	}
	sort.Strings(families)
	return families
}

// Styles returns the style labels indexed for family, sorted.
func (c *DirCatalog) Styles(family string) []string {
	styles := c.index[strings.ToLower(family)]
	labels := make([]string, 0, len(styles))
	for label := range styles {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// styleLabel maps a face's weight and slant to the style vocabulary used
// in design documents.
func styleLabel(a gofont.Aspect) string {
	var label string
	switch {
	case a.Weight <= gofont.WeightLight:
		label = "Light"
	case a.Weight < gofont.WeightMedium:
		label = "Regular"
	case a.Weight < gofont.WeightSemibold:
		label = "Medium"
	case a.Weight < gofont.WeightBold:
		label = "SemiBold"
	default:
		label = "Bold"
	}
	if a.Style == gofont.StyleItalic {
		if label == "Regular" {
			return "Italic"
		}
		label += " Italic"
	}
	return label
}
