// Package apply writes translations back into a document tree and
// restyles the touched text nodes for right-to-left display.
package apply

import (
	"regexp"
	"strings"

	"rtl-converter/internal/document"
	"rtl-converter/internal/fonts"
	"rtl-converter/internal/logger"
)

// wsRuns matches interior whitespace runs for the fallback lookup.
var wsRuns = regexp.MustCompile(`\s+`)

// Applicator replaces text node content with translations.
type Applicator struct {
	translations map[string]string
	resolver     *fonts.Resolver
	catalog      fonts.Catalog
}

// New creates an Applicator over a translation mapping. The resolver
// supplies the target font; the catalog vets every font a node already
// uses before its content is touched.
func New(translations map[string]string, resolver *fonts.Resolver, catalog fonts.Catalog) *Applicator {
	return &Applicator{
		translations: translations,
		resolver:     resolver,
		catalog:      catalog,
	}
}

// Run applies translations to every text node under root and returns
// the number of nodes updated. Per-node failures are logged and do not
// stop the pass.
func (a *Applicator) Run(root *document.Node) int {
	applied := 0
	textNodes := document.FindAll(root, func(n *document.Node) bool {
		return n.Type == document.NodeTypeText
	})
	for _, node := range textNodes {
		if a.applyNode(node) {
			applied++
		}
	}

	logger.Info("applied translations",
		logger.Int("updated", applied),
		logger.Int("textNodes", len(textNodes)))
	return applied
}

// lookup finds the translation for content: the trimmed string exactly,
// then with whitespace runs collapsed to single spaces. There is no
// third tier.
func (a *Applicator) lookup(content string) (string, bool) {
	trimmed := strings.TrimSpace(content)
	if translated, ok := a.translations[trimmed]; ok {
		return translated, true
	}
	collapsed := wsRuns.ReplaceAllString(trimmed, " ")
	if translated, ok := a.translations[collapsed]; ok {
		return translated, true
	}
	return "", false
}

func (a *Applicator) applyNode(node *document.Node) bool {
	translated, ok := a.lookup(node.Characters)
	if !ok || translated == node.Characters {
		return false
	}

	// Every font the node references must load before the content
	// changes; mutating content collapses the range styling.
	for _, f := range node.RangeFonts() {
		if err := a.catalog.Load(f); err != nil {
			logger.Warn("skipping text node, font load failed",
				logger.String("text", node.Characters),
				logger.Err(err))
			return false
		}
	}

	var originalStyle string
	if f, ok := node.Font(); ok {
		originalStyle = f.Style
	} else if ranges := node.RangeFonts(); len(ranges) > 0 {
		originalStyle = ranges[0].Style
	}

	node.SetCharacters(translated)
	if target, ok := a.resolver.Resolve(originalStyle); ok {
		node.SetFont(target)
	}
	node.TextAlignHorizontal = document.TextAlignRight
	if node.TextAutoResize == document.AutoResizeNone {
		node.TextAutoResize = document.AutoResizeHeight
	}

	return true
}
