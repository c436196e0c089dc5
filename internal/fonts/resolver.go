package fonts

import (
	"strings"

	"rtl-converter/internal/document"
	"rtl-converter/internal/logger"
)

// StyleVariants is the set of style labels probed when loading a family,
// in probe order.
var StyleVariants = []string{"Regular", "Bold", "Medium", "SemiBold", "Light"}

// styleKeywords pairs a substring of an original style with the variant
// it selects. Order is the match priority; a style containing "SemiBold"
// also contains "Bold" and resolves there first when Bold is loaded.
var styleKeywords = []struct {
	keyword string
	variant string
}{
	{"Bold", "Bold"},
	{"SemiBold", "SemiBold"},
	{"Semi Bold", "SemiBold"},
	{"Medium", "Medium"},
	{"Light", "Light"},
}

// Resolver selects the loaded variant of a target family closest to a
// text node's original style.
type Resolver struct {
	family string
	loaded map[string]bool
}

// LoadVariants probes cat for each standard style of family and records
// the ones that load. Missing variants are not an error here; Empty
// reports whether every probe failed.
func LoadVariants(cat Catalog, family string) *Resolver {
	r := &Resolver{family: family, loaded: make(map[string]bool, len(StyleVariants))}
	for _, style := range StyleVariants {
		if err := cat.Load(document.FontName{Family: family, Style: style}); err != nil {
			logger.Debug("font variant unavailable",
				logger.String("family", family),
				logger.String("style", style))
			continue
		}
		r.loaded[style] = true
	}
	return r
}

// Empty reports whether no variant of the family loaded.
func (r *Resolver) Empty() bool {
	return len(r.loaded) == 0
}

// Family returns the target family the resolver was built for.
func (r *Resolver) Family() string {
	return r.family
}

// Loaded returns the loaded style labels in probe order.
func (r *Resolver) Loaded() []string {
	var styles []string
	for _, s := range StyleVariants {
		if r.loaded[s] {
			styles = append(styles, s)
		}
	}
	return styles
}

// Resolve picks the loaded style for an original style string: keyword
// matches in priority order, then Regular, then any loaded variant.
// ok is false only when nothing loaded.
func (r *Resolver) Resolve(originalStyle string) (document.FontName, bool) {
	for _, k := range styleKeywords {
		if strings.Contains(originalStyle, k.keyword) && r.loaded[k.variant] {
			return document.FontName{Family: r.family, Style: k.variant}, true
		}
	}
	if r.loaded["Regular"] {
		return document.FontName{Family: r.family, Style: "Regular"}, true
	}
	for _, style := range StyleVariants {
		if r.loaded[style] {
			return document.FontName{Family: r.family, Style: style}, true
		}
	}
	return document.FontName{}, false
}
