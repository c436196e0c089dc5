package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rtl-converter/internal/document"
)

func catalogWith(family string, styles ...string) Catalog {
	var fonts []document.FontName
	for _, s := range styles {
		fonts = append(fonts, document.FontName{Family: family, Style: s})
	}
	return NewStaticCatalog(fonts...)
}

func TestLoadVariants(t *testing.T) {
	t.Run("records loaded styles in probe order", func(t *testing.T) {
		r := LoadVariants(catalogWith("Noto Sans Arabic", "Light", "Bold", "Regular"), "Noto Sans Arabic")
		assert.False(t, r.Empty())
		assert.Equal(t, []string{"Regular", "Bold", "Light"}, r.Loaded())
	})

	t.Run("empty when no variant loads", func(t *testing.T) {
		r := LoadVariants(catalogWith("Other Family", "Regular"), "Noto Sans Arabic")
		assert.True(t, r.Empty())
	})

	t.Run("probes only the standard variants", func(t *testing.T) {
		r := LoadVariants(catalogWith("Noto Sans Arabic", "Black", "Thin", "ExtraBold"), "Noto Sans Arabic")
		assert.True(t, r.Empty())
	})
}

func TestResolver_Resolve(t *testing.T) {
	family := "Noto Sans Arabic"

	tests := []struct {
		name      string
		loaded    []string
		original  string
		wantStyle string
		wantOK    bool
	}{
		{
			name:      "bold keyword picks bold",
			loaded:    []string{"Regular", "Bold"},
			original:  "Bold",
			wantStyle: "Bold",
			wantOK:    true,
		},
		{
			name:      "semibold original matches bold keyword first",
			loaded:    []string{"Regular", "Bold"},
			original:  "SemiBold",
			wantStyle: "Bold",
			wantOK:    true,
		},
		{
			name:      "semibold original without bold loaded picks semibold",
			loaded:    []string{"Regular", "SemiBold"},
			original:  "SemiBold",
			wantStyle: "SemiBold",
			wantOK:    true,
		},
		{
			name:      "spaced semi bold spelling picks semibold",
			loaded:    []string{"Regular", "SemiBold"},
			original:  "Semi Bold",
			wantStyle: "SemiBold",
			wantOK:    true,
		},
		{
			name:      "medium keyword picks medium",
			loaded:    []string{"Regular", "Medium"},
			original:  "Medium",
			wantStyle: "Medium",
			wantOK:    true,
		},
		{
			name:      "light keyword picks light",
			loaded:    []string{"Regular", "Light"},
			original:  "Light Italic",
			wantStyle: "Light",
			wantOK:    true,
		},
		{
			name:      "bold italic original picks bold",
			loaded:    []string{"Regular", "Bold"},
			original:  "Bold Italic",
			wantStyle: "Bold",
			wantOK:    true,
		},
		{
			name:      "regular fallback when keyword variants missing",
			loaded:    []string{"Regular"},
			original:  "SemiBold",
			wantStyle: "Regular",
			wantOK:    true,
		},
		{
			name:      "unmatched style falls back to regular",
			loaded:    []string{"Regular", "Bold"},
			original:  "Thin",
			wantStyle: "Regular",
			wantOK:    true,
		},
		{
			name:      "any loaded variant when regular missing",
			loaded:    []string{"Light"},
			original:  "Regular",
			wantStyle: "Light",
			wantOK:    true,
		},
		{
			name:     "nothing loaded resolves to nothing",
			loaded:   nil,
			original: "Bold",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := LoadVariants(catalogWith(family, tt.loaded...), family)
			got, ok := r.Resolve(tt.original)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, family, got.Family)
				assert.Equal(t, tt.wantStyle, got.Style)
			}
		})
	}
}
