// Package document models a design document tree loaded from a JSON export.
// The tree is owned by the caller for the lifetime of a conversion run;
// processing packages mutate nodes in place through the methods here.
package document

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"rtl-converter/internal/types"
)

// CurrentSchemaVersion is the document schema written by Save.
const CurrentSchemaVersion = 1

// NodeType identifies the kind of a tree node.
type NodeType string

const (
	NodeTypePage      NodeType = "PAGE"
	NodeTypeFrame     NodeType = "FRAME"
	NodeTypeGroup     NodeType = "GROUP"
	NodeTypeComponent NodeType = "COMPONENT"
	NodeTypeInstance  NodeType = "INSTANCE"
	NodeTypeText      NodeType = "TEXT"
	NodeTypeRectangle NodeType = "RECTANGLE"
	NodeTypeEllipse   NodeType = "ELLIPSE"
	NodeTypeVector    NodeType = "VECTOR"
	NodeTypeSection   NodeType = "SECTION"
)

// LayoutMode describes how a container positions its children.
type LayoutMode string

const (
	LayoutNone       LayoutMode = "NONE"
	LayoutHorizontal LayoutMode = "HORIZONTAL"
	LayoutVertical   LayoutMode = "VERTICAL"
)

// Align is a cross-axis alignment value for auto-layout containers.
type Align string

const (
	AlignMin      Align = "MIN"
	AlignMax      Align = "MAX"
	AlignCenter   Align = "CENTER"
	AlignBaseline Align = "BASELINE"
)

// TextAlign is the horizontal alignment of a text node.
type TextAlign string

const (
	TextAlignLeft      TextAlign = "LEFT"
	TextAlignRight     TextAlign = "RIGHT"
	TextAlignCenter    TextAlign = "CENTER"
	TextAlignJustified TextAlign = "JUSTIFIED"
)

// AutoResize is the auto-resize behavior of a text node.
type AutoResize string

const (
	AutoResizeNone           AutoResize = "NONE"
	AutoResizeHeight         AutoResize = "HEIGHT"
	AutoResizeWidthAndHeight AutoResize = "WIDTH_AND_HEIGHT"
	AutoResizeTruncate       AutoResize = "TRUNCATE"
)

// FontName identifies a font by family and style, e.g. {"Inter", "Bold"}.
type FontName struct {
	Family string `json:"family"`
	Style  string `json:"style"`
}

func (f FontName) String() string {
	return f.Family + " " + f.Style
}

// StyleRange assigns a font to a half-open rune range [Start, End) of a
// text node's characters. A node with more than one range has mixed fonts.
type StyleRange struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Font  FontName `json:"font"`
}

// Node is a single element of the document tree. Geometry is in parent
// coordinates. Text fields are only meaningful when Type is TEXT; layout
// fields only when the node can hold children.
type Node struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Type   NodeType `json:"type"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`

	LayoutMode            LayoutMode `json:"layoutMode,omitempty"`
	CounterAxisAlignItems Align      `json:"counterAxisAlignItems,omitempty"`

	Characters          string       `json:"characters,omitempty"`
	FontName            *FontName    `json:"fontName,omitempty"`
	StyleRanges         []StyleRange `json:"styleRanges,omitempty"`
	TextAlignHorizontal TextAlign    `json:"textAlignHorizontal,omitempty"`
	TextAutoResize      AutoResize   `json:"textAutoResize,omitempty"`

	Children []*Node `json:"children,omitempty"`
}

// Font returns the node's font when it is uniform across all characters.
// A node styled by more than one range reports ok=false.
func (n *Node) Font() (FontName, bool) {
	if n.FontName != nil {
		return *n.FontName, true
	}
	if len(n.StyleRanges) == 1 {
		return n.StyleRanges[0].Font, true
	}
	return FontName{}, false
}

// RangeFonts returns every distinct font referenced by the node, in
// first-appearance order. Uniform nodes return a single entry.
func (n *Node) RangeFonts() []FontName {
	if n.FontName != nil {
		return []FontName{*n.FontName}
	}
	var fonts []FontName
	seen := make(map[FontName]bool)
	for _, r := range n.StyleRanges {
		if !seen[r.Font] {
			seen[r.Font] = true
			fonts = append(fonts, r.Font)
		}
	}
	return fonts
}

// SetCharacters replaces the node's text content. Replacing the full text
// collapses any mixed styling to the first range's font.
func (n *Node) SetCharacters(s string) {
	n.Characters = s
	if len(n.StyleRanges) > 0 {
		first := n.StyleRanges[0].Font
		n.FontName = &first
		n.StyleRanges = nil
	}
}

// SetFont assigns a single font to the whole node, discarding any ranges.
func (n *Node) SetFont(f FontName) {
	n.FontName = &f
	n.StyleRanges = nil
}

// Walk visits n and every descendant in depth-first pre-order, including
// nodes inside component instances.
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// FindAll returns every node in the tree matching pred, in visit order.
func FindAll(root *Node, pred func(*Node) bool) []*Node {
	var matches []*Node
	Walk(root, func(n *Node) {
		if pred(n) {
			matches = append(matches, n)
		}
	})
	return matches
}

// CollectTexts gathers the trimmed characters of every text node under
// root, deduplicated, preserving first-appearance order. Empty and
// whitespace-only texts are skipped.
func CollectTexts(root *Node) []string {
	var texts []string
	seen := make(map[string]bool)
	Walk(root, func(n *Node) {
		if n.Type != NodeTypeText {
			return
		}
		trimmed := strings.TrimSpace(n.Characters)
		if trimmed == "" || seen[trimmed] {
			return
		}
		seen[trimmed] = true
		texts = append(texts, trimmed)
	})
	return texts
}

// Document is a serialized design page with its node tree.
type Document struct {
	Name          string `json:"name"`
	SchemaVersion int    `json:"schemaVersion"`
	Page          *Node  `json:"page"`
}

// Load reads and validates a document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrDocument,
			"failed to read document", fmt.Sprintf("path: %s", path), err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrDocument,
			"failed to parse document", fmt.Sprintf("path: %s", path), err)
	}

	if doc.SchemaVersion == 0 {
		doc.SchemaVersion = CurrentSchemaVersion
	}
	if doc.SchemaVersion > CurrentSchemaVersion {
		return nil, types.NewAppError(types.ErrDocument,
			fmt.Sprintf("unsupported document schema version %d", doc.SchemaVersion), nil)
	}
	if doc.Page == nil {
		return nil, types.NewAppError(types.ErrDocument, "document has no page", nil)
	}

	return &doc, nil
}

// Save writes the document to path as indented JSON.
func (d *Document) Save(path string) error {
	d.SchemaVersion = CurrentSchemaVersion
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrDocument, "failed to serialize document", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return types.NewAppErrorWithDetails(types.ErrDocument,
			"failed to write document", fmt.Sprintf("path: %s", path), err)
	}
	return nil
}
