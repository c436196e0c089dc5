package document

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCollectTexts(t *testing.T) {
	root := &Node{
		Type: NodeTypePage,
		Children: []*Node{
			{Type: NodeTypeText, Characters: "  Hello  "},
			{Type: NodeTypeText, Characters: "World"},
			{Type: NodeTypeText, Characters: "Hello"},
			{Type: NodeTypeText, Characters: "   "},
			{Type: NodeTypeText, Characters: ""},
			{
				Type: NodeTypeFrame,
				Children: []*Node{
					{Type: NodeTypeText, Characters: "Nested"},
					{Type: NodeTypeRectangle},
				},
			},
		},
	}

	texts := CollectTexts(root)

	want := []string{"Hello", "World", "Nested"}
	if len(texts) != len(want) {
		t.Fatalf("expected %d texts, got %d: %v", len(want), len(texts), texts)
	}
	for i, w := range want {
		if texts[i] != w {
			t.Errorf("texts[%d] = %q, want %q", i, texts[i], w)
		}
	}
}

func TestCollectTexts_IncludesInstanceContents(t *testing.T) {
	root := &Node{
		Type: NodeTypePage,
		Children: []*Node{
			{
				Type: NodeTypeInstance,
				Children: []*Node{
					{Type: NodeTypeText, Characters: "Inside instance"},
				},
			},
		},
	}

	texts := CollectTexts(root)
	if len(texts) != 1 || texts[0] != "Inside instance" {
		t.Errorf("expected instance text to be collected, got %v", texts)
	}
}

func TestNode_Font(t *testing.T) {
	t.Run("uniform font", func(t *testing.T) {
		n := &Node{Type: NodeTypeText, FontName: &FontName{Family: "Inter", Style: "Bold"}}
		f, ok := n.Font()
		if !ok {
			t.Fatal("expected uniform font")
		}
		if f.Family != "Inter" || f.Style != "Bold" {
			t.Errorf("unexpected font %v", f)
		}
	})

	t.Run("single range counts as uniform", func(t *testing.T) {
		n := &Node{Type: NodeTypeText, StyleRanges: []StyleRange{
			{Start: 0, End: 5, Font: FontName{Family: "Inter", Style: "Medium"}},
		}}
		f, ok := n.Font()
		if !ok || f.Style != "Medium" {
			t.Errorf("expected Medium, got %v ok=%v", f, ok)
		}
	})

	t.Run("mixed ranges report not uniform", func(t *testing.T) {
		n := &Node{Type: NodeTypeText, StyleRanges: []StyleRange{
			{Start: 0, End: 3, Font: FontName{Family: "Inter", Style: "Regular"}},
			{Start: 3, End: 8, Font: FontName{Family: "Inter", Style: "Bold"}},
		}}
		if _, ok := n.Font(); ok {
			t.Error("expected mixed node to report ok=false")
		}
	})
}

func TestNode_RangeFonts(t *testing.T) {
	n := &Node{Type: NodeTypeText, StyleRanges: []StyleRange{
		{Start: 0, End: 3, Font: FontName{Family: "Inter", Style: "Regular"}},
		{Start: 3, End: 6, Font: FontName{Family: "Inter", Style: "Bold"}},
		{Start: 6, End: 9, Font: FontName{Family: "Inter", Style: "Regular"}},
	}}

	fonts := n.RangeFonts()
	if len(fonts) != 2 {
		t.Fatalf("expected 2 distinct fonts, got %d: %v", len(fonts), fonts)
	}
	if fonts[0].Style != "Regular" || fonts[1].Style != "Bold" {
		t.Errorf("expected first-appearance order [Regular Bold], got %v", fonts)
	}
}

func TestNode_SetCharacters(t *testing.T) {
	n := &Node{Type: NodeTypeText, Characters: "old", StyleRanges: []StyleRange{
		{Start: 0, End: 1, Font: FontName{Family: "Inter", Style: "Bold"}},
		{Start: 1, End: 3, Font: FontName{Family: "Inter", Style: "Light"}},
	}}

	n.SetCharacters("replacement")

	if n.Characters != "replacement" {
		t.Errorf("Characters = %q", n.Characters)
	}
	if n.StyleRanges != nil {
		t.Error("expected ranges to collapse after full replacement")
	}
	f, ok := n.Font()
	if !ok || f.Style != "Bold" {
		t.Errorf("expected collapse to first range font Bold, got %v ok=%v", f, ok)
	}
}

func TestNode_SetFont(t *testing.T) {
	n := &Node{Type: NodeTypeText, StyleRanges: []StyleRange{
		{Start: 0, End: 2, Font: FontName{Family: "Inter", Style: "Regular"}},
		{Start: 2, End: 4, Font: FontName{Family: "Inter", Style: "Bold"}},
	}}

	n.SetFont(FontName{Family: "Noto Sans Arabic", Style: "Medium"})

	f, ok := n.Font()
	if !ok {
		t.Fatal("expected uniform font after SetFont")
	}
	if f.Family != "Noto Sans Arabic" || f.Style != "Medium" {
		t.Errorf("unexpected font %v", f)
	}
	if n.StyleRanges != nil {
		t.Error("expected ranges discarded")
	}
}

func TestFindAll(t *testing.T) {
	root := &Node{
		Type: NodeTypePage,
		Children: []*Node{
			{Type: NodeTypeFrame, Name: "a", Children: []*Node{
				{Type: NodeTypeFrame, Name: "b"},
				{Type: NodeTypeText, Characters: "x"},
			}},
			{Type: NodeTypeInstance, Children: []*Node{
				{Type: NodeTypeFrame, Name: "c"},
			}},
		},
	}

	frames := FindAll(root, func(n *Node) bool { return n.Type == NodeTypeFrame })
	if len(frames) != 3 {
		t.Errorf("expected 3 frames including instance contents, got %d", len(frames))
	}
}

func TestLoadSave(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "document-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "doc.json")

	original := &Document{
		Name: "Landing",
		Page: &Node{
			Type: NodeTypePage,
			Name: "Page 1",
			Children: []*Node{
				{
					Type:       NodeTypeFrame,
					Name:       "Hero",
					Width:      375,
					Height:     812,
					LayoutMode: LayoutHorizontal,
					Children: []*Node{
						{
							Type:                NodeTypeText,
							Characters:          "Welcome",
							FontName:            &FontName{Family: "Inter", Style: "Bold"},
							TextAlignHorizontal: TextAlignLeft,
							TextAutoResize:      AutoResizeNone,
						},
					},
				},
			},
		},
	}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Name != "Landing" {
		t.Errorf("Name = %q", loaded.Name)
	}
	if loaded.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", loaded.SchemaVersion, CurrentSchemaVersion)
	}
	if loaded.Page == nil || len(loaded.Page.Children) != 1 {
		t.Fatal("page tree not preserved")
	}
	frame := loaded.Page.Children[0]
	if frame.LayoutMode != LayoutHorizontal {
		t.Errorf("LayoutMode = %q", frame.LayoutMode)
	}
	text := frame.Children[0]
	if text.Characters != "Welcome" {
		t.Errorf("Characters = %q", text.Characters)
	}
	if text.FontName == nil || text.FontName.Style != "Bold" {
		t.Errorf("FontName = %v", text.FontName)
	}
}

func TestLoad_Errors(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "document-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(tmpDir, "missing.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		path := filepath.Join(tmpDir, "bad.json")
		os.WriteFile(path, []byte("{broken"), 0644)
		if _, err := Load(path); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})

	t.Run("no page", func(t *testing.T) {
		path := filepath.Join(tmpDir, "nopage.json")
		os.WriteFile(path, []byte(`{"name":"x","schemaVersion":1}`), 0644)
		if _, err := Load(path); err == nil {
			t.Error("expected error for document without page")
		}
	})

	t.Run("future schema version", func(t *testing.T) {
		path := filepath.Join(tmpDir, "future.json")
		os.WriteFile(path, []byte(`{"name":"x","schemaVersion":99,"page":{"type":"PAGE"}}`), 0644)
		if _, err := Load(path); err == nil {
			t.Error("expected error for unsupported schema version")
		}
	})
}
