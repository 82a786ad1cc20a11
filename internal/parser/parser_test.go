package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/figsync/internal/scene"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"doc.json", "*parser.SceneParser"},
		{"doc.YML", "*parser.SceneParser"},
		{"notes.txt", "*parser.TextParser"},
		{"readme.md", "*parser.MarkdownParser"},
		{"copy.csv", "*parser.CSVParser"},
		{"index.html", "*parser.HTMLParser"},
		{"brief.pdf", "*parser.PDFParser"},
		{"brief.docx", "*parser.DOCXParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if got := fmt.Sprintf("%T", p); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.filename, tt.want, got)
		}
		if !IsSupportedExtension(tt.filename) {
			t.Errorf("%s: expected supported extension", tt.filename)
		}
	}

	if _, err := ForFile("image.png"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestSceneParser_YAMLDefaults(t *testing.T) {
	input := `
pages:
  - name: Cover
    children:
      - type: TEXT
        id: "1:2"
        name: Title
        characters: Hello
        fontSize: 36
`
	doc, err := (&SceneParser{YAML: true}).Parse(strings.NewReader(input), "cover.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "cover" {
		t.Errorf("expected name from filename, got %q", doc.Name)
	}
	if doc.ID == "" {
		t.Error("expected content-derived id")
	}
	n, _ := doc.Find("1:2")
	txt, ok := n.(*scene.Text)
	if !ok || txt.Characters() != "Hello" {
		t.Fatalf("expected text node Hello, got %#v", n)
	}
}

func TestCSVParser_BuildsTable(t *testing.T) {
	doc, err := (&CSVParser{}).Parse(strings.NewReader("a,b\nc,d\n"), "grid.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root := rootFrame(t, doc)
	if root.Name != "grid" {
		t.Errorf("expected table named %q, got %q", "grid", root.Name)
	}
	got := textsOf(t, doc)
	if strings.Join(got, ",") != "a,b,c,d" {
		t.Errorf("expected cells a,b,c,d, got %v", got)
	}
	if root.ID != "1:1" {
		t.Errorf("expected host-style ids, got %q", root.ID)
	}
}
