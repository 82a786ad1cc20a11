package nodeinfo

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/figsync/internal/classify"
	"github.com/dgallion1/figsync/internal/scene"
)

func TestSigilRoundTrip(t *testing.T) {
	for _, id := range []string{"1:2", "123", "I45:6;7:8", "", "$already"} {
		if got := StripSigil(AddSigil(id)); got != id {
			t.Errorf("id %q: expected round trip, got %q", id, got)
		}
	}
}

func TestTruncateName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Short", "Short"},
		{"Exactly twenty chars", "Exactly twenty chars"},
		{"This layer name is far too long", "This layer name is f..."},
		{"ÜberlangerEbenennameMitUmlauten", "ÜberlangerEbenenname..."},
	}
	for _, tt := range tests {
		got := TruncateName(tt.in)
		if got != tt.want {
			t.Errorf("TruncateName(%q): expected %q, got %q", tt.in, tt.want, got)
		}
		if len([]rune(tt.in)) > 20 && len([]rune(got)) != 23 {
			t.Errorf("TruncateName(%q): expected 23 runes, got %d", tt.in, len([]rune(got)))
		}
	}
}

func buildScreen() *scene.Frame {
	title := scene.NewText("1:2", "Headline for the landing page", "Welcome", scene.DefaultFont, 36)
	title.X, title.Y = 0, 0
	body := scene.NewText("1:3", "Body", "Lorem ipsum", scene.DefaultFont, 14)
	body.X, body.Y = 0, 40
	empty := scene.NewText("1:4", "Empty", "", scene.DefaultFont, 14)
	empty.Y = 20
	hidden := scene.NewText("1:5", "Hidden", "secret", scene.DefaultFont, 14)
	hidden.Visible = false
	list := scene.NewText("1:6", "Bullets", "one\ntwo", scene.DefaultFont, 18)
	list.SetListStyle(scene.ListUnordered)
	list.X, list.Y = 100, 40

	hiddenFrame := &scene.Frame{
		Header: scene.Header{ID: "1:7", Visible: false, Y: 5},
		Nodes:  []scene.Node{scene.NewText("1:8", "Inner", "inner copy", scene.DefaultFont, 14)},
	}

	return &scene.Frame{
		Header: scene.Header{ID: "1:1", Name: "Screen", Visible: true},
		Nodes:  []scene.Node{list, body, empty, hidden, hiddenFrame, title},
	}
}

func TestCollect(t *testing.T) {
	rows := Collect(buildScreen(), ExportSettings{Page: "Home", Headings: classify.DefaultHeadings()})

	want := []NodeInfo{
		{ID: "1:2", Page: "Home", Name: "Headline for the lan...", Characters: "Welcome", ListOption: "NONE", HeadingLevel: "1"},
		{ID: "1:3", Page: "Home", Name: "Body", Characters: "Lorem ipsum", ListOption: "NONE", HeadingLevel: "0"},
		{ID: "1:6", Page: "Home", Name: "Bullets", Characters: "one\ntwo", ListOption: "UNORDERED", HeadingLevel: "4"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d: %+v", len(want), len(rows), rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d: expected %+v, got %+v", i, want[i], rows[i])
		}
	}
}

func TestCollect_InvisibleRoot(t *testing.T) {
	f := buildScreen()
	f.Visible = false
	if rows := Collect(f, ExportSettings{Headings: classify.DefaultHeadings()}); len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestMarshalParseRoundTrip(t *testing.T) {
	rows := Collect(buildScreen(), ExportSettings{Page: "Home", Headings: classify.DefaultHeadings()})
	records := Merge(rows, nil, nil)

	text, err := Marshal(records, nil)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	firstLine := strings.SplitN(text, "\n", 2)[0]
	if firstLine != "id,page,name,characters,listOption,headingLevel" {
		t.Errorf("unexpected header %q", firstLine)
	}
	if !strings.Contains(text, "$1:2,Home") {
		t.Errorf("expected sigiled id in output, got %q", text)
	}

	parsed, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m, dupes := BuildMap(parsed.Records)
	if dupes != 0 {
		t.Errorf("expected no duplicates, got %d", dupes)
	}
	for _, r := range rows {
		got, ok := m[r.ID]
		if !ok {
			t.Fatalf("expected map entry for %q", r.ID)
		}
		if got.NodeInfo != r {
			t.Errorf("expected %+v, got %+v", r, got.NodeInfo)
		}
	}
}

func TestParse_ExtraColumns(t *testing.T) {
	input := "\ufeffid,page,name,characters,listOption,headingLevel,fr,de\n" +
		"$1:2,Home,Title,Welcome,NONE,1,Bienvenue,Willkommen\n"
	parsed, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	extra := parsed.Extra()
	if len(extra) != 2 || extra[0] != "fr" || extra[1] != "de" {
		t.Errorf("expected [fr de], got %v", extra)
	}
	if len(parsed.Fields) != 8 {
		t.Errorf("expected 8 fields, got %d", len(parsed.Fields))
	}
	rec := parsed.Records[0]
	if rec.Get("fr") != "Bienvenue" || rec.Get(ColCharacters) != "Welcome" {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		missing bool
	}{
		{"empty", "", false},
		{"missing id", "page,characters\nHome,x\n", true},
		{"missing characters", "id,page\n$1,Home\n", true},
		{"ragged row", "id,characters\n$1,a,b\n", false},
		{"duplicate header", "id,characters,id\n$1,a,$2\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if parsed != nil {
				t.Error("expected no partial result")
			}
			if tt.missing && !errors.Is(err, ErrMissingColumn) {
				t.Errorf("expected ErrMissingColumn, got %v", err)
			}
		})
	}
}

func TestBuildMap_LastWins(t *testing.T) {
	records := []Record{
		{NodeInfo: NodeInfo{ID: "$1:2", Characters: "first"}},
		{NodeInfo: NodeInfo{ID: "$1:3", Characters: "other"}},
		{NodeInfo: NodeInfo{ID: "$1:2", Characters: "second"}},
	}
	m, dupes := BuildMap(records)
	if dupes != 1 {
		t.Errorf("expected 1 duplicate, got %d", dupes)
	}
	if m["1:2"].Characters != "second" {
		t.Errorf("expected last row to win, got %q", m["1:2"].Characters)
	}
	if _, ok := m["$1:2"]; ok {
		t.Error("expected map keys to be stripped")
	}
}

func TestMerge_CarriesExtraColumns(t *testing.T) {
	prev := Map{"1:2": {NodeInfo: NodeInfo{ID: "1:2"}, Extra: map[string]string{"fr": "Bienvenue"}}}
	rows := []NodeInfo{{ID: "1:2", Characters: "Welcome"}, {ID: "9:9", Characters: "New"}}
	recs := Merge(rows, prev, []string{"fr"})

	text, err := Marshal(recs, []string{"fr"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if lines[0] != "id,page,name,characters,listOption,headingLevel,fr" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",Bienvenue") {
		t.Errorf("expected translation carried over, got %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",") {
		t.Errorf("expected empty translation for new row, got %q", lines[2])
	}
}

func TestDataURI(t *testing.T) {
	got := DataURI("id,name\n$1,it's (a) test+1")
	want := "data:text/csv;charset=utf-8,id%2Cname%0A%241%2Cit's%20(a)%20test%2B1"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if Filename("Landing") != "Landing.csv" {
		t.Errorf("unexpected filename %q", Filename("Landing"))
	}
}
