// Package session holds the per-document state of a copy-management
// session and answers the UI message protocol against it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/figsync/internal/classify"
	"github.com/dgallion1/figsync/internal/nodeinfo"
	"github.com/dgallion1/figsync/internal/scene"
	"github.com/dgallion1/figsync/internal/scheduler"
	"github.com/dgallion1/figsync/internal/stats"
	"github.com/dgallion1/figsync/internal/store"
	"github.com/dgallion1/figsync/internal/tablegen"
	"github.com/dgallion1/figsync/internal/updater"
)

var (
	// ErrEmptySelection is returned when an operation needs selected layers.
	ErrEmptySelection = errors.New("select at least one layer")
	// ErrNoParsedCSV is returned by update before any CSV was parsed.
	ErrNoParsedCSV = errors.New("no CSV has been loaded")
	// ErrNodeNotFound is returned when a selected id is not in the document.
	ErrNodeNotFound = errors.New("node not found")
	// ErrNothingPersisted is returned by review when no CSV was persisted.
	ErrNothingPersisted = errors.New("no persisted CSV to review")
)

// Namespace is the shared-data namespace for everything a session persists.
const Namespace = "figsync"

const (
	keySettings = "settings"
	keyCSV      = "csv"
	keyChanged  = "changed"
)

const historyLimit = 50

// Settings are the user-editable options persisted per document.
type Settings struct {
	classify.HeadingSettings
	SelectedLang string `json:"selectedLang,omitempty"`
}

// withDefaults fills thresholds left at zero from base.
func (s Settings) withDefaults(base classify.HeadingSettings) Settings {
	h := &s.HeadingSettings
	if h.H1 == 0 {
		h.H1 = base.H1
	}
	if h.H2 == 0 {
		h.H2 = base.H2
	}
	if h.H3 == 0 {
		h.H3 = base.H3
	}
	if h.H4 == 0 {
		h.H4 = base.H4
	}
	return s
}

func (s Settings) forUpdate() updater.Settings {
	return updater.Settings{Headings: s.HeadingSettings, SelectedLang: s.SelectedLang}
}

// Size is a plugin window size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Options are the collaborators shared by every session.
type Options struct {
	Store      store.Store
	Fonts      scene.FontLoader
	Sweeps     *stats.Sweeps
	YieldDelay time.Duration
	Headings   classify.HeadingSettings
	MinWindow  Size
	Log        *slog.Logger
}

// Session is one open document with its selection, parsed CSV snapshot and
// notifications. Methods are safe for concurrent use; operations on one
// session run one at a time.
type Session struct {
	ID string

	mu        sync.Mutex
	doc       *scene.Document
	page      *scene.Page
	selection []scene.Node
	csvText   string
	parsed    *nodeinfo.Parsed
	nodeMap   nodeinfo.Map
	changed   []string
	window    Size

	opts      Options
	center    *scheduler.Center
	seq       *scheduler.Sequencer
	engine    *updater.Engine
	log       *slog.Logger
	createdAt time.Time
	lastUsed  time.Time
}

// New opens a session over doc. The first page is current and nothing is
// selected.
func New(id string, doc *scene.Document, opts Options) (*Session, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Fonts == nil {
		opts.Fonts = scene.NewFontBook()
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Headings == (classify.HeadingSettings{}) {
		opts.Headings = classify.DefaultHeadings()
	}
	if doc.ID == "" {
		doc.ID = id
	}

	log := opts.Log.With("session_id", id, "document_id", doc.ID)
	center := scheduler.NewCenter(historyLimit)
	now := time.Now()
	return &Session{
		ID:        id,
		doc:       doc,
		page:      doc.Pages[0],
		window:    opts.MinWindow,
		opts:      opts,
		center:    center,
		seq:       scheduler.NewSequencer(center, opts.YieldDelay, log),
		engine:    updater.NewEngine(opts.Fonts, log),
		log:       log,
		createdAt: now,
		lastUsed:  now,
	}, nil
}

func (s *Session) touch() {
	s.lastUsed = time.Now()
}

// LastUsed reports when the session last handled a request.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// EncodeDocument writes the document as scene JSON. The session is locked
// for the whole encode so no message can mutate the tree underneath it.
func (s *Session) EncodeDocument(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return scene.EncodeJSON(w, s.doc)
}

// Notifications returns the notification history, oldest first.
func (s *Session) Notifications() []scheduler.Notification {
	return s.center.History()
}

// LiveNotification returns the currently shown notification, if any.
func (s *Session) LiveNotification() (scheduler.Notification, bool) {
	return s.center.Live()
}

// Select replaces the selection with the given node ids, in order. The
// current page becomes the page of the first selected node.
func (s *Session) Select(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	nodes := make([]scene.Node, 0, len(ids))
	var page *scene.Page
	for _, id := range ids {
		n, p := s.doc.Find(id)
		if n == nil {
			return fmt.Errorf("select %q: %w", id, ErrNodeNotFound)
		}
		if page == nil {
			page = p
		}
		nodes = append(nodes, n)
	}
	s.selection = nodes
	if page != nil {
		s.page = page
	}
	return nil
}

// SelectPage selects every top-level node on the page with the given id,
// or the current page when id is empty.
func (s *Session) SelectPage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	page := s.page
	if id != "" {
		page = s.doc.Page(id)
		if page == nil {
			return fmt.Errorf("select page %q: %w", id, ErrNodeNotFound)
		}
	}
	s.page = page
	s.selection = append([]scene.Node(nil), page.Nodes...)
	return nil
}

// Snapshot is a JSON-safe view of session state.
type Snapshot struct {
	ID           string    `json:"session_id"`
	DocumentID   string    `json:"document_id"`
	DocumentName string    `json:"document_name"`
	Page         string    `json:"page"`
	Selection    []string  `json:"selection"`
	ParsedRows   int       `json:"parsed_rows"`
	Fields       []string  `json:"fields"`
	Changed      []string  `json:"changed"`
	Window       Size      `json:"window"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsed     time.Time `json:"last_used"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:           s.ID,
		DocumentID:   s.doc.ID,
		DocumentName: s.doc.Name,
		Page:         s.page.Name,
		Selection:    make([]string, 0, len(s.selection)),
		Fields:       []string{},
		Changed:      append([]string{}, s.changed...),
		Window:       s.window,
		CreatedAt:    s.createdAt,
		LastUsed:     s.lastUsed,
	}
	for _, n := range s.selection {
		snap.Selection = append(snap.Selection, n.NodeID())
	}
	if s.parsed != nil {
		snap.ParsedRows = len(s.parsed.Records)
		snap.Fields = append(snap.Fields, s.parsed.Fields...)
	}
	return snap
}

func (s *Session) key(name string) store.Key {
	return store.Key{Document: store.DocumentKey(s.doc.ID), Namespace: Namespace, Name: name}
}

// loadSettings reads persisted settings, falling back to defaults.
func (s *Session) loadSettings(ctx context.Context) (Settings, error) {
	settings := Settings{HeadingSettings: s.opts.Headings}
	raw, ok, err := s.opts.Store.Get(ctx, s.key(keySettings))
	if err != nil {
		return settings, fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		return settings, nil
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		s.log.Warn("discarding unreadable settings", "error", err)
		return Settings{HeadingSettings: s.opts.Headings}, nil
	}
	return settings, nil
}

func (s *Session) saveSettings(ctx context.Context, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	buf, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := s.opts.Store.Set(ctx, s.key(keySettings), string(buf)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// GetSettings returns the persisted settings or the defaults.
func (s *Session) GetSettings(ctx context.Context) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.loadSettings(ctx)
}

// SaveSettings validates and persists settings. Thresholds left at zero
// keep their current values.
func (s *Session) SaveSettings(ctx context.Context, settings Settings) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	current, err := s.loadSettings(ctx)
	if err != nil {
		return Settings{}, err
	}
	settings = settings.withDefaults(current.HeadingSettings)
	if err := s.saveSettings(ctx, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// ExportResult is the outcome of an export sweep.
type ExportResult struct {
	CSV      string `json:"csv"`
	DataURI  string `json:"dataUri"`
	Filename string `json:"filename"`
	Rows     int    `json:"rows"`
}

// Export collects the selection into CSV. Extra columns of a previously
// parsed CSV are carried over for rows whose id still exists.
func (s *Session) Export(ctx context.Context) (*ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if len(s.selection) == 0 {
		return nil, ErrEmptySelection
	}
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	es := nodeinfo.ExportSettings{Page: s.page.Name, Headings: settings.HeadingSettings}

	var extra []string
	if s.parsed != nil {
		extra = s.parsed.Extra()
	}

	start := time.Now()
	res, err := scheduler.Run(ctx, s.seq, scheduler.Job[scene.Node, []nodeinfo.NodeInfo, *ExportResult]{
		Label: "Exporting",
		Items: s.selection,
		Step: func(_ context.Context, _ int, node scene.Node) ([]nodeinfo.NodeInfo, error) {
			return nodeinfo.Collect(node, es), nil
		},
		Finish: func(parts [][]nodeinfo.NodeInfo) (*ExportResult, string, error) {
			var rows []nodeinfo.NodeInfo
			for _, p := range parts {
				rows = append(rows, p...)
			}
			text, err := nodeinfo.Marshal(nodeinfo.Merge(rows, s.nodeMap, extra), extra)
			if err != nil {
				return nil, "", err
			}
			return &ExportResult{
				CSV:      text,
				DataURI:  nodeinfo.DataURI(text),
				Filename: nodeinfo.Filename(s.doc.Name),
				Rows:     len(rows),
			}, exportSummary(len(rows)), nil
		},
	})
	if err != nil {
		return nil, err
	}
	s.record("export", start, res.Rows)
	s.log.Info("exported", "rows", res.Rows, "selection", len(s.selection))
	return res, nil
}

func exportSummary(rows int) string {
	switch rows {
	case 0:
		return "Nothing to export"
	case 1:
		return "Exported 1 text layer"
	}
	return fmt.Sprintf("Exported %d text layers", rows)
}

// ParseResult describes an accepted CSV.
type ParseResult struct {
	Fields    []string `json:"fields"`
	Languages []string `json:"languages"`
	Rows      int      `json:"rows"`
}

// ParseCSV replaces the session's CSV snapshot. On any error the previous
// snapshot is cleared and nothing of the new text is kept.
func (s *Session) ParseCSV(text string) (*ParseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.parseCSV(text)
}

func (s *Session) parseCSV(text string) (*ParseResult, error) {
	s.csvText, s.parsed, s.nodeMap = "", nil, nil
	parsed, err := nodeinfo.Parse(text)
	if err != nil {
		return nil, err
	}
	m, dupes := nodeinfo.BuildMap(parsed.Records)
	if dupes > 0 {
		s.log.Debug("duplicate ids in csv, later rows win", "duplicates", dupes)
	}
	s.csvText, s.parsed, s.nodeMap = text, parsed, m
	return &ParseResult{
		Fields:    append([]string{}, parsed.Fields...),
		Languages: append([]string{}, parsed.Extra()...),
		Rows:      len(parsed.Records),
	}, nil
}

// UpdateResult is the outcome of an update sweep.
type UpdateResult struct {
	Changed int      `json:"changed"`
	IDs     []string `json:"ids"`
	Message string   `json:"message"`
}

// Update reconciles the selection against the parsed CSV. When override is
// non-nil it is validated, persisted and used for this sweep.
func (s *Session) Update(ctx context.Context, override *Settings) (*UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.nodeMap == nil {
		return nil, ErrNoParsedCSV
	}
	if len(s.selection) == 0 {
		return nil, ErrEmptySelection
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if override != nil {
		merged := override.withDefaults(settings.HeadingSettings)
		if err := s.saveSettings(ctx, merged); err != nil {
			return nil, err
		}
		settings = merged
	}
	us := settings.forUpdate()
	m := s.nodeMap

	start := time.Now()
	var applied []string
	res, err := scheduler.Run(ctx, s.seq, scheduler.Job[scene.Node, []string, *UpdateResult]{
		Label: "Updating",
		Items: s.selection,
		Step: func(ctx context.Context, _ int, node scene.Node) ([]string, error) {
			ids, err := s.engine.Update(ctx, node, m, us)
			applied = append(applied, ids...)
			return ids, err
		},
		Finish: func(parts [][]string) (*UpdateResult, string, error) {
			ids := []string{}
			for _, p := range parts {
				ids = append(ids, p...)
			}
			msg := updater.Summary(len(ids))
			return &UpdateResult{Changed: len(ids), IDs: ids, Message: msg}, msg, nil
		},
	})
	if err != nil {
		// Layers written before the failure stay written.
		s.changed = applied
		return nil, err
	}
	s.changed = res.IDs
	s.record("update", start, res.Changed)
	s.log.Info("updated", "changed", res.Changed, "selection", len(s.selection))
	return res, nil
}

// PersistCSV stores the parsed CSV and the ids changed by the last update
// in shared data, so a later review can restore them.
func (s *Session) PersistCSV(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.parsed == nil {
		return 0, ErrNoParsedCSV
	}
	changed, err := json.Marshal(append([]string{}, s.changed...))
	if err != nil {
		return 0, fmt.Errorf("marshal changed ids: %w", err)
	}
	if err := s.opts.Store.Set(ctx, s.key(keyCSV), s.csvText); err != nil {
		return 0, fmt.Errorf("persist csv: %w", err)
	}
	if err := s.opts.Store.Set(ctx, s.key(keyChanged), string(changed)); err != nil {
		return 0, fmt.Errorf("persist changed ids: %w", err)
	}
	return len(s.parsed.Records), nil
}

// Review restores the persisted CSV snapshot and returns it with the ids
// the persisting update changed.
func (s *Session) Review(ctx context.Context) (*ParseResult, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	text, ok, err := s.opts.Store.Get(ctx, s.key(keyCSV))
	if err != nil {
		return nil, nil, fmt.Errorf("load persisted csv: %w", err)
	}
	if !ok {
		return nil, nil, ErrNothingPersisted
	}
	res, err := s.parseCSV(text)
	if err != nil {
		return nil, nil, err
	}

	ids := []string{}
	raw, ok, err := s.opts.Store.Get(ctx, s.key(keyChanged))
	if err != nil {
		return nil, nil, fmt.Errorf("load changed ids: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			s.log.Warn("discarding unreadable changed ids", "error", err)
			ids = []string{}
		}
	}
	s.changed = ids
	return res, ids, nil
}

// Resize records a window size request, raised to the minimum dimensions.
func (s *Session) Resize(size Size) Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.window = Size{
		Width:  max(size.Width, s.opts.MinWindow.Width),
		Height: max(size.Height, s.opts.MinWindow.Height),
	}
	return s.window
}

// TableResult describes a generated table.
type TableResult struct {
	ID      string `json:"id"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// CreateTable generates a table from CSV, places it below the current
// page's content and selects it.
func (s *Session) CreateTable(text, name string) (*TableResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	table, err := tablegen.Generate(text, name, tablegen.DefaultLayout())
	if err != nil {
		return nil, err
	}
	bottom := 0.0
	for _, n := range s.page.Nodes {
		_, y := n.Position()
		bottom = max(bottom, y+100)
	}
	table.Frame.Y = bottom
	s.page.Nodes = append(s.page.Nodes, table.Frame)
	s.selection = []scene.Node{table.Frame}
	s.log.Info("table created", "node_id", table.Frame.ID, "rows", table.Rows, "columns", table.Columns)
	return &TableResult{ID: table.Frame.ID, Rows: table.Rows, Columns: table.Columns}, nil
}

// ReadTable reads the first selected node back to CSV.
func (s *Session) ReadTable() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if len(s.selection) == 0 {
		return "", ErrEmptySelection
	}
	return tablegen.Read(s.selection[0])
}

func (s *Session) record(op string, start time.Time, items int) {
	if s.opts.Sweeps != nil {
		s.opts.Sweeps.Record(op, time.Since(start), items)
	}
}
