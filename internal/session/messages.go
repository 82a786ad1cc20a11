package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgallion1/figsync/internal/classify"
	"github.com/dgallion1/figsync/internal/nodeinfo"
	"github.com/dgallion1/figsync/internal/scheduler"
	"github.com/dgallion1/figsync/internal/store"
	"github.com/dgallion1/figsync/internal/tablegen"
	"github.com/dgallion1/figsync/internal/updater"
)

// Message types accepted from the UI.
const (
	MsgExport       = "export"
	MsgParseCSV     = "parse-csv"
	MsgUpdate       = "update"
	MsgGetSettings  = "get-settings"
	MsgSaveSettings = "save-settings"
	MsgPersistCSV   = "persist-csv"
	MsgRelaunch     = "relaunch"
	MsgCreateTable  = "create-table"
	MsgReadTable    = "read-table"
	MsgResize       = "resize"
)

// Reply types sent back to the UI.
const (
	ReplyExportReady  = "export-ready"
	ReplyCSVParsed    = "csv-parsed"
	ReplyUpdateDone   = "update-done"
	ReplySettings     = "settings"
	ReplyCSVPersisted = "csv-persisted"
	ReplyReview       = "review"
	ReplyTableCreated = "table-created"
	ReplyTableRead    = "table-read"
	ReplyResized      = "resized"
	ReplyError        = "error"
)

// ErrUnknownMessage is returned for message types outside the protocol.
var ErrUnknownMessage = errors.New("unknown message type")

// Message is one UI request.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Reply is one response to the UI.
type Reply struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ErrorPayload carries a user-visible failure.
type ErrorPayload struct {
	Message string `json:"message"`
}

type parsePayload struct {
	CSV string `json:"csv"`
}

type updatePayload struct {
	Settings *Settings `json:"settings,omitempty"`
}

type relaunchPayload struct {
	Command string `json:"command"`
}

type tablePayload struct {
	CSV  string `json:"csv"`
	Name string `json:"name,omitempty"`
}

type persistedPayload struct {
	Rows int `json:"rows"`
}

type reviewPayload struct {
	IDs []string `json:"ids"`
}

type tableReadPayload struct {
	CSV string `json:"csv"`
}

// Handle answers one message. Failures never escape: they become a single
// error reply and an error notification. Changes applied before a failure
// are kept.
func (s *Session) Handle(ctx context.Context, msg Message) []Reply {
	replies, err := s.dispatch(ctx, msg)
	if err != nil {
		s.fail(msg.Type, err)
		return []Reply{{Type: ReplyError, Payload: ErrorPayload{Message: err.Error()}}}
	}
	return replies
}

func (s *Session) dispatch(ctx context.Context, msg Message) ([]Reply, error) {
	switch msg.Type {
	case MsgExport:
		res, err := s.Export(ctx)
		if err != nil {
			return nil, err
		}
		return one(ReplyExportReady, res), nil

	case MsgParseCSV:
		var p parsePayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		res, err := s.ParseCSV(p.CSV)
		if err != nil {
			return nil, err
		}
		return one(ReplyCSVParsed, res), nil

	case MsgUpdate:
		var p updatePayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		res, err := s.Update(ctx, p.Settings)
		if err != nil {
			return nil, err
		}
		return one(ReplyUpdateDone, res), nil

	case MsgGetSettings:
		settings, err := s.GetSettings(ctx)
		if err != nil {
			return nil, err
		}
		return one(ReplySettings, settings), nil

	case MsgSaveSettings:
		var p Settings
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		settings, err := s.SaveSettings(ctx, p)
		if err != nil {
			return nil, err
		}
		return one(ReplySettings, settings), nil

	case MsgPersistCSV:
		rows, err := s.PersistCSV(ctx)
		if err != nil {
			return nil, err
		}
		return one(ReplyCSVPersisted, persistedPayload{Rows: rows}), nil

	case MsgRelaunch:
		var p relaunchPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		if p.Command != updater.RelaunchCommand {
			return nil, fmt.Errorf("%w: relaunch %q", ErrUnknownMessage, p.Command)
		}
		res, ids, err := s.Review(ctx)
		if err != nil {
			return nil, err
		}
		return []Reply{
			{Type: ReplyCSVParsed, Payload: res},
			{Type: ReplyReview, Payload: reviewPayload{IDs: ids}},
		}, nil

	case MsgCreateTable:
		var p tablePayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		res, err := s.CreateTable(p.CSV, p.Name)
		if err != nil {
			return nil, err
		}
		return one(ReplyTableCreated, res), nil

	case MsgReadTable:
		text, err := s.ReadTable()
		if err != nil {
			return nil, err
		}
		return one(ReplyTableRead, tableReadPayload{CSV: text}), nil

	case MsgResize:
		var p Size
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return one(ReplyResized, s.Resize(p)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
}

func one(typ string, payload any) []Reply {
	return []Reply{{Type: typ, Payload: payload}}
}

// decode reads a message payload; an absent payload leaves v untouched.
func decode(msg Message, v any) error {
	if len(msg.Payload) == 0 || string(msg.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.Type, err)
	}
	return nil
}

// IsUserError reports failures caused by user input rather than the host.
func IsUserError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.Is(err, ErrEmptySelection) ||
		errors.Is(err, ErrNoParsedCSV) ||
		errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrNothingPersisted) ||
		errors.Is(err, ErrUnknownMessage) ||
		errors.Is(err, nodeinfo.ErrMissingColumn) ||
		errors.Is(err, nodeinfo.ErrInvalidCSV) ||
		errors.Is(err, classify.ErrInvalidHeadings) ||
		errors.Is(err, tablegen.ErrEmptyTable) ||
		errors.Is(err, store.ErrInvalidKey) ||
		errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr)
}

func (s *Session) fail(msgType string, err error) {
	if IsUserError(err) {
		s.log.Warn("message rejected", "type", msgType, "error", err)
	} else {
		s.log.Error("message failed", "type", msgType, "error", err)
	}
	s.center.Notify(err.Error(), scheduler.NotifyOptions{Error: true, Timeout: scheduler.DoneTimeout})
}
