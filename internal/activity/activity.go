// Package activity keeps a local CSV record of the mutations this client
// performed against the backend.
package activity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// Actions recorded in the log.
const (
	ActionLogin           = "login"
	ActionRegister        = "register"
	ActionLogout          = "logout"
	ActionApplyLoan       = "apply_loan"
	ActionReviewLoan      = "review_loan"
	ActionOpenAccount     = "open_account"
	ActionDeposit         = "deposit"
	ActionWithdraw        = "withdraw"
	ActionDeleteUser      = "delete_user"
	ActionUpdateUserState = "update_user_status"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp time.Time
	Actor     string // email of the identity that acted
	Action    string
	Details   string
	EntityID  string
}

// Header is the first row of every activity log.
var Header = []string{"timestamp", "actor", "action", "details", "entity_id"}

func (e Entry) row() []string {
	return []string{e.Timestamp.UTC().Format(time.RFC3339), e.Actor, e.Action, e.Details, e.EntityID}
}

func parseRow(row []string) (Entry, error) {
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", row[0], err)
	}
	return Entry{Timestamp: ts, Actor: row[1], Action: row[2], Details: row[3], EntityID: row[4]}, nil
}

// Query selects entries from the log. Zero fields match everything.
type Query struct {
	Actor  string
	Action string
	Since  time.Time // entries at or after this instant
	Limit  int       // keep only the newest Limit matches
}

// Matches reports whether e satisfies every set field of q except Limit.
func (q Query) Matches(e Entry) bool {
	if q.Actor != "" && e.Actor != q.Actor {
		return false
	}
	if q.Action != "" && e.Action != q.Action {
		return false
	}
	return q.Since.IsZero() || !e.Timestamp.Before(q.Since)
}

// Read streams the log at path and returns the entries matching q, oldest
// first. A missing log is empty.
func Read(path string, q Query) ([]Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()
	return scan(f, q)
}

func scan(r io.Reader, q Query) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.ReuseRecord = true

	var matched []Entry
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return matched, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading activity log: %w", err)
		}
		if line == 1 && slices.Equal(row, Header) {
			continue
		}
		e, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !q.Matches(e) {
			continue
		}
		matched = append(matched, e)
		if q.Limit > 0 && len(matched) > q.Limit {
			matched = matched[1:]
		}
	}
}

// Recorder appends entries to the log at Path. A nil Recorder or one with
// an empty path records nothing.
type Recorder struct {
	Path string
	Now  func() time.Time
}

// Record appends one entry stamped with the current time.
func (r *Recorder) Record(actor, action, details, entityID string) error {
	if r == nil || r.Path == "" {
		return nil
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return r.append(Entry{Timestamp: now(), Actor: actor, Action: action, Details: details, EntityID: entityID})
}

func (r *Recorder) append(e Entry) error {
	if err := os.MkdirAll(filepath.Dir(r.Path), 0o700); err != nil {
		return fmt.Errorf("creating activity dir: %w", err)
	}
	f, err := os.OpenFile(r.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(e.row()); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
