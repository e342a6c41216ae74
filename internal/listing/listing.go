// Package listing filters and sorts a user's documents for the list view.
package listing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"expiry-backend/internal/documents"
	"expiry-backend/internal/expiry"
)

// Status selects documents by their coarse expiry window.
type Status string

const (
	StatusAll      Status = "all"
	StatusExpired  Status = "expired"
	StatusExpiring Status = "expiring"
	StatusSafe     Status = "safe"
)

// SortKey is the field the list is ordered by, always ascending.
type SortKey string

const (
	SortExpiryDate   SortKey = "expiry_date"
	SortDocumentName SortKey = "document_name"
	SortPersonName   SortKey = "person_name"
)

var (
	ErrUnknownStatus = errors.New("unknown status filter")
	ErrUnknownSort   = errors.New("unknown sort key")
)

// Query is the list view's filter and sort selection.
type Query struct {
	Text   string
	Status Status
	Sort   SortKey
}

// ParseStatus accepts the status query value; empty means all.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return StatusAll, nil
	case StatusAll, StatusExpired, StatusExpiring, StatusSafe:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
}

// ParseSort accepts the sort query value; empty means expiry date.
func ParseSort(raw string) (SortKey, error) {
	switch s := SortKey(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return SortExpiryDate, nil
	case SortExpiryDate, SortDocumentName, SortPersonName:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSort, raw)
	}
}

// Lister applies queries using one collation locale and one timezone for today.
type Lister struct {
	tag language.Tag
	loc *time.Location
}

// New builds a Lister. An unparseable locale falls back to English and a nil
// location to UTC.
func New(locale string, loc *time.Location) *Lister {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.English
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Lister{tag: tag, loc: loc}
}

// Apply filters docs by text then status and returns a stably sorted copy.
// docs is never modified.
func (l *Lister) Apply(docs []documents.Document, q Query, now time.Time) []documents.Document {
	folder := cases.Fold()
	needle := folder.String(q.Text)

	out := make([]documents.Document, 0, len(docs))
	for _, doc := range docs {
		if needle != "" && !matchesText(folder, doc, needle) {
			continue
		}
		if !l.matchesStatus(doc, q.Status, now) {
			continue
		}
		out = append(out, doc)
	}

	switch q.Sort {
	case SortDocumentName, SortPersonName:
		// Collators keep internal buffers, so each call gets its own.
		col := collate.New(l.tag, collate.IgnoreCase)
		key := func(d documents.Document) string { return d.DocumentName }
		if q.Sort == SortPersonName {
			key = func(d documents.Document) string { return d.PersonName }
		}
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(key(out[i]), key(out[j])) < 0
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return expiry.DateOnly(out[i].ExpiryDate).Before(expiry.DateOnly(out[j].ExpiryDate))
		})
	}
	return out
}

func matchesText(folder cases.Caser, doc documents.Document, needle string) bool {
	for _, field := range []string{doc.DocumentName, doc.PersonName, string(doc.DocumentType)} {
		if strings.Contains(folder.String(field), needle) {
			return true
		}
	}
	return false
}

func (l *Lister) matchesStatus(doc documents.Document, status Status, now time.Time) bool {
	if status == "" || status == StatusAll {
		return true
	}
	window := expiry.Coarse(expiry.DaysUntil(doc.ExpiryDate, now, l.loc))
	return string(window) == string(status)
}
