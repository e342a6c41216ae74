// Package stats computes the dashboard aggregates.
package stats

import (
	"sort"
	"time"

	"expiry-backend/internal/documents"
	"expiry-backend/internal/expiry"
)

const (
	UpcomingLimit        = 5
	RecentlyExpiredLimit = 3
)

// Summary counts documents per coarse expiry window. Total always equals the
// sum of the other three.
type Summary struct {
	Total    int `json:"total"`
	Expired  int `json:"expired"`
	Expiring int `json:"expiring"`
	Safe     int `json:"safe"`
}

func Compute(docs []documents.Document, now time.Time, loc *time.Location) Summary {
	var s Summary
	for _, doc := range docs {
		switch expiry.Coarse(expiry.DaysUntil(doc.ExpiryDate, now, loc)) {
		case expiry.WindowExpired:
			s.Expired++
		case expiry.WindowExpiring:
			s.Expiring++
		default:
			s.Safe++
		}
	}
	s.Total = s.Expired + s.Expiring + s.Safe
	return s
}

// Upcoming returns up to n documents expiring within 0..90 days, soonest first.
func Upcoming(docs []documents.Document, now time.Time, loc *time.Location, n int) []documents.Document {
	n = max(n, 0)
	out := make([]documents.Document, 0, n)
	for _, doc := range docs {
		if expiry.Coarse(expiry.DaysUntil(doc.ExpiryDate, now, loc)) == expiry.WindowExpiring {
			out = append(out, doc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return expiry.DateOnly(out[i].ExpiryDate).Before(expiry.DateOnly(out[j].ExpiryDate))
	})
	return head(out, n)
}

// RecentlyExpired returns the first n expired documents in the order given.
// With the repository's ascending order these are the longest expired, not
// the most recent; callers rely on that order being kept.
func RecentlyExpired(docs []documents.Document, now time.Time, loc *time.Location, n int) []documents.Document {
	n = max(n, 0)
	out := make([]documents.Document, 0, n)
	for _, doc := range docs {
		if expiry.DaysUntil(doc.ExpiryDate, now, loc) < 0 {
			out = append(out, doc)
		}
	}
	return head(out, n)
}

func head(docs []documents.Document, n int) []documents.Document {
	if len(docs) > n {
		return docs[:n]
	}
	return docs
}
