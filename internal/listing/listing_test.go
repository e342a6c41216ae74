package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expiry-backend/internal/documents"
)

var now = time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)

func doc(id, name, person string, typ documents.Type, daysFromNow int) documents.Document {
	return documents.Document{
		ID:           id,
		DocumentName: name,
		PersonName:   person,
		DocumentType: typ,
		ExpiryDate:   time.Date(2025, 1, 1+daysFromNow, 0, 0, 0, 0, time.UTC),
	}
}

func fixture() []documents.Document {
	return []documents.Document{
		doc("old", "Gym card", "Aisha", documents.TypeMembership, -40),
		doc("soon", "Residence visa", "omar", documents.TypeVisa, 10),
		doc("edge", "Car insurance", "Zara", documents.TypeInsurancePolicy, 90),
		doc("far", "Passport", "Émile", documents.TypePassport, 91),
		doc("today", "Driving licence", "Bilal", documents.TypeDrivingLicense, 0),
	}
}

func ids(docs []documents.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestStatusFilterPartitionsDocuments(t *testing.T) {
	l := New("en", time.UTC)
	docs := fixture()

	expired := l.Apply(docs, Query{Status: StatusExpired}, now)
	expiring := l.Apply(docs, Query{Status: StatusExpiring}, now)
	safe := l.Apply(docs, Query{Status: StatusSafe}, now)

	assert.Equal(t, []string{"old"}, ids(expired))
	assert.ElementsMatch(t, []string{"soon", "edge", "today"}, ids(expiring))
	assert.Equal(t, []string{"far"}, ids(safe))
	assert.Equal(t, len(docs), len(expired)+len(expiring)+len(safe))
}

func TestTextFilterIsCaseInsensitiveAcrossFields(t *testing.T) {
	l := New("en", time.UTC)
	docs := fixture()

	assert.Equal(t, []string{"soon"}, ids(l.Apply(docs, Query{Text: "OMAR"}, now)))
	assert.Equal(t, []string{"soon"}, ids(l.Apply(docs, Query{Text: "visa"}, now)))
	assert.Equal(t, []string{"edge"}, ids(l.Apply(docs, Query{Text: "insurance policy"}, now)))
	assert.Empty(t, l.Apply(docs, Query{Text: "   "}, now))
	assert.Empty(t, l.Apply(docs, Query{Text: "visa "}, now))
	assert.ElementsMatch(t, []string{"old", "soon", "edge", "today"}, ids(l.Apply(docs, Query{Text: " "}, now)))
	assert.Empty(t, l.Apply(docs, Query{Text: "nothing matches"}, now))
}

func TestFilteringPrecedesSorting(t *testing.T) {
	l := New("en", time.UTC)
	got := l.Apply(fixture(), Query{Text: "a", Status: StatusExpiring, Sort: SortPersonName}, now)
	assert.Equal(t, []string{"today", "soon", "edge"}, ids(got))
}

func TestSortByExpiryDefault(t *testing.T) {
	l := New("en", time.UTC)
	got := l.Apply(fixture(), Query{}, now)
	assert.Equal(t, []string{"old", "today", "soon", "edge", "far"}, ids(got))
}

func TestSortByNameUsesCollation(t *testing.T) {
	l := New("en", time.UTC)
	got := l.Apply(fixture(), Query{Sort: SortPersonName}, now)
	// É sorts with E, and lowercase omar is not pushed after uppercase names.
	assert.Equal(t, []string{"old", "today", "far", "soon", "edge"}, ids(got))

	got = l.Apply(fixture(), Query{Sort: SortDocumentName}, now)
	assert.Equal(t, []string{"edge", "today", "old", "far", "soon"}, ids(got))
}

func TestSortIsStable(t *testing.T) {
	l := New("en", time.UTC)
	docs := []documents.Document{
		doc("1", "Same", "A", documents.TypeOther, 5),
		doc("2", "Same", "B", documents.TypeOther, 5),
		doc("3", "Same", "C", documents.TypeOther, 5),
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids(l.Apply(docs, Query{Sort: SortDocumentName}, now)))
	assert.Equal(t, []string{"1", "2", "3"}, ids(l.Apply(docs, Query{Sort: SortExpiryDate}, now)))
}

func TestApplyIsPureAndIdempotent(t *testing.T) {
	l := New("en", time.UTC)
	docs := fixture()
	before := ids(docs)
	q := Query{Sort: SortDocumentName}

	first := l.Apply(docs, q, now)
	second := l.Apply(docs, q, now)
	again := l.Apply(first, q, now)

	assert.Equal(t, before, ids(docs), "input must not be reordered")
	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, ids(first), ids(again))
}

func TestStatusUsesConfiguredTimezone(t *testing.T) {
	dubai := time.FixedZone("GST", 4*60*60)
	// 22:00 UTC on Jan 1 is already Jan 2 in Dubai, so a Jan 1 expiry is past.
	late := time.Date(2025, 1, 1, 22, 0, 0, 0, time.UTC)
	docs := []documents.Document{doc("d", "Visa", "A", documents.TypeVisa, 0)}

	assert.Len(t, New("en", time.UTC).Apply(docs, Query{Status: StatusExpiring}, late), 1)
	assert.Len(t, New("en", dubai).Apply(docs, Query{Status: StatusExpired}, late), 1)
}

func TestParseStatusAndSort(t *testing.T) {
	s, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusAll, s)
	s, err = ParseStatus(" Expiring ")
	require.NoError(t, err)
	assert.Equal(t, StatusExpiring, s)
	_, err = ParseStatus("soon")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	k, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortExpiryDate, k)
	k, err = ParseSort("person_name")
	require.NoError(t, err)
	assert.Equal(t, SortPersonName, k)
	_, err = ParseSort("created_at")
	assert.ErrorIs(t, err, ErrUnknownSort)
}

func TestNewFallsBackOnBadLocale(t *testing.T) {
	l := New("!!", nil)
	assert.NotNil(t, l.loc)
	assert.Len(t, l.Apply(fixture(), Query{Sort: SortPersonName}, now), 5)
}
