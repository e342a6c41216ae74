package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func str(s string) *string { return &s }

func validInput() Input {
	return Input{
		DocumentType: str("Passport"),
		DocumentName: str("My passport"),
		ExpiryDate:   str("2030-01-15"),
		PersonName:   str("Aisha"),
	}
}

type ServiceSuite struct {
	suite.Suite
	repo *MemoryRepo
	svc  *Service
	now  time.Time
	ctx  context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.repo = NewMemoryRepo()
	s.now = time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)
	s.svc = NewService(s.repo)
	s.svc.Now = func() time.Time { return s.now }
	s.ctx = context.Background()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestCreateDefaultsRelationshipAndStampsTimes() {
	result, err := s.svc.Create(s.ctx, "u1", validInput())
	s.Require().NoError(err)

	doc := result.Document
	s.NotEmpty(doc.ID)
	s.Equal("u1", doc.UserID)
	s.Equal(RelationshipSelf, doc.Relationship)
	s.Equal(day(2030, 1, 15), doc.ExpiryDate)
	s.Equal(s.now, doc.CreatedAt)
	s.Equal(s.now, doc.UpdatedAt)
	s.Len(result.Documents, 1)
}

func (s *ServiceSuite) TestCreateReportsEveryInvalidField() {
	_, err := s.svc.Create(s.ctx, "u1", Input{
		DocumentType: str("Library card"),
		DocumentName: str("   "),
		ExpiryDate:   str("15/01/2030"),
		Relationship: str("Cousin"),
		IssueDate:    str("yesterday"),
	})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.ErrorIs(err, ErrInvalidInput)
	for _, field := range []string{"documentType", "documentName", "personName", "expiryDate", "relationship", "issueDate"} {
		s.Contains(verr.Fields, field)
	}
}

func (s *ServiceSuite) TestCreateRequiresExpiryDate() {
	in := validInput()
	in.ExpiryDate = nil
	_, err := s.svc.Create(s.ctx, "u1", in)
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal("is required", verr.Fields["expiryDate"])
}

func (s *ServiceSuite) TestWriteReturnsRefetchedListInExpiryOrder() {
	late := validInput()
	late.ExpiryDate = str("2031-01-01")
	_, err := s.svc.Create(s.ctx, "u1", late)
	s.Require().NoError(err)

	early := validInput()
	early.ExpiryDate = str("2025-02-01")
	result, err := s.svc.Create(s.ctx, "u1", early)
	s.Require().NoError(err)

	s.Require().Len(result.Documents, 2)
	s.Equal(result.Document.ID, result.Documents[0].ID)
}

func (s *ServiceSuite) TestUpdatePartialKeepsAbsentAndClearsEmptyOptional() {
	in := validInput()
	in.Notes = str("in the safe")
	in.DocumentNumber = str("P1234")
	in.IssueDate = str("2020-01-15")
	created, err := s.svc.Create(s.ctx, "u1", in)
	s.Require().NoError(err)

	s.now = s.now.Add(time.Hour)
	result, err := s.svc.Update(s.ctx, "u1", created.Document.ID, Input{
		Notes:      str(""),
		IssueDate:  str(""),
		PersonName: str("Omar"),
	})
	s.Require().NoError(err)

	doc := result.Document
	s.Empty(doc.Notes)
	s.Nil(doc.IssueDate)
	s.Equal("P1234", doc.DocumentNumber)
	s.Equal("Omar", doc.PersonName)
	s.Equal("My passport", doc.DocumentName)
	s.Equal(s.now, doc.UpdatedAt)
	s.Equal(created.Document.CreatedAt, doc.CreatedAt)
}

func (s *ServiceSuite) TestUpdateRejectsBlankRequiredField() {
	created, err := s.svc.Create(s.ctx, "u1", validInput())
	s.Require().NoError(err)

	_, err = s.svc.Update(s.ctx, "u1", created.Document.ID, Input{DocumentName: str(" ")})
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "documentName")
}

func (s *ServiceSuite) TestOwnerIsolation() {
	created, err := s.svc.Create(s.ctx, "owner-a", validInput())
	s.Require().NoError(err)
	id := created.Document.ID

	_, err = s.svc.Get(s.ctx, "owner-b", id)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.svc.Update(s.ctx, "owner-b", id, Input{DocumentName: str("mine now")})
	s.ErrorIs(err, ErrNotFound)
	_, err = s.svc.Delete(s.ctx, "owner-b", id, true)
	s.ErrorIs(err, ErrNotFound)

	docs, err := s.svc.List(s.ctx, "owner-b")
	s.Require().NoError(err)
	s.Empty(docs)

	doc, err := s.svc.Get(s.ctx, "owner-a", id)
	s.Require().NoError(err)
	s.Equal("My passport", doc.DocumentName)
}

func (s *ServiceSuite) TestDeleteRequiresConfirmation() {
	created, err := s.svc.Create(s.ctx, "u1", validInput())
	s.Require().NoError(err)

	_, err = s.svc.Delete(s.ctx, "u1", created.Document.ID, false)
	s.ErrorIs(err, ErrConfirmationRequired)

	docs, err := s.svc.Delete(s.ctx, "u1", created.Document.ID, true)
	s.Require().NoError(err)
	s.Empty(docs)

	_, err = s.svc.Get(s.ctx, "u1", created.Document.ID)
	s.ErrorIs(err, ErrNotFound)
}

type blockingRepo struct {
	*MemoryRepo
	entered chan struct{}
	release chan struct{}
}

func (r *blockingRepo) Update(ctx context.Context, owner, id string, patch Patch, at time.Time) (Document, error) {
	close(r.entered)
	<-r.release
	return r.MemoryRepo.Update(ctx, owner, id, patch, at)
}

func TestConcurrentMutationOfSameRecordIsBusy(t *testing.T) {
	repo := &blockingRepo{
		MemoryRepo: NewMemoryRepo(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	svc := NewService(repo)
	ctx := context.Background()
	created, err := svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)
	id := created.Document.ID

	done := make(chan error, 1)
	go func() {
		_, err := svc.Update(ctx, "u1", id, Input{Notes: str("first")})
		done <- err
	}()
	<-repo.entered

	_, err = svc.Update(ctx, "u1", id, Input{Notes: str("second")})
	assert.ErrorIs(t, err, ErrRecordBusy)
	_, err = svc.Delete(ctx, "u1", id, true)
	assert.ErrorIs(t, err, ErrRecordBusy)

	close(repo.release)
	require.NoError(t, <-done)

	doc, err := svc.Get(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "first", doc.Notes)

	_, err = svc.Delete(ctx, "u1", id, true)
	assert.NoError(t, err, "guard must be released after the first mutation")
}

type failingRepo struct {
	*MemoryRepo
}

var errDBDown = errors.New("connection refused")

func (failingRepo) ListByOwner(ctx context.Context, owner string) ([]Document, error) {
	return nil, errDBDown
}

func (failingRepo) Create(ctx context.Context, doc Document) error {
	return errDBDown
}

func TestStoreFailuresAreWrapped(t *testing.T) {
	svc := NewService(failingRepo{NewMemoryRepo()})
	ctx := context.Background()

	_, err := svc.List(ctx, "u1")
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, errDBDown)

	_, err = svc.Create(ctx, "u1", validInput())
	assert.ErrorIs(t, err, ErrStore)
}

func TestServiceRequiresOwner(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, err := svc.List(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
