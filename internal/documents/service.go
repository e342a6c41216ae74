package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"expiry-backend/internal/expiry"
	"expiry-backend/internal/shared/metrics"
	"expiry-backend/internal/shared/telemetry"
)

const (
	maxNameLen   = 200
	maxNumberLen = 100
	maxNotesLen  = 2000
)

var tracer = otel.Tracer("expiry-backend/internal/documents")

// WriteResult is returned by every mutation: the written record plus the
// owner's list fetched again after the write.
type WriteResult struct {
	Document  Document
	Documents []Document
}

// Service applies validation and owner scoping on top of a Repo.
type Service struct {
	Repo Repo
	Now  func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// List returns the owner's documents by ascending expiry date.
func (s *Service) List(ctx context.Context, owner string) ([]Document, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	docs, err := s.Repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, storeFailure("list", owner, "", err)
	}
	return docs, nil
}

func (s *Service) Get(ctx context.Context, owner, id string) (Document, error) {
	if err := requireOwner(owner); err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Document{}, ErrNotFound
	}
	doc, err := s.Repo.GetByID(ctx, owner, id)
	if err != nil {
		return Document{}, storeFailure("get", owner, id, err)
	}
	return doc, nil
}

// Create validates in and stores a new document for owner.
func (s *Service) Create(ctx context.Context, owner string, in Input) (WriteResult, error) {
	if err := requireOwner(owner); err != nil {
		return WriteResult{}, err
	}
	ctx, span := tracer.Start(ctx, "documents.Create", trace.WithAttributes(attribute.String("user.id", owner)))
	defer span.End()

	doc, err := validateCreate(in)
	if err != nil {
		metrics.IncDocumentWrite("create", "invalid")
		return WriteResult{}, err
	}
	now := s.now()
	doc.ID = uuid.NewString()
	doc.UserID = owner
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if err := s.Repo.Create(ctx, doc); err != nil {
		recordSpanError(span, err)
		metrics.IncDocumentWrite("create", "error")
		return WriteResult{}, storeFailure("create", owner, doc.ID, err)
	}
	metrics.IncDocumentWrite("create", "ok")
	return s.refetch(ctx, owner, doc)
}

// Update applies a partial change. Absent fields are kept, optional fields
// sent as empty strings are cleared and required fields may not be blanked.
func (s *Service) Update(ctx context.Context, owner, id string, in Input) (WriteResult, error) {
	if err := requireOwner(owner); err != nil {
		return WriteResult{}, err
	}
	ctx, span := tracer.Start(ctx, "documents.Update", trace.WithAttributes(
		attribute.String("user.id", owner),
		attribute.String("document.id", id),
	))
	defer span.End()

	patch, err := validatePatch(in)
	if err != nil {
		metrics.IncDocumentWrite("update", "invalid")
		return WriteResult{}, err
	}
	release, ok := s.acquire(id)
	if !ok {
		metrics.IncDocumentWrite("update", "busy")
		return WriteResult{}, ErrRecordBusy
	}
	defer release()

	doc, err := s.Repo.Update(ctx, owner, id, patch, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.IncDocumentWrite("update", "not_found")
			return WriteResult{}, ErrNotFound
		}
		recordSpanError(span, err)
		metrics.IncDocumentWrite("update", "error")
		return WriteResult{}, storeFailure("update", owner, id, err)
	}
	metrics.IncDocumentWrite("update", "ok")
	return s.refetch(ctx, owner, doc)
}

// Delete removes the document when confirmed is true and returns the
// owner's remaining documents.
func (s *Service) Delete(ctx context.Context, owner, id string, confirmed bool) ([]Document, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	ctx, span := tracer.Start(ctx, "documents.Delete", trace.WithAttributes(
		attribute.String("user.id", owner),
		attribute.String("document.id", id),
	))
	defer span.End()

	release, ok := s.acquire(id)
	if !ok {
		metrics.IncDocumentWrite("delete", "busy")
		return nil, ErrRecordBusy
	}
	defer release()

	if err := s.Repo.Delete(ctx, owner, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.IncDocumentWrite("delete", "not_found")
			return nil, ErrNotFound
		}
		recordSpanError(span, err)
		metrics.IncDocumentWrite("delete", "error")
		return nil, storeFailure("delete", owner, id, err)
	}
	metrics.IncDocumentWrite("delete", "ok")

	docs, err := s.Repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, storeFailure("list", owner, "", err)
	}
	return docs, nil
}

func (s *Service) refetch(ctx context.Context, owner string, doc Document) (WriteResult, error) {
	docs, err := s.Repo.ListByOwner(ctx, owner)
	if err != nil {
		return WriteResult{}, storeFailure("list", owner, "", err)
	}
	return WriteResult{Document: doc, Documents: docs}, nil
}

// acquire marks id as having a mutation in flight. ok is false when one
// already is.
func (s *Service) acquire(id string) (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == nil {
		s.inFlight = make(map[string]struct{})
	}
	if _, busy := s.inFlight[id]; busy {
		return nil, false
	}
	s.inFlight[id] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inFlight, id)
		s.mu.Unlock()
	}, true
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	return nil
}

// storeFailure passes ErrNotFound through and wraps anything else as ErrStore.
func storeFailure(op, owner, id string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	telemetry.Error("documents.store_failed", map[string]any{
		"op":          op,
		"user_id":     owner,
		"document_id": id,
		"error":       err.Error(),
	})
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func validateCreate(in Input) (Document, error) {
	fields := map[string]string{}
	var doc Document

	doc.DocumentType = Type(trimmed(in.DocumentType))
	switch {
	case doc.DocumentType == "":
		fields["documentType"] = "is required"
	case !doc.DocumentType.Valid():
		fields["documentType"] = "is not a supported document type"
	}
	doc.DocumentName = trimmed(in.DocumentName)
	checkRequiredText(fields, "documentName", doc.DocumentName, maxNameLen)
	doc.PersonName = trimmed(in.PersonName)
	checkRequiredText(fields, "personName", doc.PersonName, maxNameLen)

	doc.Relationship = Relationship(trimmed(in.Relationship))
	if doc.Relationship == "" {
		doc.Relationship = RelationshipSelf
	} else if !doc.Relationship.Valid() {
		fields["relationship"] = "is not a supported relationship"
	}

	if raw := trimmed(in.ExpiryDate); raw == "" {
		fields["expiryDate"] = "is required"
	} else if d, err := expiry.ParseDate(raw); err != nil {
		fields["expiryDate"] = "must be a date in YYYY-MM-DD format"
	} else {
		doc.ExpiryDate = d
	}
	if raw := trimmed(in.IssueDate); raw != "" {
		if d, err := expiry.ParseDate(raw); err != nil {
			fields["issueDate"] = "must be a date in YYYY-MM-DD format"
		} else {
			doc.IssueDate = &d
		}
	}

	doc.DocumentNumber = trimmed(in.DocumentNumber)
	checkMaxLen(fields, "documentNumber", doc.DocumentNumber, maxNumberLen)
	doc.Notes = trimmed(in.Notes)
	checkMaxLen(fields, "notes", doc.Notes, maxNotesLen)

	if len(fields) > 0 {
		return Document{}, &ValidationError{Fields: fields}
	}
	return doc, nil
}

func validatePatch(in Input) (Patch, error) {
	fields := map[string]string{}
	var patch Patch

	if in.DocumentType != nil {
		t := Type(trimmed(in.DocumentType))
		switch {
		case t == "":
			fields["documentType"] = "is required"
		case !t.Valid():
			fields["documentType"] = "is not a supported document type"
		default:
			patch.DocumentType = &t
		}
	}
	if in.DocumentName != nil {
		name := trimmed(in.DocumentName)
		checkRequiredText(fields, "documentName", name, maxNameLen)
		patch.DocumentName = &name
	}
	if in.PersonName != nil {
		name := trimmed(in.PersonName)
		checkRequiredText(fields, "personName", name, maxNameLen)
		patch.PersonName = &name
	}
	if in.Relationship != nil {
		r := Relationship(trimmed(in.Relationship))
		switch {
		case r == "":
			fields["relationship"] = "is required"
		case !r.Valid():
			fields["relationship"] = "is not a supported relationship"
		default:
			patch.Relationship = &r
		}
	}
	if in.ExpiryDate != nil {
		if d, err := expiry.ParseDate(*in.ExpiryDate); err != nil {
			fields["expiryDate"] = "must be a date in YYYY-MM-DD format"
		} else {
			patch.ExpiryDate = &d
		}
	}
	if in.IssueDate != nil {
		raw := trimmed(in.IssueDate)
		if raw == "" {
			cleared := time.Time{}
			patch.IssueDate = &cleared
		} else if d, err := expiry.ParseDate(raw); err != nil {
			fields["issueDate"] = "must be a date in YYYY-MM-DD format"
		} else {
			patch.IssueDate = &d
		}
	}
	if in.DocumentNumber != nil {
		number := trimmed(in.DocumentNumber)
		checkMaxLen(fields, "documentNumber", number, maxNumberLen)
		patch.DocumentNumber = &number
	}
	if in.Notes != nil {
		notes := trimmed(in.Notes)
		checkMaxLen(fields, "notes", notes, maxNotesLen)
		patch.Notes = &notes
	}

	if len(fields) > 0 {
		return Patch{}, &ValidationError{Fields: fields}
	}
	return patch, nil
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func checkRequiredText(fields map[string]string, name, value string, limit int) {
	if value == "" {
		fields[name] = "is required"
		return
	}
	checkMaxLen(fields, name, value, limit)
}

func checkMaxLen(fields map[string]string, name, value string, limit int) {
	if len([]rune(value)) > limit {
		fields[name] = fmt.Sprintf("must be at most %d characters", limit)
	}
}
