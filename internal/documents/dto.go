package documents

import (
	"time"

	"expiry-backend/internal/expiry"
)

// Input is the create/update request body. A nil field was not sent.
type Input struct {
	DocumentType   *string `json:"documentType"`
	DocumentName   *string `json:"documentName"`
	DocumentNumber *string `json:"documentNumber"`
	IssueDate      *string `json:"issueDate"`
	ExpiryDate     *string `json:"expiryDate"`
	PersonName     *string `json:"personName"`
	Relationship   *string `json:"relationship"`
	Notes          *string `json:"notes"`
}

// DocumentResponse is the outward-facing representation of a document,
// decorated with its expiry classification relative to today.
type DocumentResponse struct {
	ID                string            `json:"id"`
	DocumentType      Type              `json:"documentType"`
	DocumentName      string            `json:"documentName"`
	DocumentNumber    string            `json:"documentNumber,omitempty"`
	IssueDate         string            `json:"issueDate,omitempty"`
	IssueDateDisplay  string            `json:"issueDateDisplay,omitempty"`
	ExpiryDate        string            `json:"expiryDate"`
	ExpiryDateDisplay string            `json:"expiryDateDisplay"`
	PersonName        string            `json:"personName"`
	Relationship      Relationship      `json:"relationship"`
	Notes             string            `json:"notes,omitempty"`
	DaysUntilExpiry   int               `json:"daysUntilExpiry"`
	Status            expiry.Status     `json:"status"`
	Appearance        expiry.Appearance `json:"appearance"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Present decorates doc for display with today taken from now in loc.
func Present(doc Document, now time.Time, loc *time.Location) DocumentResponse {
	days := expiry.DaysUntil(doc.ExpiryDate, now, loc)
	status := expiry.Classify(days)
	resp := DocumentResponse{
		ID:                doc.ID,
		DocumentType:      doc.DocumentType,
		DocumentName:      doc.DocumentName,
		DocumentNumber:    doc.DocumentNumber,
		ExpiryDate:        expiry.FormatDate(doc.ExpiryDate),
		ExpiryDateDisplay: expiry.FormatForDisplay(doc.ExpiryDate),
		PersonName:        doc.PersonName,
		Relationship:      doc.Relationship,
		Notes:             doc.Notes,
		DaysUntilExpiry:   days,
		Status:            status,
		Appearance:        expiry.AppearanceFor(status.Bucket),
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
	if doc.IssueDate != nil {
		resp.IssueDate = expiry.FormatDate(*doc.IssueDate)
		resp.IssueDateDisplay = expiry.FormatForDisplay(*doc.IssueDate)
	}
	return resp
}

// PresentAll decorates docs, preserving their order.
func PresentAll(docs []Document, now time.Time, loc *time.Location) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, Present(doc, now, loc))
	}
	return out
}
