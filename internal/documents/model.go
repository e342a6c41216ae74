package documents

import "time"

// Type is the kind of tracked document.
type Type string

const (
	TypePassport        Type = "Passport"
	TypeEmiratesID      Type = "Emirates ID"
	TypeVisa            Type = "Visa"
	TypeDrivingLicense  Type = "Driving License"
	TypeInsurancePolicy Type = "Insurance Policy"
	TypeContract        Type = "Contract"
	TypeMembership      Type = "Membership"
	TypeCertification   Type = "Certification"
	TypeOther           Type = "Other"
)

// Types lists every accepted document type in display order.
var Types = []Type{
	TypePassport,
	TypeEmiratesID,
	TypeVisa,
	TypeDrivingLicense,
	TypeInsurancePolicy,
	TypeContract,
	TypeMembership,
	TypeCertification,
	TypeOther,
}

func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Relationship is how the document holder relates to the account owner.
type Relationship string

const (
	RelationshipSelf        Relationship = "Self"
	RelationshipSpouse      Relationship = "Spouse"
	RelationshipChild       Relationship = "Child"
	RelationshipParent      Relationship = "Parent"
	RelationshipSibling     Relationship = "Sibling"
	RelationshipOtherFamily Relationship = "Other Family"
	RelationshipFriend      Relationship = "Friend"
	RelationshipEmployee    Relationship = "Employee"
	RelationshipOther       Relationship = "Other"
)

var Relationships = []Relationship{
	RelationshipSelf,
	RelationshipSpouse,
	RelationshipChild,
	RelationshipParent,
	RelationshipSibling,
	RelationshipOtherFamily,
	RelationshipFriend,
	RelationshipEmployee,
	RelationshipOther,
}

func (r Relationship) Valid() bool {
	for _, known := range Relationships {
		if r == known {
			return true
		}
	}
	return false
}

// Document is one tracked record. Dates are calendar dates held as UTC midnight.
type Document struct {
	ID             string
	UserID         string
	DocumentType   Type
	DocumentName   string
	DocumentNumber string
	IssueDate      *time.Time
	ExpiryDate     time.Time
	PersonName     string
	Relationship   Relationship
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Patch holds resolved changes for Update. A nil field is left unchanged.
// An empty DocumentNumber or Notes clears the column, as does a zero IssueDate.
type Patch struct {
	DocumentType   *Type
	DocumentName   *string
	DocumentNumber *string
	IssueDate      *time.Time
	ExpiryDate     *time.Time
	PersonName     *string
	Relationship   *Relationship
	Notes          *string
}

func (p Patch) apply(doc Document) Document {
	if p.DocumentType != nil {
		doc.DocumentType = *p.DocumentType
	}
	if p.DocumentName != nil {
		doc.DocumentName = *p.DocumentName
	}
	if p.DocumentNumber != nil {
		doc.DocumentNumber = *p.DocumentNumber
	}
	if p.IssueDate != nil {
		if p.IssueDate.IsZero() {
			doc.IssueDate = nil
		} else {
			issued := *p.IssueDate
			doc.IssueDate = &issued
		}
	}
	if p.ExpiryDate != nil {
		doc.ExpiryDate = *p.ExpiryDate
	}
	if p.PersonName != nil {
		doc.PersonName = *p.PersonName
	}
	if p.Relationship != nil {
		doc.Relationship = *p.Relationship
	}
	if p.Notes != nil {
		doc.Notes = *p.Notes
	}
	return doc
}
