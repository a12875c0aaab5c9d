package models

import (
	"time"

	"github.com/google/uuid"
)

// CaseType classifies a case by the kind of respondent it represents.
type CaseType string

const (
	CaseTypeHH  CaseType = "HH"  // household
	CaseTypeHI  CaseType = "HI"  // household individual
	CaseTypeSPG CaseType = "SPG" // single person group
	CaseTypeCE  CaseType = "CE"  // communal establishment
)

// IsValid reports whether the case type is part of the closed vocabulary.
func (t CaseType) IsValid() bool {
	switch t {
	case CaseTypeHH, CaseTypeHI, CaseTypeSPG, CaseTypeCE:
		return true
	}
	return false
}

// AddressLevel distinguishes unit-level addresses from whole establishments.
type AddressLevel string

const (
	AddressLevelUnit          AddressLevel = "U"
	AddressLevelEstablishment AddressLevel = "E"
)

// IsValid reports whether the address level is known.
func (l AddressLevel) IsValid() bool {
	return l == AddressLevelUnit || l == AddressLevelEstablishment
}

// Case is the authoritative record for one address in the census.
// Cases are never deleted; terminal states are carried by the flags.
type Case struct {
	CaseID  uuid.UUID
	CaseRef *int64

	CaseType             CaseType
	AddressLevel         AddressLevel
	AddressType          string
	Survey               string
	TreatmentCode        string
	CollectionExerciseID string
	ActionPlanID         string

	AddressLine1     string
	AddressLine2     *string
	AddressLine3     *string
	TownName         string
	Postcode         string
	Latitude         string
	Longitude        string
	EstabType        *string
	OrganisationName *string
	UPRN             string
	EstabUPRN        string
	AbpCode          string
	ARID             string
	EstabARID        string
	Region           string
	OA               string
	LSOA             string
	MSOA             string
	LAD              string
	HTCWillingness   string
	HTCDigital       string

	ReceiptReceived bool
	RefusalReceived *bool
	AddressInvalid  bool
	SurveyLaunched  bool
	HandDelivery    bool
	Skeleton        bool
	CCSCase         bool

	CeExpectedCapacity *int
	CeActualResponses  int

	FieldCoordinatorID string
	FieldOfficerID     string

	CreatedAt   time.Time
	LastUpdated time.Time
}

// Clone returns a deep copy so stores never share pointers with callers.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	out.CaseRef = clonePtr(c.CaseRef)
	out.AddressLine2 = clonePtr(c.AddressLine2)
	out.AddressLine3 = clonePtr(c.AddressLine3)
	out.EstabType = clonePtr(c.EstabType)
	out.OrganisationName = clonePtr(c.OrganisationName)
	out.RefusalReceived = clonePtr(c.RefusalReceived)
	out.CeExpectedCapacity = clonePtr(c.CeExpectedCapacity)
	return &out
}

// IsRefused reports whether a refusal has been recorded for the case.
func (c *Case) IsRefused() bool {
	return c.RefusalReceived != nil && *c.RefusalReceived
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to v. Handy for optional model fields.
func Ptr[T any](v T) *T {
	return &v
}
