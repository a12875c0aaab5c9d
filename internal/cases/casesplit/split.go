// Package casesplit retypes a case by invalidating it and creating a replacement
// of a different type. Split is pure; persistence and emission belong to the caller.
package casesplit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"caseprocessor/internal/cases/models"
)

// estabTypes is the whitelist of establishment categories accepted on a retyped case.
var estabTypes = map[string]bool{
	"HALL OF RESIDENCE":               true,
	"CARE HOME":                       true,
	"HOSPITAL":                        true,
	"HOSPICE":                         true,
	"MENTAL HEALTH HOSPITAL":          true,
	"MEDICAL CARE OTHER":              true,
	"BOARDING SCHOOL":                 true,
	"LOW/MEDIUM SECURE MENTAL HEALTH": true,
	"HIGH SECURE MENTAL HEALTH":       true,
	"HOTEL":                           true,
	"YOUTH HOSTEL":                    true,
	"HOSTEL":                          true,
	"MILITARY SLA":                    true,
	"MILITARY US SLA":                 true,
	"RELIGIOUS COMMUNITY":             true,
	"RESIDENTIAL CHILDRENS HOME":      true,
	"EDUCATION OTHER":                 true,
	"PRISON":                          true,
	"IMMIGRATION REMOVAL CENTRE":      true,
	"APPROVED PREMISES":               true,
	"ROUGH SLEEPER":                   true,
	"STAFF ACCOMMODATION":             true,
	"CAMPHILL":                        true,
	"HOLIDAY PARK":                    true,
	"HOUSEHOLD":                       true,
	"SHELTERED ACCOMMODATION":         true,
	"RESIDENTIAL CARAVAN":             true,
	"RESIDENTIAL BOAT":                true,
	"GATED APARTMENTS":                true,
	"MOD HOUSEHOLDS":                  true,
	"MILITARY SFA":                    true,
	"MILITARY US SFA":                 true,
	"TRAVELLING PERSONS":              true,
	"OTHER":                           true,
}

// IsKnownEstabType reports whether estabType is on the whitelist.
func IsKnownEstabType(estabType string) bool {
	return estabTypes[estabType]
}

// Change is the requested retyping.
type Change struct {
	NewCaseID          uuid.UUID
	NewCaseType        models.CaseType
	CeExpectedCapacity *string
	Address            models.AddressTypeChangeAddress
}

// ChangeFromPayload adapts the inbound payload.
func ChangeFromPayload(p *models.AddressTypeChangePayload) Change {
	return Change{
		NewCaseID:          p.NewCaseID,
		NewCaseType:        p.CollectionCase.Address.AddressType,
		CeExpectedCapacity: p.CollectionCase.CeExpectedCapacity,
		Address:            p.CollectionCase.Address,
	}
}

// family groups case types whose members may not be retyped into each other.
func family(t models.CaseType) string {
	switch t {
	case models.CaseTypeHH:
		return "household"
	case models.CaseTypeSPG:
		return "spg"
	case models.CaseTypeCE:
		return "ce"
	}
	return ""
}

// Validate checks every precondition. A non-nil error means nothing may be mutated.
func Validate(old *models.Case, change Change) (*int, error) {
	if change.NewCaseID == uuid.Nil {
		return nil, models.NewValidationError("newCaseId", "is required")
	}
	if old.CaseID == change.NewCaseID {
		return nil, models.NewValidationError("newCaseId", "must differ from the old case id")
	}
	if old.CaseType == models.CaseTypeHI {
		return nil, models.NewValidationError("caseType", "individual cases cannot change address type")
	}
	if family(change.NewCaseType) == "" {
		return nil, models.NewValidationError("address.addressType", fmt.Sprintf("unsupported target type %q", change.NewCaseType))
	}
	if family(old.CaseType) == family(change.NewCaseType) {
		return nil, models.NewValidationError("address.addressType",
			fmt.Sprintf("cannot change %s to %s", old.CaseType, change.NewCaseType))
	}

	line1 := change.Address.AddressLine1
	if !line1.Set || line1.Value == nil || strings.TrimSpace(*line1.Value) == "" {
		return nil, models.NewValidationError("address.addressLine1", "is required")
	}

	if change.NewCaseType != models.CaseTypeHH {
		estab := change.Address.EstabType
		if !estab.Set || estab.Value == nil || *estab.Value == "" {
			return nil, models.NewValidationError("address.estabType", "is required for non-household cases")
		}
		if !IsKnownEstabType(*estab.Value) {
			return nil, models.NewValidationError("address.estabType", fmt.Sprintf("unknown establishment type %q", *estab.Value))
		}
	}

	if change.CeExpectedCapacity == nil {
		return nil, nil
	}
	capacity, err := strconv.Atoi(strings.TrimSpace(*change.CeExpectedCapacity))
	if err != nil || capacity < 0 {
		return nil, models.NewValidationError("ceExpectedCapacity", fmt.Sprintf("invalid capacity %q", *change.CeExpectedCapacity))
	}
	return &capacity, nil
}

// Split returns the invalidated original and its replacement. The inputs are not
// modified. The new case has no case reference yet; it is stamped on insert.
func Split(old *models.Case, change Change, now time.Time) (*models.Case, *models.Case, error) {
	capacity, err := Validate(old, change)
	if err != nil {
		return nil, nil, err
	}

	invalidated := old.Clone()
	invalidated.AddressInvalid = true
	invalidated.LastUpdated = now

	next := &models.Case{
		CaseID:               change.NewCaseID,
		CaseType:             change.NewCaseType,
		AddressType:          string(change.NewCaseType),
		AddressLevel:         models.AddressLevelUnit,
		Skeleton:             true,
		Survey:               old.Survey,
		TreatmentCode:        old.TreatmentCode,
		CollectionExerciseID: old.CollectionExerciseID,
		ActionPlanID:         old.ActionPlanID,
		AddressLine1:         old.AddressLine1,
		AddressLine2:         old.AddressLine2,
		AddressLine3:         old.AddressLine3,
		TownName:             old.TownName,
		Postcode:             old.Postcode,
		Latitude:             old.Latitude,
		Longitude:            old.Longitude,
		EstabType:            old.EstabType,
		OrganisationName:     old.OrganisationName,
		UPRN:                 old.UPRN,
		EstabUPRN:            old.EstabUPRN,
		AbpCode:              old.AbpCode,
		ARID:                 old.ARID,
		EstabARID:            old.EstabARID,
		Region:               old.Region,
		OA:                   old.OA,
		LSOA:                 old.LSOA,
		MSOA:                 old.MSOA,
		LAD:                  old.LAD,
		HTCWillingness:       old.HTCWillingness,
		HTCDigital:           old.HTCDigital,
		FieldCoordinatorID:   old.FieldCoordinatorID,
		FieldOfficerID:       old.FieldOfficerID,
		CCSCase:              old.CCSCase,
		CeExpectedCapacity:   capacity,
		CreatedAt:            now,
		LastUpdated:          now,
	}
	next = next.Clone()

	// Validate guarantees line 1 holds a non-blank value.
	next.AddressLine1 = *change.Address.AddressLine1.Value
	change.Address.AddressLine2.Apply(&next.AddressLine2)
	change.Address.AddressLine3.Apply(&next.AddressLine3)
	change.Address.OrganisationName.Apply(&next.OrganisationName)
	change.Address.EstabType.Apply(&next.EstabType)

	return invalidated, next, nil
}
