package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/errs"
)

// individualFulfilmentCodes request an individual questionnaire for one member of
// a household. On a household case they create a child HI case.
var individualFulfilmentCodes = map[string]bool{
	"P_OR_I1":  true,
	"P_OR_I2":  true,
	"P_OR_I2W": true,
	"P_OR_I4":  true,
	"UACIT1":   true,
	"UACIT2":   true,
	"UACIT2W":  true,
	"UACIT4":   true,
}

// IsIndividualFulfilment reports whether code requests an individual questionnaire.
func IsIndividualFulfilment(code string) bool {
	return individualFulfilmentCodes[code]
}

func validateCaseDetails(d *models.CaseDetails) error {
	if d.ID == uuid.Nil {
		return models.NewValidationError("collectionCase.id", "is required")
	}
	if !d.CaseType.IsValid() {
		return models.NewValidationError("collectionCase.caseType", fmt.Sprintf("unknown case type %q", d.CaseType))
	}
	if strings.TrimSpace(d.Address.AddressLine1) == "" {
		return models.NewValidationError("collectionCase.address.addressLine1", "is required")
	}
	if d.Address.AddressLevel != "" && !d.Address.AddressLevel.IsValid() {
		return models.NewValidationError("collectionCase.address.addressLevel", fmt.Sprintf("unknown address level %q", d.Address.AddressLevel))
	}
	return nil
}

func caseFromDetails(d *models.CaseDetails) *models.Case {
	a := d.Address
	c := &models.Case{
		CaseID:               d.ID,
		CaseType:             d.CaseType,
		AddressLevel:         a.AddressLevel,
		AddressType:          a.AddressType,
		Survey:               d.Survey,
		TreatmentCode:        d.TreatmentCode,
		CollectionExerciseID: d.CollectionExerciseID,
		ActionPlanID:         d.ActionPlanID,
		AddressLine1:         a.AddressLine1,
		AddressLine2:         a.AddressLine2,
		AddressLine3:         a.AddressLine3,
		TownName:             a.TownName,
		Postcode:             a.Postcode,
		Latitude:             a.Latitude,
		Longitude:            a.Longitude,
		EstabType:            a.EstabType,
		OrganisationName:     a.OrganisationName,
		UPRN:                 a.UPRN,
		EstabUPRN:            a.EstabUPRN,
		AbpCode:              a.AbpCode,
		ARID:                 a.ARID,
		EstabARID:            a.EstabARID,
		Region:               a.Region,
		OA:                   a.OA,
		LSOA:                 a.LSOA,
		MSOA:                 a.MSOA,
		LAD:                  a.LAD,
		HTCWillingness:       d.HTCWillingness,
		HTCDigital:           d.HTCDigital,
		HandDelivery:         d.HandDelivery,
		CeExpectedCapacity:   d.CeExpectedCapacity,
		FieldCoordinatorID:   d.FieldCoordinatorID,
		FieldOfficerID:       d.FieldOfficerID,
	}
	if c.AddressLevel == "" {
		c.AddressLevel = models.AddressLevelUnit
	}
	if c.AddressType == "" {
		c.AddressType = string(c.CaseType)
	}
	return c.Clone()
}

// SampleLoaded creates a case from sample ingestion. A case that already exists
// is left untouched.
func (s *Service) SampleLoaded(ctx context.Context, env *models.Envelope, p *models.SampleLoadedPayload) error {
	if err := validateCaseDetails(&p.CaseDetails); err != nil {
		return err
	}
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		exists, err := s.store.CaseExists(ctx, p.ID)
		if err != nil {
			return errs.Wrapf(err, "check case %s", p.ID)
		}
		if exists {
			s.logger.InfoContext(ctx, "sample case already loaded", "case_id", p.ID)
			return nil
		}

		c := caseFromDetails(&p.CaseDetails)
		if err := s.insertCase(ctx, c, now); err != nil {
			return err
		}
		if err := s.logCase(ctx, c, env, models.DescSampleLoaded, p, now); err != nil {
			return err
		}
		return s.caseCreated(ctx, c, env, models.FieldDecisionNone, now)
	})
}

// NewAddressReported creates a skeleton case for an address missing from the
// sample. Fields the report leaves blank are taken from the source case, if named.
func (s *Service) NewAddressReported(ctx context.Context, env *models.Envelope, p *models.NewAddressPayload) error {
	if err := validateCaseDetails(&p.CollectionCase); err != nil {
		return err
	}
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		exists, err := s.store.CaseExists(ctx, p.CollectionCase.ID)
		if err != nil {
			return errs.Wrapf(err, "check case %s", p.CollectionCase.ID)
		}
		if exists {
			s.logger.InfoContext(ctx, "new address case already exists", "case_id", p.CollectionCase.ID)
			return nil
		}

		c := caseFromDetails(&p.CollectionCase)
		c.Skeleton = true
		if p.SourceCaseID != nil {
			source, err := s.store.GetCase(ctx, *p.SourceCaseID)
			if err != nil {
				return errs.Wrapf(err, "load source case %s", *p.SourceCaseID)
			}
			inheritFromSource(c, source)
		}

		if err := s.insertCase(ctx, c, now); err != nil {
			return err
		}
		if err := s.logCase(ctx, c, env, models.DescNewAddressReported, p, now); err != nil {
			return err
		}
		return s.caseCreated(ctx, c, env, models.FieldDecisionCreate, now)
	})
}

func inheritFromSource(c, source *models.Case) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&c.Survey, source.Survey)
	fill(&c.CollectionExerciseID, source.CollectionExerciseID)
	fill(&c.ActionPlanID, source.ActionPlanID)
	fill(&c.FieldCoordinatorID, source.FieldCoordinatorID)
	fill(&c.FieldOfficerID, source.FieldOfficerID)
	fill(&c.Region, source.Region)
	fill(&c.LAD, source.LAD)
}

// AddressModified applies an address correction. Line 1, town and postcode can be
// changed but never cleared. A skeleton case becomes fully formed once all three
// hold a value.
func (s *Service) AddressModified(ctx context.Context, env *models.Envelope, p *models.AddressModificationPayload) error {
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		c, err := s.lockCase(ctx, p.CollectionCase.ID)
		if err != nil {
			return err
		}
		if err := applyAddressOverrides(c, p.NewAddress); err != nil {
			return err
		}
		if c.Skeleton && hasFullAddress(c) {
			c.Skeleton = false
			s.logger.InfoContext(ctx, "skeleton case completed", "case_id", c.CaseID)
		}
		if err := s.updateCase(ctx, c, now); err != nil {
			return err
		}
		if err := s.logCase(ctx, c, env, models.DescAddressModified, p, now); err != nil {
			return err
		}
		return s.caseUpdated(ctx, c, env, models.FieldDecisionUpdate, now)
	})
}

func hasFullAddress(c *models.Case) bool {
	for _, v := range []string{c.AddressLine1, c.TownName, c.Postcode} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func applyAddressOverrides(c *models.Case, o models.AddressOverrides) error {
	required := []struct {
		field string
		value models.Optional[string]
		dst   *string
	}{
		{"newAddress.addressLine1", o.AddressLine1, &c.AddressLine1},
		{"newAddress.townName", o.TownName, &c.TownName},
		{"newAddress.postcode", o.Postcode, &c.Postcode},
	}
	for _, r := range required {
		if !r.value.Set {
			continue
		}
		if r.value.Value == nil || strings.TrimSpace(*r.value.Value) == "" {
			return models.NewValidationError(r.field, "cannot be cleared")
		}
	}
	for _, r := range required {
		if r.value.Set {
			*r.dst = *r.value.Value
		}
	}
	o.AddressLine2.Apply(&c.AddressLine2)
	o.AddressLine3.Apply(&c.AddressLine3)
	o.OrganisationName.Apply(&c.OrganisationName)
	o.EstabType.Apply(&c.EstabType)
	return nil
}

// AddressNotValid invalidates a case address and cancels field work.
func (s *Service) AddressNotValid(ctx context.Context, env *models.Envelope, p *models.InvalidAddressPayload) error {
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		c, err := s.lockCase(ctx, p.CollectionCase.ID)
		if err != nil {
			return err
		}
		if c.AddressInvalid {
			s.logger.InfoContext(ctx, "case address already invalid", "case_id", c.CaseID)
			return nil
		}
		c.AddressInvalid = true
		if err := s.updateCase(ctx, c, now); err != nil {
			return err
		}
		if err := s.logCase(ctx, c, env, models.DescAddressNotValid, p, now); err != nil {
			return err
		}
		return s.caseUpdated(ctx, c, env, models.FieldDecisionCancel, now)
	})
}

// UninvalidateAddress is the administrative reversal of AddressNotValid.
func (s *Service) UninvalidateAddress(ctx context.Context, env *models.Envelope, p *models.UninvalidateAddressPayload) error {
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		c, err := s.lockCase(ctx, p.CaseID)
		if err != nil {
			return err
		}
		if !c.AddressInvalid {
			s.logger.InfoContext(ctx, "case address already valid", "case_id", c.CaseID)
			return nil
		}
		c.AddressInvalid = false
		if err := s.updateCase(ctx, c, now); err != nil {
			return err
		}
		if err := s.logCase(ctx, c, env, models.DescAddressUninvalidated, p, now); err != nil {
			return err
		}
		return s.caseUpdated(ctx, c, env, models.FieldDecisionUpdate, now)
	})
}

// RefusalReceived records a refusal and cancels field work.
func (s *Service) RefusalReceived(ctx context.Context, env *models.Envelope, p *models.RefusalPayload) error {
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		c, err := s.lockCase(ctx, p.CollectionCase.ID)
		if err != nil {
			return err
		}
		if c.IsRefused() {
			s.logger.InfoContext(ctx, "refusal already recorded", "case_id", c.CaseID)
			return nil
		}
		c.RefusalReceived = models.Ptr(true)
		if err := s.updateCase(ctx, c, now); err != nil {
			return err
		}
		if err := s.logCase(ctx, c, env, models.DescRefusalReceived, p, now); err != nil {
			return err
		}
		return s.caseUpdated(ctx, c, env, models.FieldDecisionCancel, now)
	})
}

// FieldCaseUpdated applies an administrative CE capacity change. The case row lock
// serialises it with concurrent receipts counting against the same capacity.
func (s *Service) FieldCaseUpdated(ctx context.Context, env *models.Envelope, p *models.FieldCaseUpdatePayload) error {
	if p.CeExpectedCapacity < 0 {
		return models.NewValidationError("collectionCase.ceExpectedCapacity", "must not be negative")
	}
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		c, err := s.lockCase(ctx, p.ID)
		if err != nil {
			return err
		}
		if c.CaseType != models.CaseTypeCE {
			return models.NewValidationError("collectionCase.id", fmt.Sprintf("case %s is %s, not CE", c.CaseID, c.CaseType))
		}

		c.CeExpectedCapacity = models.Ptr(p.CeExpectedCapacity)
		decision := models.FieldDecisionUpdate
		if c.CeActualResponses >= p.CeExpectedCapacity {
			decision = models.FieldDecisionCancel
		}

		if err := s.updateCase(ctx, c, now); err != nil {
			return err
		}
		if err := s.logCase(ctx, c, env, models.DescFieldCaseUpdated, p, now); err != nil {
			return err
		}
		return s.caseUpdated(ctx, c, env, decision, now)
	})
}

// FulfilmentRequested audits a fulfilment request. An individual questionnaire
// requested for a household creates the child HI case it will be linked to.
func (s *Service) FulfilmentRequested(ctx context.Context, env *models.Envelope, p *models.FulfilmentPayload) error {
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		parent, err := s.store.GetCase(ctx, p.CaseID)
		if err != nil {
			return errs.Wrapf(err, "load case %s", p.CaseID)
		}

		wantChild := parent.CaseType == models.CaseTypeHH && IsIndividualFulfilment(p.FulfilmentCode)
		if wantChild {
			if p.IndividualCaseID == nil || *p.IndividualCaseID == uuid.Nil {
				return models.NewValidationError("fulfilmentRequest.individualCaseId",
					"is required for individual fulfilment "+p.FulfilmentCode)
			}
			exists, err := s.store.CaseExists(ctx, *p.IndividualCaseID)
			if err != nil {
				return errs.Wrapf(err, "check case %s", *p.IndividualCaseID)
			}
			if exists {
				s.logger.InfoContext(ctx, "individual case already created", "case_id", *p.IndividualCaseID)
				return nil
			}
		}

		if err := s.logCase(ctx, parent, env, models.DescFulfilmentRequested, p, now); err != nil {
			return err
		}
		if !wantChild {
			return nil
		}

		child := individualCase(parent, *p.IndividualCaseID)
		if err := s.insertCase(ctx, child, now); err != nil {
			return err
		}
		if err := s.logCase(ctx, child, env, models.DescFulfilmentRequested, p, now); err != nil {
			return err
		}
		return s.caseCreated(ctx, child, env, models.FieldDecisionNone, now)
	})
}

func individualCase(parent *models.Case, id uuid.UUID) *models.Case {
	child := parent.Clone()
	child.CaseID = id
	child.CaseRef = nil
	child.CaseType = models.CaseTypeHI
	child.AddressLevel = models.AddressLevelUnit
	child.ReceiptReceived = false
	child.RefusalReceived = nil
	child.AddressInvalid = false
	child.SurveyLaunched = false
	child.Skeleton = false
	child.CeExpectedCapacity = nil
	child.CeActualResponses = 0
	return child
}
