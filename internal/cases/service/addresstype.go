package service

import (
	"context"
	"fmt"
	"time"

	"caseprocessor/internal/cases/casesplit"
	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/errs"
	"caseprocessor/pkg/platform/sentinel"
)

// AddressTypeChanged retypes a case: the original is invalidated and cancelled in
// field, and a new skeleton case of the requested type is created.
func (s *Service) AddressTypeChanged(ctx context.Context, env *models.Envelope, p *models.AddressTypeChangePayload) error {
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		old, err := s.lockCase(ctx, p.CollectionCase.ID)
		if err != nil {
			return err
		}

		exists, err := s.store.CaseExists(ctx, p.NewCaseID)
		if err != nil {
			return errs.Wrapf(err, "check case %s", p.NewCaseID)
		}
		if exists {
			if old.AddressInvalid {
				s.logger.InfoContext(ctx, "address type change already applied",
					"old_case_id", old.CaseID, "new_case_id", p.NewCaseID)
				return nil
			}
			return fmt.Errorf("new case %s: %w", p.NewCaseID, sentinel.ErrConflict)
		}

		invalidated, created, err := casesplit.Split(old, casesplit.ChangeFromPayload(p), now)
		if err != nil {
			return errs.Wrapf(err, "address type change for case %s", old.CaseID)
		}

		if err := s.updateCase(ctx, invalidated, now); err != nil {
			return err
		}
		if err := s.logCase(ctx, invalidated, env, models.DescAddressTypeChanged, p, now); err != nil {
			return err
		}

		if err := s.insertCase(ctx, created, now); err != nil {
			return err
		}
		if err := s.logCase(ctx, created, env, models.DescAddressTypeChanged, p, now); err != nil {
			return err
		}

		if err := s.caseCreated(ctx, created, env, models.FieldDecisionCreate, now); err != nil {
			return err
		}
		if err := s.caseUpdated(ctx, invalidated, env, models.FieldDecisionCancel, now); err != nil {
			return err
		}

		s.metrics.IncrementAddressTypeChange(string(old.CaseType), string(created.CaseType))
		s.logger.InfoContext(ctx, "case address type changed",
			"old_case_id", old.CaseID,
			"new_case_id", created.CaseID,
			"from", old.CaseType,
			"to", created.CaseType,
		)
		return nil
	})
}
