package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/errs"
)

// UacCreated registers a new UAC/QID pair, optionally linked to a case.
func (s *Service) UacCreated(ctx context.Context, env *models.Envelope, p *models.UacPayload) error {
	if p.QuestionnaireID == "" {
		return models.NewValidationError("uac.questionnaireId", "is required")
	}
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		existing, err := s.findLink(ctx, p.QuestionnaireID)
		if err != nil {
			return err
		}
		if existing != nil {
			s.logger.InfoContext(ctx, "questionnaire already registered", "qid", p.QuestionnaireID)
			return nil
		}

		link := &models.UacQidLink{
			ID:        uuid.New(),
			UAC:       p.UAC,
			QID:       p.QuestionnaireID,
			Active:    true,
			CreatedAt: now,
		}
		if p.CaseID != nil && *p.CaseID != uuid.Nil {
			c, err := s.store.GetCase(ctx, *p.CaseID)
			if err != nil {
				return errs.Wrapf(err, "load case %s", *p.CaseID)
			}
			link.CaseID = &c.CaseID
			link.CCSCase = c.CCSCase
		}
		if p.Active != nil {
			link.Active = *p.Active
		}

		if err := s.saveLink(ctx, link, now); err != nil {
			return err
		}
		return s.logLink(ctx, link, env, models.DescUacCreated, p, now)
	})
}

// UacUpdated upserts a link from another system's view of it.
func (s *Service) UacUpdated(ctx context.Context, env *models.Envelope, p *models.UacPayload) error {
	if p.QuestionnaireID == "" {
		return models.NewValidationError("uac.questionnaireId", "is required")
	}
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		link, err := s.findLink(ctx, p.QuestionnaireID)
		if err != nil {
			return err
		}
		if link == nil {
			link = &models.UacQidLink{ID: uuid.New(), QID: p.QuestionnaireID, Active: true, CreatedAt: now}
		}
		if p.UAC != "" {
			link.UAC = p.UAC
		}
		if p.Active != nil {
			link.Active = *p.Active
		}
		if p.CaseID != nil && *p.CaseID != uuid.Nil {
			id := *p.CaseID
			link.CaseID = &id
		}

		if err := s.saveLink(ctx, link, now); err != nil {
			return err
		}
		return s.logLink(ctx, link, env, models.DescUacUpdated, p, now)
	})
}

// QuestionnaireLinked attaches a QID to a case. A questionnaire that was already
// returned receipts its new case.
func (s *Service) QuestionnaireLinked(ctx context.Context, env *models.Envelope, p *models.UacPayload) error {
	if p.CaseID == nil || *p.CaseID == uuid.Nil {
		return models.NewValidationError("uac.caseId", "is required")
	}
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		link, err := s.getLink(ctx, p.QuestionnaireID)
		if err != nil {
			return err
		}
		if link.IsLinked() && *link.CaseID == *p.CaseID {
			s.logger.InfoContext(ctx, "questionnaire already linked", "qid", link.QID, "case_id", *p.CaseID)
			return nil
		}

		c, err := s.lockCase(ctx, *p.CaseID)
		if err != nil {
			return err
		}
		if link.IsLinked() {
			s.logger.WarnContext(ctx, "questionnaire relinked", "qid", link.QID, "from_case_id", *link.CaseID, "to_case_id", c.CaseID)
		}
		link.CaseID = &c.CaseID
		link.CCSCase = c.CCSCase

		if err := s.saveLink(ctx, link, now); err != nil {
			return err
		}
		if err := s.logLink(ctx, link, env, models.DescQuestionnaireLinked, p, now); err != nil {
			return err
		}
		if err := s.uacUpdated(ctx, link, env, now); err != nil {
			return err
		}

		if !link.HasValidReceipt() {
			return nil
		}
		return s.receiptCase(ctx, link, link.Active, env, now)
	})
}

// DeactivateUac retires a link without receipting its case.
func (s *Service) DeactivateUac(ctx context.Context, env *models.Envelope, p *models.UacPayload) error {
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		link, err := s.getLink(ctx, p.QuestionnaireID)
		if err != nil {
			return err
		}
		if !link.Active {
			s.logger.InfoContext(ctx, "questionnaire already inactive", "qid", link.QID)
			return nil
		}
		link.Active = false
		if err := s.saveLink(ctx, link, now); err != nil {
			return err
		}
		if err := s.logLink(ctx, link, env, models.DescUacDeactivated, p, now); err != nil {
			return err
		}
		return s.uacUpdated(ctx, link, env, now)
	})
}
