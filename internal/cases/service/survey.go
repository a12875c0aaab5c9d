package service

import (
	"context"
	"time"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/errs"
)

// SurveyLaunched records that a respondent started the online questionnaire.
func (s *Service) SurveyLaunched(ctx context.Context, env *models.Envelope, p *models.ResponsePayload) error {
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		link, err := s.getLink(ctx, p.QuestionnaireID)
		if err != nil {
			return err
		}
		if err := s.logLink(ctx, link, env, models.DescSurveyLaunched, p, now); err != nil {
			return err
		}
		if !link.IsLinked() {
			return nil
		}

		c, err := s.lockCase(ctx, *link.CaseID)
		if err != nil {
			return err
		}
		if c.SurveyLaunched {
			return nil
		}
		c.SurveyLaunched = true
		if err := s.updateCase(ctx, c, now); err != nil {
			return err
		}
		return s.caseUpdated(ctx, c, env, models.FieldDecisionNone, now)
	})
}

// RespondentAuthenticated audits a successful UAC login.
func (s *Service) RespondentAuthenticated(ctx context.Context, env *models.Envelope, p *models.ResponsePayload) error {
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		link, err := s.getLink(ctx, p.QuestionnaireID)
		if err != nil {
			return err
		}
		return s.logLink(ctx, link, env, models.DescRespondentAuthenticated, p, now)
	})
}

// UndeliveredMailReported audits returned post against the questionnaire when
// known, otherwise against the case.
func (s *Service) UndeliveredMailReported(ctx context.Context, env *models.Envelope, p *models.UndeliveredMailPayload) error {
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		if p.QuestionnaireID != nil && *p.QuestionnaireID != "" {
			link, err := s.getLink(ctx, *p.QuestionnaireID)
			if err != nil {
				return err
			}
			return s.logLink(ctx, link, env, models.DescUndeliveredMail, p, now)
		}
		if p.CaseID == nil {
			return models.NewValidationError("fulfilmentInformation", "questionnaireId or caseId is required")
		}
		c, err := s.store.GetCase(ctx, *p.CaseID)
		if err != nil {
			return errs.Wrapf(err, "load case %s", *p.CaseID)
		}
		return s.logCase(ctx, c, env, models.DescUndeliveredMail, p, now)
	})
}
