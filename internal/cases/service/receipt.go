package service

import (
	"context"
	"time"

	"caseprocessor/internal/cases/models"
	"caseprocessor/internal/cases/receipting"
	"caseprocessor/pkg/platform/errs"
)

// ResponseReceived handles a returned questionnaire. A payload flagged as
// unreceipt reports a blank questionnaire instead.
func (s *Service) ResponseReceived(ctx context.Context, env *models.Envelope, p *models.ResponsePayload) error {
	if p.Unreceipt {
		return s.BlankQuestionnaire(ctx, env, p)
	}
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		link, err := s.getLink(ctx, p.QuestionnaireID)
		if err != nil {
			return err
		}
		if link.Receipted {
			s.logger.InfoContext(ctx, "questionnaire already returned, ignoring",
				"qid", link.QID, "blank", link.BlankQuestionnaire)
			return nil
		}

		wasActive := link.Active
		link.Active = false
		link.Receipted = true
		if err := s.saveLink(ctx, link, now); err != nil {
			return err
		}

		desc := models.DescResponseReceived
		if !link.IsLinked() {
			desc = models.DescUnlinkedResponse
		}
		if err := s.logLink(ctx, link, env, desc, p, now); err != nil {
			return err
		}
		if err := s.uacUpdated(ctx, link, env, now); err != nil {
			return err
		}

		if !link.IsLinked() {
			return nil
		}
		return s.receiptCase(ctx, link, wasActive, env, now)
	})
}

// receiptCase runs the receipting table for the case owning link. The case row is
// locked first so concurrent returns for one establishment count serially.
func (s *Service) receiptCase(ctx context.Context, link *models.UacQidLink, linkWasActive bool, env *models.Envelope, now time.Time) error {
	c, err := s.lockCase(ctx, *link.CaseID)
	if err != nil {
		return err
	}

	res, err := receipting.Receipt(c, link.FormType(), linkWasActive)
	if err != nil {
		return errs.Wrapf(err, "receipt case %s", c.CaseID)
	}
	if !res.Changed {
		s.logger.DebugContext(ctx, "receipt left case unchanged",
			"case_id", c.CaseID, "form_type", link.FormType(), "case_type", c.CaseType)
		return nil
	}

	if err := s.updateCase(ctx, c, now); err != nil {
		return err
	}
	s.metrics.IncrementReceipt(string(c.CaseType), string(res.Instruction))
	s.logger.InfoContext(ctx, "case receipted",
		"case_id", c.CaseID,
		"receipted", c.ReceiptReceived,
		"ce_actual", c.CeActualResponses,
		"instruction", res.Instruction,
	)
	return s.caseUpdated(ctx, c, env, res.Instruction, now)
}

// BlankQuestionnaire records a blank return and, when that form type is what
// receipted the case, sends the case back to field.
func (s *Service) BlankQuestionnaire(ctx context.Context, env *models.Envelope, p *models.ResponsePayload) error {
	return s.inTx(ctx, func(ctx context.Context, now time.Time) error {
		link, err := s.getLink(ctx, p.QuestionnaireID)
		if err != nil {
			return err
		}
		if link.BlankQuestionnaire {
			s.logger.InfoContext(ctx, "blank questionnaire already recorded", "qid", link.QID)
			return nil
		}

		link.BlankQuestionnaire = true
		link.Receipted = true
		link.Active = false
		if err := s.saveLink(ctx, link, now); err != nil {
			return err
		}
		if err := s.logLink(ctx, link, env, models.DescBlankQuestionnaire, p, now); err != nil {
			return err
		}
		if err := s.uacUpdated(ctx, link, env, now); err != nil {
			return err
		}

		if !link.IsLinked() {
			return nil
		}
		return s.unreceiptCase(ctx, link, env, now)
	})
}

func (s *Service) unreceiptCase(ctx context.Context, link *models.UacQidLink, env *models.Envelope, now time.Time) error {
	c, err := s.lockCase(ctx, *link.CaseID)
	if err != nil {
		return err
	}

	otherValid, err := s.otherValidReceipt(ctx, c, link)
	if err != nil {
		return err
	}
	changed, err := receipting.Unreceipt(c, link.FormType(), otherValid)
	if err != nil {
		return errs.Wrapf(err, "unreceipt case %s", c.CaseID)
	}
	if !changed {
		return nil
	}

	if err := s.updateCase(ctx, c, now); err != nil {
		return err
	}
	s.metrics.IncrementUnreceipt(string(c.CaseType))
	s.logger.InfoContext(ctx, "case unreceipted by blank questionnaire", "case_id", c.CaseID, "qid", link.QID)
	return s.caseUpdated(ctx, c, env, models.FieldDecisionUpdate, now)
}

// otherValidReceipt reports whether another link on the case still holds a genuine
// return of a form type that receipts this case.
func (s *Service) otherValidReceipt(ctx context.Context, c *models.Case, blank *models.UacQidLink) (bool, error) {
	links, err := s.store.ListLinksByCase(ctx, c.CaseID)
	if err != nil {
		return false, errs.Wrapf(err, "list questionnaires for case %s", c.CaseID)
	}
	for _, l := range links {
		if l.ID == blank.ID || !l.HasValidReceipt() {
			continue
		}
		rev, err := receipting.Reversible(c.CaseType, c.AddressLevel, l.FormType())
		if err != nil {
			return false, err
		}
		if rev {
			return true, nil
		}
	}
	return false, nil
}
