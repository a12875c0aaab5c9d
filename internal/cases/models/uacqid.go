package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// FormType is the kind of paper or online questionnaire a QID belongs to.
// It is derived from the QID's leading digits and never changes.
type FormType string

const (
	FormTypeNone         FormType = ""
	FormTypeHousehold    FormType = "H"
	FormTypeIndividual   FormType = "I"
	FormTypeCEIndividual FormType = "C"
	FormTypeContinuation FormType = "CONT"
)

// questionnaireTypes maps the two-digit QID prefix to its form type.
var questionnaireTypes = map[int]FormType{
	1:  FormTypeHousehold, 2: FormTypeHousehold, 3: FormTypeHousehold, 4: FormTypeHousehold,
	71: FormTypeHousehold, 72: FormTypeHousehold, 73: FormTypeHousehold, 74: FormTypeHousehold,
	21: FormTypeIndividual, 22: FormTypeIndividual, 23: FormTypeIndividual, 24: FormTypeIndividual,
	81: FormTypeIndividual, 82: FormTypeIndividual, 83: FormTypeIndividual, 84: FormTypeIndividual,
	31: FormTypeCEIndividual, 32: FormTypeCEIndividual, 33: FormTypeCEIndividual, 34: FormTypeCEIndividual,
	11: FormTypeContinuation, 12: FormTypeContinuation, 13: FormTypeContinuation, 14: FormTypeContinuation,
	61: FormTypeContinuation, 62: FormTypeContinuation, 63: FormTypeContinuation, 64: FormTypeContinuation,
}

// FormTypeForQid derives the form type from the first two digits of a QID.
// Unknown or malformed prefixes have no form type and never receipt a case.
func FormTypeForQid(qid string) FormType {
	if len(qid) < 2 {
		return FormTypeNone
	}
	prefix, err := strconv.Atoi(qid[:2])
	if err != nil {
		return FormTypeNone
	}
	return questionnaireTypes[prefix]
}

// UacQidLink ties a single-use access code and questionnaire id together and,
// optionally, to the case it was issued for.
type UacQidLink struct {
	ID                 uuid.UUID
	UAC                string
	QID                string
	CaseID             *uuid.UUID
	Active             bool
	Receipted          bool
	BlankQuestionnaire bool
	CCSCase            bool
	CreatedAt          time.Time
	LastUpdated        time.Time
}

// FormType returns the questionnaire form type encoded in the QID.
func (l *UacQidLink) FormType() FormType {
	return FormTypeForQid(l.QID)
}

// IsLinked reports whether the link belongs to a case.
func (l *UacQidLink) IsLinked() bool {
	return l.CaseID != nil && *l.CaseID != uuid.Nil
}

// HasValidReceipt reports whether the link was used up by a real (non-blank) return.
// Deactivation alone does not count as a return.
func (l *UacQidLink) HasValidReceipt() bool {
	return l.Receipted && !l.BlankQuestionnaire
}

// Clone returns a deep copy.
func (l *UacQidLink) Clone() *UacQidLink {
	if l == nil {
		return nil
	}
	out := *l
	out.CaseID = clonePtr(l.CaseID)
	return &out
}
