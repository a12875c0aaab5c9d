// Package receipting holds the pure decision table that turns a questionnaire
// return into case mutations and a field-work instruction. No I/O happens here.
package receipting

import (
	"fmt"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/sentinel"
)

// Input is everything the table needs about the case and the returned form.
type Input struct {
	CaseType      models.CaseType
	AddressLevel  models.AddressLevel
	FormType      models.FormType
	TreatmentCode string
	CeExpected    *int
	CeActual      int
}

// Outcome is the tabulated result for one Input.
type Outcome struct {
	IncrementActual bool
	Receipt         bool
	Instruction     models.FieldDecision
}

type ruleKey struct {
	caseType models.CaseType
	level    models.AddressLevel
	form     models.FormType
}

type caseKey struct {
	caseType models.CaseType
	level    models.AddressLevel
}

type action func(Input) Outcome

func fixed(increment, receipt bool, instruction models.FieldDecision) action {
	return func(Input) Outcome {
		return Outcome{IncrementActual: increment, Receipt: receipt, Instruction: instruction}
	}
}

var noChange = fixed(false, false, models.FieldDecisionNone)

// ceUnitCapacity receipts once the incremented actual count meets the expected
// capacity. Without an expected capacity the case stays open.
func ceUnitCapacity(in Input) Outcome {
	out := Outcome{IncrementActual: true, Instruction: models.FieldDecisionUpdate}
	if in.CeExpected == nil {
		return out
	}
	if in.CeActual+1 >= *in.CeExpected {
		out.Receipt = true
		out.Instruction = models.FieldDecisionCancel
	}
	return out
}

const (
	hh   = models.FormTypeHousehold
	ind  = models.FormTypeIndividual
	ce1  = models.FormTypeCEIndividual
	cont = models.FormTypeContinuation
)

type row struct {
	caseType models.CaseType
	level    models.AddressLevel
	forms    []models.FormType
	do       action
	// reversible rows are undone by a blank questionnaire for the same form type.
	reversible bool
}

// table holds the receipting rules, one row per (case type, address level, form type).
var table = []row{
	{models.CaseTypeHH, models.AddressLevelUnit, []models.FormType{hh}, fixed(false, true, models.FieldDecisionCancel), true},
	{models.CaseTypeHH, models.AddressLevelUnit, []models.FormType{ce1, cont}, noChange, false},

	{models.CaseTypeHI, models.AddressLevelUnit, []models.FormType{hh, ind}, fixed(false, true, models.FieldDecisionNone), true},
	{models.CaseTypeHI, models.AddressLevelUnit, []models.FormType{ce1, cont}, noChange, false},

	{models.CaseTypeCE, models.AddressLevelEstablishment, []models.FormType{hh, ind}, fixed(true, false, models.FieldDecisionUpdate), false},
	{models.CaseTypeCE, models.AddressLevelEstablishment, []models.FormType{ce1}, fixed(false, true, models.FieldDecisionUpdate), true},
	{models.CaseTypeCE, models.AddressLevelEstablishment, []models.FormType{cont}, noChange, false},

	{models.CaseTypeCE, models.AddressLevelUnit, []models.FormType{hh, ind}, ceUnitCapacity, false},
	{models.CaseTypeCE, models.AddressLevelUnit, []models.FormType{ce1, cont}, noChange, false},

	{models.CaseTypeSPG, models.AddressLevelEstablishment, []models.FormType{hh, ind, ce1, cont}, noChange, false},

	{models.CaseTypeSPG, models.AddressLevelUnit, []models.FormType{hh}, fixed(false, true, models.FieldDecisionCancel), true},
	{models.CaseTypeSPG, models.AddressLevelUnit, []models.FormType{ind, ce1, cont}, noChange, false},
}

var (
	rules       = map[ruleKey]action{}
	reversible  = map[ruleKey]bool{}
	knownLevels = map[caseKey]bool{}
)

func init() {
	for _, r := range table {
		knownLevels[caseKey{r.caseType, r.level}] = true
		for _, f := range r.forms {
			k := ruleKey{r.caseType, r.level, f}
			if _, dup := rules[k]; dup {
				panic(fmt.Sprintf("receipting: duplicate rule %s/%s/%s", r.caseType, r.level, f))
			}
			rules[k] = r.do
			reversible[k] = r.reversible
		}
	}
}

// ErrUnknownCaseLevel is returned for case type and address level pairs the table
// does not cover. It signals bad data, not a transient fault.
var ErrUnknownCaseLevel = fmt.Errorf("unrecognised case type and address level: %w", sentinel.ErrInvalidState)

// Decide looks up the table. Combinations with a known case type and address
// level but an untabulated form type (including no form type) change nothing.
func Decide(in Input) (Outcome, error) {
	if !knownLevels[caseKey{in.CaseType, in.AddressLevel}] {
		return Outcome{}, fmt.Errorf("%w: %s/%s", ErrUnknownCaseLevel, in.CaseType, in.AddressLevel)
	}
	do, ok := rules[ruleKey{in.CaseType, in.AddressLevel, in.FormType}]
	if !ok {
		return Outcome{}, nil
	}
	return do(in), nil
}

// Reversible reports whether a blank questionnaire of this form type undoes a
// receipt on a case of this type and level.
func Reversible(caseType models.CaseType, level models.AddressLevel, form models.FormType) (bool, error) {
	if !knownLevels[caseKey{caseType, level}] {
		return false, fmt.Errorf("%w: %s/%s", ErrUnknownCaseLevel, caseType, level)
	}
	return reversible[ruleKey{caseType, level, form}], nil
}

// InputFor builds the table input from a case and the returned form type.
func InputFor(c *models.Case, form models.FormType) Input {
	return Input{
		CaseType:      c.CaseType,
		AddressLevel:  c.AddressLevel,
		FormType:      form,
		TreatmentCode: c.TreatmentCode,
		CeExpected:    c.CeExpectedCapacity,
		CeActual:      c.CeActualResponses,
	}
}
