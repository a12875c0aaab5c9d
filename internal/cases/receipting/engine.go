package receipting

import "caseprocessor/internal/cases/models"

// Result records what applying an Outcome did to a case.
type Result struct {
	Outcome     Outcome
	Changed     bool
	Instruction models.FieldDecision
}

// Receipt decides and applies the outcome of a returned form to c.
//
// A case that is already receipted is left alone unless the row increments the
// CE response count; those rows still count the return and re-issue their
// instruction. A receipt arriving through a link that was no longer active
// closes field work rather than cancelling it.
func Receipt(c *models.Case, form models.FormType, linkWasActive bool) (Result, error) {
	out, err := Decide(InputFor(c, form))
	if err != nil {
		return Result{}, err
	}
	res := Result{Outcome: out}
	if c.ReceiptReceived && !out.IncrementActual {
		return res, nil
	}

	if out.IncrementActual {
		c.CeActualResponses++
		res.Changed = true
	}
	if out.Receipt && !c.ReceiptReceived {
		c.ReceiptReceived = true
		res.Changed = true
	}
	if !res.Changed {
		return res, nil
	}

	res.Instruction = out.Instruction
	if !linkWasActive && !out.IncrementActual && res.Instruction == models.FieldDecisionCancel {
		res.Instruction = models.FieldDecisionClose
	}
	return res, nil
}

// Unreceipt reverses a receipt when a blank questionnaire is reported for the form
// type that receipted the case. otherValidReceipt is true when another link on the
// case still holds a genuine return of a receipting form type. Reports whether the
// case changed; the caller sends it back to field with an UPDATE instruction.
func Unreceipt(c *models.Case, form models.FormType, otherValidReceipt bool) (bool, error) {
	rev, err := Reversible(c.CaseType, c.AddressLevel, form)
	if err != nil {
		return false, err
	}
	if !c.ReceiptReceived || !rev || otherValidReceipt {
		return false, nil
	}
	c.ReceiptReceived = false
	return true, nil
}
