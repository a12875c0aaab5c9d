package receipting

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/sentinel"
)

const (
	hhCase  = models.CaseTypeHH
	hiCase  = models.CaseTypeHI
	ceCase  = models.CaseTypeCE
	spgCase = models.CaseTypeSPG
	unit    = models.AddressLevelUnit
	estab   = models.AddressLevelEstablishment
)

var (
	none   = models.FieldDecisionNone
	update = models.FieldDecisionUpdate
	cancel = models.FieldDecisionCancel
)

func TestDecide_Table(t *testing.T) {
	expected := 5
	tests := []struct {
		caseType models.CaseType
		level    models.AddressLevel
		form     models.FormType
		want     Outcome
	}{
		{hhCase, unit, hh, Outcome{false, true, cancel}},
		{hhCase, unit, ce1, Outcome{false, false, none}},
		{hhCase, unit, cont, Outcome{false, false, none}},
		{hhCase, unit, ind, Outcome{false, false, none}},

		{hiCase, unit, hh, Outcome{false, true, none}},
		{hiCase, unit, ind, Outcome{false, true, none}},
		{hiCase, unit, ce1, Outcome{false, false, none}},
		{hiCase, unit, cont, Outcome{false, false, none}},

		{ceCase, estab, hh, Outcome{true, false, update}},
		{ceCase, estab, ind, Outcome{true, false, update}},
		{ceCase, estab, ce1, Outcome{false, true, update}},
		{ceCase, estab, cont, Outcome{false, false, none}},

		{ceCase, unit, hh, Outcome{true, false, update}},
		{ceCase, unit, ind, Outcome{true, false, update}},
		{ceCase, unit, ce1, Outcome{false, false, none}},
		{ceCase, unit, cont, Outcome{false, false, none}},

		{spgCase, estab, hh, Outcome{false, false, none}},
		{spgCase, estab, ind, Outcome{false, false, none}},
		{spgCase, estab, ce1, Outcome{false, false, none}},
		{spgCase, estab, cont, Outcome{false, false, none}},

		{spgCase, unit, hh, Outcome{false, true, cancel}},
		{spgCase, unit, ind, Outcome{false, false, none}},
		{spgCase, unit, ce1, Outcome{false, false, none}},
		{spgCase, unit, cont, Outcome{false, false, none}},
	}

	for _, tt := range tests {
		name := string(tt.caseType) + "_" + string(tt.level) + "_" + string(tt.form)
		t.Run(name, func(t *testing.T) {
			got, err := Decide(Input{
				CaseType:     tt.caseType,
				AddressLevel: tt.level,
				FormType:     tt.form,
				CeExpected:   &expected,
				CeActual:     0,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecide_UntabulatedFormChangesNothing(t *testing.T) {
	for key := range knownLevels {
		got, err := Decide(Input{CaseType: key.caseType, AddressLevel: key.level, FormType: models.FormTypeNone})
		require.NoError(t, err)
		assert.Equal(t, Outcome{}, got, "%s/%s", key.caseType, key.level)
	}
}

func TestDecide_TreatmentCodeDoesNotAlterOutcome(t *testing.T) {
	base := Input{CaseType: hhCase, AddressLevel: unit, FormType: hh}
	want, err := Decide(base)
	require.NoError(t, err)

	for _, code := range []string{"", "HH_LF2R1E", "CE_LDIEE", "SPG_QDHSE"} {
		in := base
		in.TreatmentCode = code
		got, err := Decide(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, code)
	}
}

func TestDecide_UnknownCaseLevelIsFatal(t *testing.T) {
	for _, in := range []Input{
		{CaseType: hhCase, AddressLevel: estab, FormType: hh},
		{CaseType: hiCase, AddressLevel: estab, FormType: ind},
		{CaseType: "XX", AddressLevel: unit, FormType: hh},
		{CaseType: hhCase, AddressLevel: "", FormType: hh},
	} {
		_, err := Decide(in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownCaseLevel))
		assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
	}
}

func TestDecide_CEUnitCapacity(t *testing.T) {
	two := 2

	t.Run("reaching capacity receipts and cancels", func(t *testing.T) {
		got, err := Decide(Input{CaseType: ceCase, AddressLevel: unit, FormType: ind, CeExpected: &two, CeActual: 1})
		require.NoError(t, err)
		assert.Equal(t, Outcome{IncrementActual: true, Receipt: true, Instruction: cancel}, got)
	})

	t.Run("below capacity updates", func(t *testing.T) {
		got, err := Decide(Input{CaseType: ceCase, AddressLevel: unit, FormType: hh, CeExpected: &two, CeActual: 0})
		require.NoError(t, err)
		assert.Equal(t, Outcome{IncrementActual: true, Receipt: false, Instruction: update}, got)
	})

	t.Run("no expected capacity updates", func(t *testing.T) {
		got, err := Decide(Input{CaseType: ceCase, AddressLevel: unit, FormType: hh, CeActual: 10})
		require.NoError(t, err)
		assert.Equal(t, Outcome{IncrementActual: true, Receipt: false, Instruction: update}, got)
	})
}

func TestReversible(t *testing.T) {
	tests := []struct {
		caseType models.CaseType
		level    models.AddressLevel
		form     models.FormType
		want     bool
	}{
		{hhCase, unit, hh, true},
		{hhCase, unit, cont, false},
		{hiCase, unit, ind, true},
		{ceCase, estab, ce1, true},
		{ceCase, estab, ind, false},
		{ceCase, unit, hh, false},
		{spgCase, unit, hh, true},
		{spgCase, unit, ind, false},
	}
	for _, tt := range tests {
		got, err := Reversible(tt.caseType, tt.level, tt.form)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s/%s/%s", tt.caseType, tt.level, tt.form)
	}
}
