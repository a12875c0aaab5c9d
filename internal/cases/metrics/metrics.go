package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for case state changes.
type Metrics struct {
	// Receipts by case type and field instruction
	Receipts *prometheus.CounterVec

	// Receipts reversed by blank questionnaires
	Unreceipts *prometheus.CounterVec

	// Case splits by old and new case type
	AddressTypeChanges *prometheus.CounterVec

	// Outbound events by type
	Emitted *prometheus.CounterVec
}

// New creates a new Metrics instance registered with the default registry.
func New() *Metrics {
	return &Metrics{
		Receipts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseprocessor_receipts_total",
			Help: "Case receipts applied by case type and field instruction",
		}, []string{"case_type", "instruction"}),

		Unreceipts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseprocessor_unreceipts_total",
			Help: "Case receipts reversed by blank questionnaires",
		}, []string{"case_type"}),

		AddressTypeChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseprocessor_address_type_changes_total",
			Help: "Cases split by an address type change",
		}, []string{"from", "to"}),

		Emitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseprocessor_outbound_events_total",
			Help: "Outbound events written to the outbox by event type",
		}, []string{"event_type"}),
	}
}

// IncrementReceipt records a receipt that changed a case.
func (m *Metrics) IncrementReceipt(caseType, instruction string) {
	if m != nil {
		if instruction == "" {
			instruction = "none"
		}
		m.Receipts.WithLabelValues(caseType, instruction).Inc()
	}
}

// IncrementUnreceipt records a reversed receipt.
func (m *Metrics) IncrementUnreceipt(caseType string) {
	if m != nil {
		m.Unreceipts.WithLabelValues(caseType).Inc()
	}
}

// IncrementAddressTypeChange records a case split.
func (m *Metrics) IncrementAddressTypeChange(from, to string) {
	if m != nil {
		m.AddressTypeChanges.WithLabelValues(from, to).Inc()
	}
}

// IncrementEmitted records an outbound event.
func (m *Metrics) IncrementEmitted(eventType string) {
	if m != nil {
		m.Emitted.WithLabelValues(eventType).Inc()
	}
}
