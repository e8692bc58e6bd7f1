package allersafe

import "time"

// Metrics defines the interface for tracking client operations.
type Metrics interface {
	// RecordGatewayCall records the outcome of one backend request.
	// Outcome is "success", "backend_error", or "transport_error".
	RecordGatewayCall(endpoint, outcome string, duration time.Duration)

	// RecordReconciliation records a finished checkout reconciliation
	// with its terminal outcome and the number of polls issued.
	RecordReconciliation(outcome string, attempts int)

	// RecordScan records a menu scan attempt and whether it succeeded.
	RecordScan(success bool)

	// RecordAnalysis records a safety analysis attempt and whether it
	// succeeded.
	RecordAnalysis(success bool)

	// RecordPolicyDenied records a capability refused by the policy
	// before reaching the network.
	RecordPolicyDenied(capability string)

	// RecordSessionRefresh records a principal refresh and whether it
	// succeeded.
	RecordSessionRefresh(success bool)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordGatewayCall(endpoint, outcome string, duration time.Duration) {}
func (n *NoopMetrics) RecordReconciliation(outcome string, attempts int)                  {}
func (n *NoopMetrics) RecordScan(success bool)                                            {}
func (n *NoopMetrics) RecordAnalysis(success bool)                                        {}
func (n *NoopMetrics) RecordPolicyDenied(capability string)                               {}
func (n *NoopMetrics) RecordSessionRefresh(success bool)                                  {}
