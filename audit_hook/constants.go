package audithook

// Action constants for audit events.
const (
	// Protocol actions
	ActionProtocolInitialized = "protocol.initialized"

	// Stream actions
	ActionStreamCreated   = "stream.created"
	ActionStreamDeposited = "stream.deposited"
	ActionStreamWithdrawn = "stream.withdrawn"
	ActionStreamPaused    = "stream.paused"
	ActionStreamResumed   = "stream.resumed"
	ActionStreamCanceled  = "stream.canceled"

	// Delegation actions
	ActionDelegationGranted = "delegation.granted"
	ActionDelegationRevoked = "delegation.revoked"
)

// Resource constants for audit events.
const (
	ResourceProtocol   = "protocol"
	ResourceStream     = "stream"
	ResourceDelegation = "delegation"
)

// Category constants for audit events.
const (
	CategoryAdmin     = "admin"
	CategoryPayment   = "payment"
	CategoryLifecycle = "lifecycle"
	CategoryAccess    = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
