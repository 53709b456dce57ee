package observability

const MetricPrefix = "investa"

// Metric names
const (
	RequestsSubmittedTotal     = MetricPrefix + ".requests.submitted_total"
	RequestsDecidedTotal       = MetricPrefix + ".requests.decided_total"
	ProfitAccruedTotal         = MetricPrefix + ".contracts.profit_accrued_total"
	ProfitAccruedAmount        = MetricPrefix + ".contracts.profit_accrued_amount"
	ContractTransitionsTotal   = MetricPrefix + ".contracts.transitions_total"
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
	HTTPRequestDuration        = MetricPrefix + ".http.request_duration"
)

// Label keys
const (
	LabelKind      = "kind"
	LabelOutcome   = "outcome"
	LabelFromState = "from_state"
	LabelToState   = "to_state"
	LabelEventType = "event_type"
	LabelRoute     = "route"
	LabelStatus    = "status"
)
