package observability

// Metric name prefixes
const (
	MetricPrefix = "prizedraw"
)

// Metric names
const (
	// Lottery metrics
	LotteriesCreatedTotal = MetricPrefix + ".lotteries.created_total"
	TicketsSoldTotal      = MetricPrefix + ".tickets.sold_total"
	DrawsTotal            = MetricPrefix + ".draws.total"
	PayoutsTotal          = MetricPrefix + ".payouts.total"
	RefundsTotal          = MetricPrefix + ".refunds.total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Database metrics
	DatabaseQueriesTotal  = MetricPrefix + ".database.queries_total"
	DatabaseQueryDuration = MetricPrefix + ".database.query_duration"
)

// Label keys
const (
	LabelOutcome    = "outcome"
	LabelEventType  = "event_type"
	LabelRepository = "repository"
	LabelMethod     = "method"
)

// Draw outcomes
const (
	OutcomeRequested = "requested"
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)
