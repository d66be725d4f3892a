package checkout

// State is a stage of a checkout attempt.
type State string

const (
	StatePricing     State = "PRICING"
	StateShipping    State = "SHIPPING"
	StateAuthorizing State = "AUTHORIZING"
	StateSettled     State = "SETTLED"
	StateAborted     State = "ABORTED"
)
