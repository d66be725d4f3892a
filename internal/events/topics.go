package events

// Topic constants for domain events emitted by the checkout pipeline.
const (
	TopicCheckoutSettled           = "checkout.settled"
	TopicCheckoutAborted           = "checkout.aborted"
	TopicCheckoutFulfillmentFailed = "checkout.fulfillment_failed"
)

// DefaultTopics returns the canonical list of checkout topics.
func DefaultTopics() []string {
	return []string{
		TopicCheckoutSettled,
		TopicCheckoutAborted,
		TopicCheckoutFulfillmentFailed,
	}
}
