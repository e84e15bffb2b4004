package events

// Topic constants for domain events emitted by the bridge.
const (
	TopicCheckoutCompleted = "checkout.completed"
	TopicCheckoutHeld      = "checkout.held"
	TopicShareRequested    = "share.requested"
	TopicShareDelivered    = "share.delivered"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicCheckoutCompleted,
		TopicCheckoutHeld,
		TopicShareRequested,
		TopicShareDelivered,
	}
}
