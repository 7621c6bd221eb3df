package kafka

// Topic names shared with the authoritative marketplace service. The values
// are part of the wire contract and must match the producer side.
const (
	// Inbound: entity snapshots from the authoritative store.
	TopicDeliveryCreated = "to_deliver"
	TopicDeliveryCancel  = "to_cancel_delivery"
	TopicCourierProfile  = "courier_profile"

	// Outbound: local state changes published for the authoritative store.
	TopicDeliveryUpdated       = "delivered"
	TopicCourierLocation       = "courier_location"
	TopicCourierProfileRequest = "ask_courier_profile"
)

// InboundTopics lists every topic the synchronization layer consumes.
func InboundTopics() []string {
	return []string{TopicDeliveryCreated, TopicDeliveryCancel, TopicCourierProfile}
}
