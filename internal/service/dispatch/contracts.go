package dispatch

// Bus abstracts the outbound side of the synchronization layer. Publishing
// is fire-and-forget and must never block the engine.
type Bus interface {
	Publish(topic string, v any)
}

// NopBus discards everything; used when the bus is not configured.
type NopBus struct{}

// Publish drops the message.
func (NopBus) Publish(string, any) {}
