package bus

// Topology is the shared naming contract for the logical exchange and its
// dead-letter counterpart. It is injected into each transport instead of
// being duplicated as magic strings across services.
type Topology struct {
	// Exchange is the logical topic exchange all lifecycle events flow
	// through. Events are routed by their event type.
	Exchange string

	// DeadLetterExchange receives messages a consumer exhausted retries on.
	DeadLetterExchange string
}

// DefaultTopology returns the platform-wide exchange naming.
func DefaultTopology() Topology {
	return Topology{
		Exchange:           "markethub.events",
		DeadLetterExchange: "markethub.events.dlx",
	}
}
