package shared

// EventRecorder collects domain events raised by an aggregate until the
// application layer publishes them.
type EventRecorder struct {
	domainEvents []DomainEvent
}

// AddDomainEvent adds a domain event to be published
func (r *EventRecorder) AddDomainEvent(event DomainEvent) {
	r.domainEvents = append(r.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (r *EventRecorder) GetDomainEvents() []DomainEvent {
	return r.domainEvents
}

// ClearDomainEvents clears all pending domain events
func (r *EventRecorder) ClearDomainEvents() {
	r.domainEvents = nil
}

// PullDomainEvents returns pending events and clears them
func (r *EventRecorder) PullDomainEvents() []DomainEvent {
	events := r.domainEvents
	r.domainEvents = nil
	return events
}
