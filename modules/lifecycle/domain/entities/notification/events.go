package notification

type CreatedEvent struct {
	Result *Notification
}

func NewCreatedEvent(result *Notification) *CreatedEvent {
	return &CreatedEvent{Result: result}
}
