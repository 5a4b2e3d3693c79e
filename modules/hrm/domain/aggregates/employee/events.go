package employee

type CreatedEvent struct {
	Result *Employee
}

type UpdatedEvent struct {
	Result *Employee
}

func NewCreatedEvent(result *Employee) *CreatedEvent {
	return &CreatedEvent{Result: result}
}

func NewUpdatedEvent(result *Employee) *UpdatedEvent {
	return &UpdatedEvent{Result: result}
}
