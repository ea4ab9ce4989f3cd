package service

// EventPublisher pushes live dashboard events to a company's connected clients.
type EventPublisher interface {
	Publish(companyID uint, event string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(uint, string, interface{}) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
