package infrastructure

import (
	"errors"

	"prizedraw/domain/events"
	"prizedraw/domain/interfaces"
)

// FanoutPublisher hands every event to each wrapped publisher. A failing
// publisher does not stop delivery to the others.
type FanoutPublisher struct {
	publishers []interfaces.EventPublisher
}

// NewFanoutPublisher creates a publisher over publishers, skipping nil entries
func NewFanoutPublisher(publishers ...interfaces.EventPublisher) *FanoutPublisher {
	f := &FanoutPublisher{}
	for _, p := range publishers {
		if p != nil {
			f.publishers = append(f.publishers, p)
		}
	}
	return f
}

// Publish delivers event to every publisher and joins their errors
func (f *FanoutPublisher) Publish(event events.Event) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
