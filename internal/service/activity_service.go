package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/events"
)

// ActivityService records auth and registration events as structured activity
// logs. Delivery is best effort: failures are logged, never surfaced.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger) *ActivityService {
	return &ActivityService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventMemberLoggedIn, a.logEvent)
	a.dispatcher.Subscribe(events.EventPasswordResetRequested, a.logEvent)
	a.dispatcher.Subscribe(events.EventPasswordChanged, a.logEvent)
	a.dispatcher.Subscribe(events.EventRegistrationStarted, a.logEvent)
	a.dispatcher.Subscribe(events.EventRegistrationStepSaved, a.logEvent)
	a.dispatcher.Subscribe(events.EventRegistrationCompleted, a.logEvent)
}

func (a *ActivityService) logEvent(_ context.Context, event events.Event) error {
	a.logger.Info("activity",
		zap.String("event", string(event.Type)),
		zap.String("member_id", event.MemberID),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload))
	return nil
}
