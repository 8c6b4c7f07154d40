package app

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/taskgate/taskgate/core/events"
)

// TaskNotifications returns the static subscription set for the tasks
// module's notification hook. The hook logs lifecycle events; it stands in
// for outbound channels (email, chat) that would subscribe the same way.
func TaskNotifications(logger zerolog.Logger) []events.Subscription {
	notify := func(ctx context.Context, e events.Event) error {
		logger.Info().
			Str("event", e.Name).
			Str("module", e.Module).
			Interface("task", e.Data).
			Msg("task notification")
		return nil
	}

	return []events.Subscription{
		{Event: events.TaskCreated, Handler: notify},
		{Event: events.TaskCompleted, Handler: notify},
		{Event: events.TaskDeleted, Handler: notify},
	}
}
