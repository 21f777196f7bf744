package realtime

import "github.com/supportdesk-io/supportdesk-ce/internal/models"

// Reconcile applies an event to an ordered message list. Inserts append only
// when the id is not already present, so an optimistic local echo and the
// broadcast of the same message never produce a duplicate. Updates replace
// by id and ignore unknown ids.
func Reconcile(messages []models.Message, event Event) []models.Message {
	if event.Message == nil {
		return messages
	}

	switch event.Type {
	case EventMessageInserted:
		for i := range messages {
			if messages[i].ID == event.Message.ID {
				messages[i] = *event.Message
				return messages
			}
		}
		return append(messages, *event.Message)

	case EventMessageUpdated:
		for i := range messages {
			if messages[i].ID == event.Message.ID {
				messages[i] = *event.Message
				break
			}
		}
		return messages
	}

	return messages
}
