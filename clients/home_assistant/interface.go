package home_assistant

import "context"

type HomeAssistantAPI interface {
	CallService(ctx context.Context, domain, service, entityID string) error
}
