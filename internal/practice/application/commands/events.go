package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/repertoire/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/repertoire/internal/shared/domain"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// appendToOutbox stores events in the outbox as part of the caller's unit of work.
func appendToOutbox(ctx context.Context, repo outbox.Repository, userRef uuid.UUID, events ...sharedDomain.DomainEvent) error {
	sharedApplication.ApplyEventMetadata(events, sharedApplication.EventMetadataFromContext(ctx, userRef))

	msgs := make([]*outbox.Message, 0, len(events))
	for _, event := range events {
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return repo.SaveBatch(ctx, msgs)
}
