package rest

import (
	"context"
	"fmt"

	"gigmarket/internal/baas"
	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
)

const messagesTable = "messages"

type MessageRepository struct {
	client *baas.Client
}

func NewMessageRepository(client *baas.Client) repository.MessageRepository {
	return &MessageRepository{client: client}
}

func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return insertOne(ctx, r.client, messagesTable, msg)
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*domain.Message, error) {
	return getByID[domain.Message](ctx, r.client, messagesTable, id)
}

// Conversation returns the messages exchanged between two users, oldest first.
func (r *MessageRepository) Conversation(ctx context.Context, userA, userB string, limit int) ([]domain.Message, error) {
	resp, err := r.client.From(messagesTable).
		Select("*").
		Or(fmt.Sprintf("and(sender_id.eq.%s,recipient_id.eq.%s),and(sender_id.eq.%s,recipient_id.eq.%s)", userA, userB, userB, userA)).
		Order("created_at", true).
		Limit(limitOrDefault(limit)).
		Execute(ctx)
	if err != nil {
		return nil, translate(err, "list conversation")
	}
	return decodeList[domain.Message](resp)
}

// Inbox returns the latest messages sent or received by userID, newest first.
func (r *MessageRepository) Inbox(ctx context.Context, userID string, limit int) ([]domain.Message, error) {
	resp, err := r.client.From(messagesTable).
		Select("*").
		Or(fmt.Sprintf("sender_id.eq.%s,recipient_id.eq.%s", userID, userID)).
		Order("created_at", false).
		Limit(limitOrDefault(limit)).
		Execute(ctx)
	if err != nil {
		return nil, translate(err, "list inbox")
	}
	return decodeList[domain.Message](resp)
}

func (r *MessageRepository) MarkRead(ctx context.Context, id string) error {
	_, err := updateByID[domain.Message](ctx, r.client, messagesTable, id, map[string]any{"read": true})
	return err
}
