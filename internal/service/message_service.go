package service

import (
	"context"
	"fmt"
	"strings"

	"gigmarket/internal/domain"
	"gigmarket/internal/repository"
)

// MessageInput carries a direct message.
type MessageInput struct {
	RecipientID   string  `json:"recipient_id"`
	JobID         *string `json:"job_id"`
	Content       string  `json:"content"`
	AttachmentURL string  `json:"attachment_url"`
}

// MessageService handles direct messages between users.
type MessageService interface {
	Send(ctx context.Context, senderID string, in MessageInput) (*domain.Message, error)
	Conversation(ctx context.Context, userID, otherID string, limit int) ([]domain.Message, error)
	Inbox(ctx context.Context, userID string, limit int) ([]domain.Message, error)
	MarkRead(ctx context.Context, userID, messageID string) error
}

type messageService struct {
	messages repository.MessageRepository
}

func NewMessageService(messages repository.MessageRepository) MessageService {
	return &messageService{messages: messages}
}

func (s *messageService) Send(ctx context.Context, senderID string, in MessageInput) (*domain.Message, error) {
	recipient := strings.TrimSpace(in.RecipientID)
	if recipient == "" {
		return nil, invalidf("recipient is required")
	}
	if recipient == senderID {
		return nil, invalidf("cannot send a message to yourself")
	}
	if err := checkLength("content", in.Content, 1, 5000); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		SenderID:      senderID,
		RecipientID:   recipient,
		JobID:         in.JobID,
		Content:       strings.TrimSpace(in.Content),
		AttachmentURL: strings.TrimSpace(in.AttachmentURL),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) Conversation(ctx context.Context, userID, otherID string, limit int) ([]domain.Message, error) {
	if strings.TrimSpace(otherID) == "" {
		return nil, invalidf("conversation partner is required")
	}
	return s.messages.Conversation(ctx, userID, otherID, limit)
}

func (s *messageService) Inbox(ctx context.Context, userID string, limit int) ([]domain.Message, error) {
	return s.messages.Inbox(ctx, userID, limit)
}

func (s *messageService) MarkRead(ctx context.Context, userID, messageID string) error {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.RecipientID != userID {
		return fmt.Errorf("%w: only the recipient can mark a message read", ErrForbidden)
	}
	if msg.Read {
		return nil
	}
	return s.messages.MarkRead(ctx, messageID)
}
