package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigmarket/internal/domain"
)

func TestSendMessage(t *testing.T) {
	messages := newMemMessages()
	svc := NewMessageService(messages)

	msg, err := svc.Send(context.Background(), "a", MessageInput{RecipientID: "b", Content: "  hello  "})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.NotEmpty(t, msg.ID)

	_, err = svc.Send(context.Background(), "a", MessageInput{RecipientID: "a", Content: "me"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Send(context.Background(), "a", MessageInput{RecipientID: "b", Content: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Send(context.Background(), "a", MessageInput{RecipientID: "b", Content: strings.Repeat("x", 5001)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	convo, err := svc.Conversation(context.Background(), "b", "a", 10)
	require.NoError(t, err)
	assert.Len(t, convo, 1)
}

func TestMarkReadOnlyByRecipient(t *testing.T) {
	messages := newMemMessages(
		domain.Message{ID: "m-1", SenderID: "a", RecipientID: "b"},
		domain.Message{ID: "m-2", SenderID: "a", RecipientID: "b", Read: true},
	)
	svc := NewMessageService(messages)

	assert.ErrorIs(t, svc.MarkRead(context.Background(), "a", "m-1"), ErrForbidden)
	require.NoError(t, svc.MarkRead(context.Background(), "b", "m-1"))
	require.NoError(t, svc.MarkRead(context.Background(), "b", "m-2"))
	assert.Equal(t, []string{"m-1"}, messages.marked)
}
