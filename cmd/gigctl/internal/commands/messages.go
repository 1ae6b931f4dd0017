package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gigmarket/internal/domain"
	"gigmarket/internal/live"
	"gigmarket/internal/service"
)

func newMessagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Direct messages",
	}
	cmd.AddCommand(newMessagesSendCommand(), newMessagesInboxCommand(), newMessagesWatchCommand())
	return cmd
}

func newMessagesSendCommand() *cobra.Command {
	var in service.MessageInput
	var jobID string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			user, ctx, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			if jobID != "" {
				in.JobID = &jobID
			}
			msg, err := e.app.Messages.Send(ctx, user.ID, in)
			if err != nil {
				return err
			}
			return e.print(msg)
		},
	}
	cmd.Flags().StringVar(&in.RecipientID, "to", "", "recipient user id")
	cmd.Flags().StringVar(&in.Content, "content", "", "message text")
	cmd.Flags().StringVar(&jobID, "job", "", "job the message is about")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newMessagesInboxCommand() *cobra.Command {
	var with string
	var limit int
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Show recent messages, or the conversation with one user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			user, ctx, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			var msgs []domain.Message
			if with != "" {
				msgs, err = e.app.Messages.Conversation(ctx, user.ID, with, limit)
			} else {
				msgs, err = e.app.Messages.Inbox(ctx, user.ID, limit)
			}
			if err != nil {
				return err
			}
			return e.print(msgs)
		},
	}
	cmd.Flags().StringVar(&with, "with", "", "show the conversation with this user id")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of messages")
	return cmd
}

func newMessagesWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow incoming messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := envFrom(cmd)
			user, ctx, err := e.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			msgs := live.Messages(e.logger)
			defer msgs.Close()

			filter := domain.ChangeFilter{
				Schema: e.cfg.BaaS.Schema,
				Table:  "messages",
				Filter: "recipient_id=eq." + user.ID,
			}
			return watch(ctx, e, msgs, filter, func(ctx context.Context) ([]domain.Message, error) {
				return e.app.Messages.Inbox(ctx, user.ID, 50)
			}, func(items []domain.Message) string {
				if len(items) == 0 {
					return "no messages"
				}
				latest := items[0]
				return fmt.Sprintf("%d messages, latest from %s: %s", len(items), latest.SenderID, latest.Content)
			})
		},
	}
}
