package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

var (
	chatConversation string
	chatProject      string
	chatModel        string
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatConversation, "conversation", "", "conversation to continue")
	chatCmd.Flags().StringVar(&chatProject, "project", "", "project for a new conversation")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "model override")
}

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask a question and stream the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if chatConversation == "" && chatProject == "" {
			return fmt.Errorf("either --conversation or --project is required")
		}

		client, logger, err := newClient()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		ctx := cmd.Context()

		conversationID := chatConversation
		if conversationID == "" {
			conv, err := client.Chat.CreateConversation(ctx, types.CreateConversationParams{ProjectID: chatProject}).Unwrap()
			if err != nil {
				return fmt.Errorf("create conversation: %w", err)
			}
			conversationID = conv.ID
			fmt.Fprintf(os.Stderr, "conversation %s\n", conversationID)
		}

		params := types.SendMessageParams{
			Content:   strings.Join(args, " "),
			ProjectID: chatProject,
			Model:     chatModel,
		}
		err = client.Chat.StreamMessage(ctx, conversationID, params, stream.SinkFunc(func(ev stream.Event) error {
			switch ev.Kind {
			case stream.EventContentDelta:
				fmt.Print(ev.Text)
			case stream.EventToolCall:
				fmt.Fprintf(os.Stderr, "[calling %s]\n", ev.Name)
			case stream.EventNotice:
				fmt.Fprintf(os.Stderr, "[%s]\n", ev.Text)
			case stream.EventUnknown:
				logger.Debug("skipping stream event", zap.String("event_type", ev.EventType))
			}
			return nil
		}))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("chat: %w", err)
		}
		return nil
	},
}
