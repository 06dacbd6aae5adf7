package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chatlog/pkg/models"
	"chatlog/pkg/store"
	"chatlog/pkg/store/pagination"
)

func newChatsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List chats, most recently active first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.openStore(nil)
			if err != nil {
				return err
			}
			chats, err := s.ListChats()
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o.output, chats, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "CHAT ID\tNAME\tUSERNAME\tMESSAGES\tLAST ACTIVE")
				for _, c := range chats {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", c.ChatID, c.DisplayName(), c.Username, c.MessageCount, relativeMillis(c.LastMessageAt))
				}
			})
		},
	}
}

func newMessagesCmd(o *options) *cobra.Command {
	var (
		limit  int
		before int64
		after  int64
	)
	cmd := &cobra.Command{
		Use:   "messages <chatId>",
		Short: "Show the current view of a chat's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID, err := store.ParseChatID(args[0])
			if err != nil {
				return err
			}
			opts := store.LoadOptions{}
			if cmd.Flags().Changed("limit") {
				opts.Limit = pagination.Limit(limit)
			}
			if cmd.Flags().Changed("before") {
				opts.Before = &before
			}
			if cmd.Flags().Changed("after") {
				opts.After = &after
			}

			s, err := o.openStore(nil)
			if err != nil {
				return err
			}
			page, err := s.LoadPage(chatID, opts)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o.output, page, func(tw *tabwriter.Writer) {
				writeMessagesTable(tw, page.Messages)
				if page.Pagination.HasMore {
					fmt.Fprintf(tw, "\n(more before %d)\n", page.Pagination.FirstID)
				}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", pagination.DefaultLimit, "maximum messages; 0 shows all")
	cmd.Flags().Int64Var(&before, "before", 0, "only messages with id lower than this")
	cmd.Flags().Int64Var(&after, "after", 0, "only messages with id greater than this")
	return cmd
}

func writeMessagesTable(tw *tabwriter.Writer, msgs []models.MessageRecord) {
	fmt.Fprintln(tw, "ID\tDATE\tDIR\tEVENT\tFROM\tTEXT")
	for _, m := range msgs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", m.MessageID, unixDate(m.Date), m.Direction, m.Event, m.FromFirstName, oneLine(m.DisplayText(), 60))
	}
}
