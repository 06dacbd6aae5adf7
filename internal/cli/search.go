package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chatlog/pkg/store"
	"chatlog/pkg/store/pagination"
)

type searchOutput struct {
	Query string            `json:"query"`
	Hits  []store.SearchHit `json:"hits"`
}

func newSearchCmd(o *options) *cobra.Command {
	var (
		chat  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search message text across chats",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("empty query")
			}
			opts := store.SearchOptions{}
			if chat != "" {
				id, err := store.ParseChatID(chat)
				if err != nil {
					return err
				}
				opts.ChatID = &id
			}
			if cmd.Flags().Changed("limit") {
				opts.Limit = pagination.Limit(limit)
			}

			s, err := o.openStore(nil)
			if err != nil {
				return err
			}
			hits, err := s.Search(query, opts)
			if err != nil {
				return err
			}
			out := searchOutput{Query: query, Hits: hits}
			return render(cmd.OutOrStdout(), o.output, out, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "CHAT\tID\tDATE\tFROM\tTEXT")
				for _, h := range hits {
					m := h.Message
					fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", h.ChatID, m.MessageID, unixDate(m.Date), m.FromFirstName, oneLine(m.DisplayText(), 60))
				}
			})
		},
	}
	cmd.Flags().StringVar(&chat, "chat", "", "only search this chat")
	cmd.Flags().IntVar(&limit, "limit", pagination.DefaultSearchLimit, "maximum hits; 0 returns all")
	return cmd
}
