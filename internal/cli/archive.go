package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chatlog/pkg/archive"
	"chatlog/pkg/store"
)

func newArchiveCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect records kept by archiving prunes",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list <chatId>",
		Short: "List archived records of a chat, oldest batch first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID, err := store.ParseChatID(args[0])
			if err != nil {
				return err
			}
			path, err := o.archivePath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no archive at %s: %w", path, err)
			}
			a, err := archive.OpenReadOnly(path)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.List(chatID, limit)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []archive.Entry{}
			}
			return render(cmd.OutOrStdout(), o.output, entries, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "BATCH\tARCHIVED\tID\tEVENT\tTEXT")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", e.Batch, e.ArchivedAt.Format("2006-01-02 15:04:05"), e.Record.MessageID, e.Record.Event, oneLine(e.Record.DisplayText(), 60))
				}
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "maximum records; 0 lists all")
	cmd.AddCommand(list)
	return cmd
}
