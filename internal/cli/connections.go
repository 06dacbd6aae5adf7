package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chatlog/pkg/models"
)

var errNoActiveConnection = errors.New("no active business connection")

func newConnectionsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connections",
		Short: "Inspect stored business connections",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every known connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.openStore(nil)
			if err != nil {
				return err
			}
			conns := s.ListConnections()
			return render(cmd.OutOrStdout(), o.output, conns, func(tw *tabwriter.Writer) {
				writeConnectionsTable(tw, conns)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "active",
		Short: "Show the enabled connection used for replies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.openStore(nil)
			if err != nil {
				return err
			}
			id, ok := s.ActiveConnectionID()
			if !ok {
				return errNoActiveConnection
			}
			conn, err := s.GetConnection(id)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o.output, conn, func(tw *tabwriter.Writer) {
				writeConnectionsTable(tw, []models.ConnectionRecord{conn})
			})
		},
	})
	return cmd
}

func writeConnectionsTable(tw *tabwriter.Writer, conns []models.ConnectionRecord) {
	fmt.Fprintln(tw, "ID\tUSER\tNAME\tENABLED\tCAN REPLY\tUPDATED")
	for _, c := range conns {
		canReply := "-"
		if c.CanReply != nil {
			canReply = fmt.Sprint(*c.CanReply)
		}
		name := models.ChatMeta{FirstName: c.FirstName, LastName: c.LastName}.DisplayName()
		fmt.Fprintf(tw, "%s\t%d\t%s\t%t\t%s\t%s\n", c.ID, c.UserID, name, c.IsEnabled, canReply, relativeMillis(c.UpdatedAt))
	}
}
