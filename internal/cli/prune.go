package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"chatlog/internal/retention"
	"chatlog/pkg/archive"
	"chatlog/pkg/config"
	"chatlog/pkg/logger"
	"chatlog/pkg/state"
	"chatlog/pkg/store"
)

const cliLeaseTTL = 5 * time.Minute

type pruneFlags struct {
	all        bool
	maxCount   int
	maxAgeDays int
	dryRun     bool
	archive    bool
}

func newPruneCmd(o *options) *cobra.Command {
	var f pruneFlags
	cmd := &cobra.Command{
		Use:   "prune [chatId]",
		Short: "Compact chat logs and drop history beyond the limits",
		Long: `prune rewrites a chat log down to its current view, minus records older than
--max-age-days and beyond the newest --max-count. With --all every chat is pruned
under the retention lease, so it never overlaps a server's scheduled run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.all == (len(args) == 1) {
				return errors.New("give exactly one of <chatId> or --all")
			}
			if !cmd.Flags().Changed("max-count") {
				f.maxCount = o.cfg.Retention.MaxCount
			}
			if !cmd.Flags().Changed("max-age-days") {
				f.maxAgeDays = o.cfg.Retention.MaxAgeDays
			}
			if f.maxCount < 0 || f.maxAgeDays < 0 {
				return errors.New("limits must not be negative")
			}
			if f.maxCount == 0 && f.maxAgeDays == 0 {
				return errors.New("no limits: set --max-count or --max-age-days")
			}

			var arch store.Archiver
			if f.archive && !f.dryRun {
				path, err := o.archivePath()
				if err != nil {
					return err
				}
				a, err := archive.Open(path)
				if err != nil {
					return err
				}
				defer a.Close()
				arch = a
			}
			s, err := o.openStore(arch)
			if err != nil {
				return err
			}

			if f.all {
				return pruneAll(cmd, o, s, f)
			}
			chatID, err := store.ParseChatID(args[0])
			if err != nil {
				return err
			}
			var res store.PruneResult
			if f.dryRun {
				res, err = s.PlanPrune(chatID, f.maxCount, f.maxAgeDays)
			} else {
				res, err = s.Prune(chatID, f.maxCount, f.maxAgeDays)
			}
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o.output, res, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "CHAT ID\tRAW\tRETAINED\tDROPPED\tSKIPPED\tREWRITTEN\tARCHIVED")
				fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%t\t%d\n", res.ChatID, res.Raw, res.Retained, res.Dropped, res.Skipped, res.Rewritten, res.Archived)
			})
		},
	}
	fl := cmd.Flags()
	fl.BoolVar(&f.all, "all", false, "prune every chat")
	fl.IntVar(&f.maxCount, "max-count", 0, "keep at most this many messages per chat")
	fl.IntVar(&f.maxAgeDays, "max-age-days", 0, "drop messages older than this many days")
	fl.BoolVar(&f.dryRun, "dry-run", false, "report what would be dropped without rewriting")
	fl.BoolVar(&f.archive, "archive", false, "keep dropped records in the archive")
	return cmd
}

func pruneAll(cmd *cobra.Command, o *options, s *store.Store, f pruneFlags) error {
	p := s.Paths()
	if err := state.EnsureStateDirs(p); err != nil {
		return err
	}
	if err := logger.AttachAuditFileSink(p.Audit); err != nil {
		logger.Warn("audit_sink_unavailable", "error", err)
	}
	m := retention.New(retention.Options{
		Store: s,
		Config: config.RetentionConfig{
			MaxCount:   f.maxCount,
			MaxAgeDays: f.maxAgeDays,
			DryRun:     f.dryRun,
			LockTTL:    config.Duration(cliLeaseTTL),
		},
		LeaseDir: p.Retention,
	})
	sum, err := m.RunImmediate(cmd.Context())
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), o.output, sum, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "RUN\tDRY RUN\tCHATS\tREWRITTEN\tDROPPED\tARCHIVED\tFAILED")
		fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%d\t%d\t%d\n", sum.RunID, sum.DryRun, sum.Chats, sum.Rewritten, sum.Dropped, sum.Archived, sum.Failed)
	})
}
