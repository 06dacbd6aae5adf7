// Package cli implements chatlogctl, which works directly on a storage root.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"chatlog/pkg/logger"
	"chatlog/pkg/shutdown"
	"chatlog/pkg/state"
	"chatlog/pkg/store"
)

type options struct {
	dir        string
	account    string
	configPath string
	output     string

	cfg *FileConfig
	// isTTY decides the default output format.
	isTTY func() bool
}

func (o *options) root() (string, error) {
	return state.ResolveRoot(o.dir, o.account)
}

func (o *options) paths() (state.Paths, error) {
	root, err := o.root()
	if err != nil {
		return state.Paths{}, err
	}
	return state.PathsFor(root), nil
}

func (o *options) openStore(archive store.Archiver) (*store.Store, error) {
	return store.New(store.Config{BaseDir: o.dir, Account: o.account, Archive: archive})
}

func (o *options) archivePath() (string, error) {
	if o.cfg != nil && o.cfg.ArchivePath != "" {
		return o.cfg.ArchivePath, nil
	}
	p, err := o.paths()
	if err != nil {
		return "", err
	}
	return p.Archive, nil
}

func (o *options) bindFlags(pf *pflag.FlagSet) {
	pf.StringVar(&o.dir, "dir", "", "storage base directory (default is the process state directory)")
	pf.StringVar(&o.account, "account", "", "account namespace under the storage directory")
	pf.StringVarP(&o.configPath, "config", "c", "", "config file path (default is $HOME/"+configFileName+")")
	pf.StringVarP(&o.output, "output", "o", "", "output format: table, json or yaml")
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// resolve merges the config file under the persistent flags.
func (o *options) resolve(cmd *cobra.Command) error {
	path := o.configPath
	explicit := changed(cmd, "config")
	if !explicit {
		path = DefaultConfigPath()
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	o.cfg = cfg

	if !changed(cmd, "dir") && cfg.Dir != "" {
		o.dir = cfg.Dir
	}
	if !changed(cmd, "account") && cfg.Account != "" {
		o.account = cfg.Account
	}
	if !changed(cmd, "output") {
		switch {
		case cfg.Output != "":
			o.output = cfg.Output
		case o.isTTY():
			o.output = formatTable
		default:
			o.output = formatJSON
		}
	}
	o.output = strings.ToLower(strings.TrimSpace(o.output))
	if !validFormat(o.output) {
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", o.output)
	}
	_, err = o.root()
	return err
}

// NewRootCmd builds the chatlogctl command tree.
func NewRootCmd(version string) *cobra.Command {
	o := &options{
		isTTY: func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
	}
	rootCmd := &cobra.Command{
		Use:           "chatlogctl",
		Short:         "Inspect and maintain chatlog storage",
		Long:          `chatlogctl reads chat logs, searches them and prunes them directly on a storage root.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.resolve(cmd)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	o.bindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newChatsCmd(o),
		newMessagesCmd(o),
		newSearchCmd(o),
		newPruneCmd(o),
		newConnectionsCmd(o),
		newArchiveCmd(o),
	)
	return rootCmd
}

// Execute runs chatlogctl with args and returns the process exit code.
func Execute(version string, args []string, stdout, stderr io.Writer) int {
	level := os.Getenv("CHATLOG_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger.InitWriter(stderr, level)
	defer logger.Sync()

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	cmd := NewRootCmd(version)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
