// Package cli is the orderdesk command line: browse TableCRM lookups and
// submit sales orders without the HTTP API.
package cli

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/spf13/cobra"

	"orderdesk/internal/config"
	"orderdesk/internal/service/workflow"
	"orderdesk/internal/tablecrm"
)

var version = "dev"

// remoteOptions are the persistent flags shared by every remote command.
// Unset flags fall back to the environment and the config file.
type remoteOptions struct {
	baseURL   string
	token     string
	pageLimit int
	timeout   time.Duration
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &remoteOptions{}
	cmd := &cobra.Command{
		Use:           "orderdesk",
		Short:         "Compose and submit TableCRM sales orders",
		Long:          "orderdesk browses TableCRM reference data and submits sales documents built from it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", tablecrm.DefaultBaseURL, "TableCRM API root")
	cmd.PersistentFlags().StringVar(&opts.token, "token", "", "TableCRM access token (default $TABLECRM_TOKEN)")
	cmd.PersistentFlags().IntVar(&opts.pageLimit, "page-limit", 100, "entries fetched per lookup page")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log remote calls to stderr")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLookupCmd(opts))
	cmd.AddCommand(newSubmitCmd(opts))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	return newRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "orderdesk "+version)
		},
	}
}

// settings merges the config layers with the flags the user actually set.
func (o *remoteOptions) settings(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = o.baseURL
	}
	if flags.Changed("token") {
		cfg.Token = o.token
	}
	if flags.Changed("page-limit") {
		cfg.PageLimit = o.pageLimit
	}
	if flags.Changed("timeout") {
		cfg.RemoteTimeout = o.timeout
	}
	return cfg, cfg.Validate()
}

// openSession builds a single-use workflow session against the configured API.
func (o *remoteOptions) openSession(cmd *cobra.Command) (*workflow.Session, error) {
	cfg, err := o.settings(cmd)
	if err != nil {
		return nil, err
	}
	logger := log.New(io.Discard, "", 0)
	if o.verbose {
		logger = log.New(cmd.ErrOrStderr(), "[orderdesk] ", log.LstdFlags|log.LUTC)
	}
	client := tablecrm.NewClient(cfg.BaseURL, tablecrm.Options{Timeout: cfg.RemoteTimeout}, logger)
	creds := tablecrm.NewCredentials(cfg.Token)
	return workflow.New("cli", tablecrm.NewCatalog(client.Bind(creds), cfg.PageLimit), creds, workflow.Deps{
		Logger:      logger,
		DefaultUnit: cfg.DefaultUnit,
	}), nil
}
