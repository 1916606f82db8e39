package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coffersTech/nanoaudit/internal/client"
	"github.com/coffersTech/nanoaudit/internal/config"
	"github.com/coffersTech/nanoaudit/internal/engine"
	"github.com/coffersTech/nanoaudit/internal/model"
	"github.com/coffersTech/nanoaudit/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(err)
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := config.NewOptions()
	logLevel := "info"
	configPath := os.Getenv("NANOAUDIT_CONFIG")

	cmd := &cobra.Command{
		Use:           "nanoaudit",
		Short:         "Review captured traffic and the findings detection rules raised on it",
		Long:          "nanoaudit fetches request/response records from one or more collector backends, overlays rule findings on the raw text and lets you sort, filter and summarize them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindViper(cmd, configPath)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "Log level for nanoaudit output (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&configPath, "config", configPath, "Path to a config file (default: config.yaml in the nanoaudit config dirs)")
	opts.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newLogsCommand(opts, &logLevel),
		newShowCommand(opts, &logLevel),
		newStreamCommand(opts, &logLevel),
		newStatsCommand(opts, &logLevel),
		newAgentsCommand(opts, &logLevel),
		newSnapshotCommand(opts, &logLevel),
	)
	cmd.Example = `  # Records with findings, worst first
  nanoaudit logs --backends http://collector:8080/api/v1 --sort requestFindings:desc

  # One record with highlighted lines
  nanoaudit show 6f1c0f3e-1b7e-4c55-9d43-0c1e5a0b4d2a

  # Work offline from a snapshot
  nanoaudit snapshot save audit.nanoaudit
  nanoaudit stats --snapshot audit.nanoaudit`
	return cmd
}

// bindViper layers NANOAUDIT_* variables and the config file under the
// flags the user did not set on the command line.
func bindViper(cmd *cobra.Command, configPath string) error {
	v := config.NewViper(configPath)
	if err := config.ReadConfigFile(v, configPath != ""); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return config.ApplyToFlags(v, cmd.Flags())
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", errorMessage(err))
}

// errorMessage appends a hint for the failures users can act on.
func errorMessage(err error) string {
	message := err.Error()
	var (
		statusErr *client.StatusError
		verr      *model.ValidationError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		message = fmt.Sprintf("%s\nHint: increase --timeout or verify the backends are reachable.", err)
	case errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden):
		message = fmt.Sprintf("%s\nHint: the backend rejected the credentials. Check --token or NANOAUDIT_TOKEN.", err)
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		message = fmt.Sprintf("%s\nHint: check the id, and that each backend URL carries the API prefix (e.g. http://host:8080/api/v1).", err)
	case errors.Is(err, model.ErrDuplicateRowID):
		message = fmt.Sprintf("%s\nHint: the record collection repeats an id. Re-fetch or re-save the snapshot.", err)
	case errors.As(err, &verr):
		message = fmt.Sprintf("%s\nHint: a backend sent a malformed record. Pass --lenient-records to skip it.", err)
	case errors.Is(err, engine.ErrUnknownColumn):
		message = fmt.Sprintf("%s\nHint: column ids are %s.", err, columnIDs())
	case errors.Is(err, storage.ErrInvalidHeader), errors.Is(err, storage.ErrCorrupt):
		message = fmt.Sprintf("%s\nHint: the file is not a nanoaudit snapshot. Create one with 'nanoaudit snapshot save'.", err)
	}
	return message
}
