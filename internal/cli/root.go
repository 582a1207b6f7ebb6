// Package cli wires configuration, the API client and the front ends into
// cobra commands.
package cli

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/abelzeko/riverflow/internal/api"
	"github.com/abelzeko/riverflow/internal/config"
	"github.com/abelzeko/riverflow/internal/integration"
	"github.com/abelzeko/riverflow/internal/repository"
	"github.com/abelzeko/riverflow/internal/usecases"
	apperrors "github.com/abelzeko/riverflow/pkg/errors"
)

type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRoot constructs the riverflow command. Without a subcommand it runs the
// interactive search session on the command's input and output.
func NewRoot(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	a := &app{cfg: cfg, logger: logger}
	root := &cobra.Command{
		Use:           "riverflow",
		Short:         "Search river stations and show their latest flow",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runInteractive,
	}
	root.AddCommand(newWatchCommand(a))
	root.AddCommand(newHistoryCommand(a))
	root.AddCommand(newBotCommand(a))
	return root
}

// ErrorMessage renders a command error for stderr, prefixed with its
// category when it has one.
func ErrorMessage(err error) string {
	if code := apperrors.Code(err); code != "" {
		return fmt.Sprintf("riverflow: %s error: %v", code, err)
	}
	return fmt.Sprintf("riverflow: %v", err)
}

func (a *app) runInteractive(cmd *cobra.Command, _ []string) error {
	uc, closeRepo, err := a.newUseCase()
	if err != nil {
		return err
	}
	defer closeRepo()

	stations, err := uc.LoadStations(cmd.Context())
	if err != nil {
		return err
	}

	session := api.NewSession(uc, stations, api.NewLineReader(cmd.InOrStdin()), cmd.OutOrStdout(), a.logger)
	return session.Run(cmd.Context())
}

// newUseCase builds the use case; the returned func closes the history database.
func (a *app) newUseCase() (*usecases.FlowUseCase, func(), error) {
	client := integration.NewFlowClient(
		a.cfg.API.BaseURL,
		a.cfg.Credentials(),
		a.logger,
		integration.WithHTTPClient(&http.Client{Timeout: a.cfg.API.Timeout}),
		integration.WithStationPages(a.cfg.API.StationPages),
	)

	var repo repository.LookupRepository
	closeRepo := func() {}
	if path := a.cfg.History.DBPath; path != "" {
		r, err := repository.NewSQLiteLookupRepository(path, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize lookup history: %w", err)
		}
		repo = r
		closeRepo = func() {
			if err := r.Close(); err != nil {
				a.logger.Warn("failed to close lookup history", "err", err)
			}
		}
	}
	return usecases.NewFlowUseCase(client, repo, a.logger), closeRepo, nil
}
