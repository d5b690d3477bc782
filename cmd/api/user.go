package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/northgate/helpdesk/internal/config"
	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/persistence"
	"github.com/northgate/helpdesk/internal/repository"
	"github.com/northgate/helpdesk/internal/service"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User administration",
	}

	var (
		name, email, role, password string
		passwordStdin               bool
	)
	create := &cobra.Command{
		Use:     "create",
		Short:   "Create a user account",
		Example: `  printf '%s' "$PASS" | helpdesk user create --nombre "Ana Pérez" --email ana@northgate.local --rol tecnico --password-stdin
  HELPDESK_USER_PASSWORD=... helpdesk user create --nombre "Luis" --email luis@northgate.local`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := resolvePassword(cmd.InOrStdin(), password, passwordStdin, os.Getenv(passwordEnv))
			if err != nil {
				return err
			}
			return withPostgres(cmd, func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) error {
				authService := service.NewAuthService(cfg.Auth, repository.NewStore(pool), logger)
				user, err := authService.CreateUser(ctx, name, email, domain.Role(role), secret)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", user.ID, user.Email, user.Role)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "nombre", "", "display name")
	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&role, "rol", string(domain.RoleUser), "role: usuario, tecnico or admin")
	create.Flags().StringVar(&password, "password", "", "initial password (visible in the process list; prefer --password-stdin or "+passwordEnv+")")
	create.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the initial password from stdin")
	create.MarkFlagsMutuallyExclusive("password", "password-stdin")
	for _, flag := range []string{"nombre", "email"} {
		_ = create.MarkFlagRequired(flag)
	}

	cmd.AddCommand(create)
	return cmd
}

const passwordEnv = "HELPDESK_USER_PASSWORD"

// resolvePassword picks the initial password from, in order, the flag, stdin
// when asked, and the environment.
func resolvePassword(stdin io.Reader, flagValue string, fromStdin bool, envValue string) (string, error) {
	switch {
	case flagValue != "":
		return flagValue, nil
	case fromStdin:
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password from stdin: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return "", errors.New("empty password on stdin")
		}
		return line, nil
	case envValue != "":
		return envValue, nil
	}
	return "", fmt.Errorf("password required: use --password-stdin or set %s", passwordEnv)
}

// withPostgres opens the configured pool for the duration of fn.
func withPostgres(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) error) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	return fn(cmd.Context(), cfg, pg.PoolHandle(), logger)
}
