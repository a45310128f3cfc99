package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"admissions-workers/internal/common/config"
)

func migrateCmd() *cobra.Command {
	var source, dsn, cfgPath, direction string
	var steps int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the kb_* table migrations for the postgres knowledge source",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := migrationDSN(dsn, cfgPath)
			if err != nil {
				return err
			}

			m, err := migrate.New(source, url)
			if err != nil {
				return fmt.Errorf("open migrations: %w", err)
			}
			defer m.Close()

			switch direction {
			case "up":
				if steps > 0 {
					err = m.Steps(steps)
				} else {
					err = m.Up()
				}
			case "down":
				if steps > 0 {
					err = m.Steps(-steps)
				} else {
					err = m.Down()
				}
			default:
				return fmt.Errorf("direction must be up or down, got %q", direction)
			}
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Fprintln(cmd.OutOrStdout(), "no change")
				return nil
			}
			if err != nil {
				return err
			}

			version, dirty, _ := m.Version()
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s, version %d (dirty=%v)\n", direction, version, dirty)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "file://migrations", "migrations source URL")
	cmd.Flags().StringVar(&dsn, "dsn", "", "postgres URL (defaults to DATABASE_URL, then the config file)")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file providing database.postgres")
	cmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return cmd
}

func migrationDSN(dsn, cfgPath string) (string, error) {
	if dsn != "" {
		return dsn, nil
	}
	if env := os.Getenv("DATABASE_URL"); env != "" {
		return env, nil
	}
	if cfgPath == "" {
		return "", fmt.Errorf("no database given: pass --dsn, set DATABASE_URL or pass --config")
	}

	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return "", err
	}
	return postgresURL(cfg.Database.Postgres), nil
}

func postgresURL(p config.PostgresConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.Database,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}
