// Command admin runs maintenance tasks against the tasknest database.
//
//	admin migrate           apply pending schema migrations
//	admin revoke-sessions   sign every user out by clearing all refresh tokens
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tasknest/tasknest-go/internal/config"
	"github.com/tasknest/tasknest-go/internal/logging"
	"github.com/tasknest/tasknest-go/internal/repository"
)

var errUsage = errors.New("usage: admin [-timeout d] <migrate|revoke-sessions>")

// sessionRevoker ends every stored session.
type sessionRevoker interface {
	ClearAllRefreshTokenHashes(ctx context.Context) (int64, error)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.New(cfg.LogLevel, cfg.LogFormat)

	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	timeout := fs.Duration("timeout", time.Minute, "overall deadline for the command")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, errUsage)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		return 1
	}
	defer db.Close()

	if err := runCommand(ctx, fs.Arg(0), db, repository.NewUserRepository(db), os.Stdout); err != nil {
		slog.Error("admin command failed", "command", fs.Arg(0), "error", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func runCommand(ctx context.Context, name string, db *sql.DB, sessions sessionRevoker, out io.Writer) error {
	switch name {
	case "migrate":
		return repository.Migrate(ctx, db)
	case "revoke-sessions":
		n, err := sessions.ClearAllRefreshTokenHashes(ctx)
		if err != nil {
			return err
		}
		slog.Info("sessions revoked", "users", n)
		fmt.Fprintf(out, "revoked %d session(s)\n", n)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", name, errUsage)
	}
}
