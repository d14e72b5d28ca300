// Command migrate manages the storefront schema.
//
//	migrate [-dir path] up|down|status|version|to <YYYYMMDDHHMMSS>|create <name>|validate
//
// Without -dir the migrations embedded in the binary are used; create always
// writes to disk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/mcbeauty/storefront-backend/pkg/config"
	"github.com/mcbeauty/storefront-backend/pkg/db"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
	"github.com/mcbeauty/storefront-backend/pkg/migrate"
)

var errUsage = errors.New("usage: migrate [-dir path] up|down|status|version|to <version>|create <name>|validate")

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", "", "migrations directory (default: embedded)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *dir, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, dir string, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	command, rest := args[0], args[1:]

	switch command {
	case "create":
		if len(rest) != 1 {
			return errUsage
		}
		target := dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, rest[0])
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.Validate(migrate.Source(dir)); err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": command})

	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer client.Close()
	conn, err := client.SQLDB()
	if err != nil {
		return err
	}
	m, err := migrate.New(conn, client.Driver(), migrate.Source(dir), logg)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "to":
		if len(rest) != 1 {
			return errUsage
		}
		return m.To(ctx, rest[0])
	case "version":
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	case "status":
		statuses, err := m.Status(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
		for _, st := range statuses {
			applied := "-"
			if !st.AppliedAt.IsZero() {
				applied = st.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", st.Source.Version, st.State, applied, st.Source.Path)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}
}
