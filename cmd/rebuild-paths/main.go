package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/goliatone/go-sitetree/cmd/internal/bootstrap"
	"github.com/goliatone/go-sitetree/internal/locales"
	"github.com/goliatone/go-sitetree/internal/pages"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runRebuild(os.Args[1:]); err != nil {
		log.Fatalf("rebuild-paths: %v", err)
	}
}

func runRebuild(args []string) error {
	fs := flag.NewFlagSet("rebuild-paths", flag.ExitOnError)
	dsn := fs.String("dsn", "", "DSN of the sitetree database")
	driver := fs.String("driver", "sqlite3", "Database driver (sqlite3 or postgres)")
	locale := fs.String("locale", "", "Locale code whose tree should be repaired (default repairs every locale)")
	root := fs.String("root", "", "Limit the repair to this page subtree (UUID, requires -locale)")
	dryRun := fs.Bool("dry-run", false, "Report what would change without writing")

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, cleanup, err := moduleBuilder(bootstrap.Options{DSN: *dsn, Driver: *driver})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer func() { _ = cleanup() }()

	ctx := context.Background()

	rootID, err := bootstrap.ParseUUID(*root)
	if err != nil {
		return fmt.Errorf("parse root: %w", err)
	}
	if rootID != uuid.Nil && *locale == "" {
		return fmt.Errorf("-root requires -locale")
	}

	var targets []*locales.Locale
	if *locale == "" {
		targets, err = module.Locales().List(ctx)
		if err != nil {
			return fmt.Errorf("list locales: %w", err)
		}
	} else {
		record, err := module.Locales().GetByCode(ctx, *locale)
		if err != nil {
			return fmt.Errorf("resolve locale %q: %w", *locale, err)
		}
		targets = []*locales.Locale{record}
	}

	for _, target := range targets {
		req := pages.RebuildRequest{
			LocaleID: target.ID,
			DryRun:   *dryRun,
		}
		if rootID != uuid.Nil {
			req.RootID = &rootID
		}

		result, err := module.Pages().Rebuild(ctx, req)
		if err != nil {
			return fmt.Errorf("rebuild tree for %s: %w", target.Code, err)
		}

		mode := "applied"
		if result.DryRun {
			mode = "dry-run"
		}
		fmt.Printf("%s %s: scanned %d pages, rewrote %d paths, renumbered %d positions\n",
			target.Code, mode, result.PagesScanned, result.PathsRewritten, result.PositionsRewritten)
		for _, change := range result.PathChanges {
			fmt.Printf("  %s: %s -> %s\n", change.PageID, change.OldPath, change.NewPath)
		}
	}
	return nil
}
