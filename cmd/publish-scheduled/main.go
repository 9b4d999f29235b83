package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-sitetree/cmd/internal/bootstrap"
	"github.com/goliatone/go-sitetree/internal/jobs"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runScheduler(os.Args[1:]); err != nil {
		log.Fatalf("publish-scheduled: %v", err)
	}
}

func runScheduler(args []string) error {
	fs := flag.NewFlagSet("publish-scheduled", flag.ExitOnError)
	dsn := fs.String("dsn", "", "DSN of the sitetree database")
	driver := fs.String("driver", "sqlite3", "Database driver (sqlite3 or postgres)")
	batch := fs.Int("batch", 0, "Maximum tasks claimed per pass (0 uses the default)")
	once := fs.Bool("once", false, "Run a single pass instead of the periodic loop")
	dryRun := fs.Bool("dry-run", false, "List due tasks without executing them")
	backfill := fs.Bool("backfill", false, "Re-enqueue tasks for scheduled pages before processing")

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, cleanup, err := moduleBuilder(bootstrap.Options{DSN: *dsn, Driver: *driver, BatchSize: *batch})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer func() { _ = cleanup() }()

	runner := module.Scheduler()
	if runner == nil {
		return fmt.Errorf("scheduler disabled; enable Features.Scheduling")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *backfill {
		container := module.Container()
		count, err := jobs.BackfillScheduledPages(ctx,
			module.Locales(),
			container.PageRepository(),
			module.Queue(),
			container.Config().Scheduler.MaxAttempts,
		)
		if err != nil {
			return fmt.Errorf("backfill scheduled pages: %w", err)
		}
		fmt.Printf("backfilled %d tasks\n", count)
	}

	if *dryRun {
		due, err := runner.DryRun(ctx)
		if err != nil {
			return fmt.Errorf("list due tasks: %w", err)
		}
		fmt.Printf("%d tasks due\n", len(due))
		for _, task := range due {
			fmt.Printf("  %s %s run_at=%s attempt=%d\n", task.Key, task.Type, task.RunAt.Format("2006-01-02T15:04:05Z07:00"), task.Attempt)
		}
		return nil
	}

	if *once {
		report, err := runner.Tick(ctx)
		if err != nil {
			return fmt.Errorf("scheduler pass: %w", err)
		}
		fmt.Printf("claimed=%d completed=%d skipped=%d failed=%d\n",
			report.Claimed, report.Completed, report.Skipped, report.Failed)
		if report.Failed > 0 {
			for _, entry := range module.Container().AuditTrail() {
				if entry.Outcome != jobs.OutcomeFailed {
					continue
				}
				fmt.Fprintf(os.Stderr, "  failed %s attempt=%d: %s\n", entry.TaskKey, entry.Attempt, entry.Error)
			}
			return fmt.Errorf("%d tasks failed", report.Failed)
		}
		return nil
	}

	if err := runner.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
