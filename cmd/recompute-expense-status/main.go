package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sop/financialcontrol/config"
	"github.com/sop/financialcontrol/models"
	"github.com/sop/financialcontrol/utils"
)

const lockKey = "lock:recompute-expense-status"

// Re-derives and persists every expense status from its commitments and payments.
// Used to repair drift after manual edits in the database.
func main() {
	expenseID := flag.Int("expense-id", 0, "Optional: only recompute this expense")
	dryRun := flag.Bool("dry-run", true, "Report drifted statuses only (no writes)")
	flag.Parse()

	settings, err := config.GetSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	config.SetLogLevel(settings.LogLevel)
	config.ConfigurePubSub(settings.PubSub)
	defer config.ClosePubSub()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if err := config.ConnectDatabaseWithRetry(connectCtx, settings.Database); err != nil {
		fmt.Fprintf(os.Stderr, "database not initialized: %v\n", err)
		os.Exit(1)
	}

	// one writer at a time across instances, when redis is configured
	if settings.RedisAddress != "" && !*dryRun {
		if err := config.ConnectRedisWithRetry(ctx, settings.RedisAddress, 3); err != nil {
			fmt.Fprintf(os.Stderr, "redis unavailable, continuing without lock: %v\n", err)
		}
		defer config.CloseRedis()
	}
	release, err := utils.ObtainLock(ctx, config.GetRedisLock(), lockKey, 10*time.Minute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer release()

	ids, err := expenseIDs(ctx, *expenseID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load expenses: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		drifted, err := reportDrift(ctx, ids)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dry run failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("checked %d expenses, %d with drifted status (dry run)\n", len(ids), drifted)
		return
	}

	changed := 0
	for _, id := range ids {
		_, change, err := models.RecomputeExpenseStatus(ctx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				// deleted meanwhile
				continue
			}
			fmt.Fprintf(os.Stderr, "expense id=%d: %v\n", id, err)
			os.Exit(1)
		}
		if change != nil {
			changed++
			fmt.Printf("expense id=%d %s: %s -> %s\n", change.ExpenseId, change.ProtocolNumber, change.OldStatus, change.NewStatus)
		}
	}
	fmt.Printf("checked %d expenses, %d status updated\n", len(ids), changed)
}

func expenseIDs(ctx context.Context, only int) ([]int, error) {
	if only > 0 {
		if _, err := models.GetExpense(ctx, only); err != nil {
			return nil, err
		}
		return []int{only}, nil
	}
	expenses, err := models.ListExpenses(ctx, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(expenses))
	for _, e := range expenses {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

func reportDrift(ctx context.Context, ids []int) (int, error) {
	summaries, err := models.GetExpenseSummaries(ctx, config.GetDB(), ids)
	if err != nil {
		return 0, err
	}
	drifted := 0
	for _, id := range ids {
		expense, err := models.GetExpense(ctx, id)
		if err != nil {
			return 0, err
		}
		if derived := summaries[id].Status(expense.Amount); derived != expense.Status {
			drifted++
			fmt.Printf("expense id=%d %s: stored %s, derived %s\n", id, expense.ProtocolNumber, expense.Status, derived)
		}
	}
	return drifted, nil
}
