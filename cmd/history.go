// -- cmd/history.go --
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canvaspress/canvaspress/internal/observability"
	"github.com/canvaspress/canvaspress/internal/pipeline"
	"github.com/canvaspress/canvaspress/internal/store"
	"github.com/canvaspress/canvaspress/internal/worker"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent conversions from the configured history database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, closePool, err := openHistoryStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("no history database configured; set history.dsn")
		}
		defer closePool()

		records, err := st.RecentConversions(ctx, historyLimit)
		if err != nil {
			return err
		}

		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max rows to list")
	rootCmd.AddCommand(historyCmd)
}

// openHistoryStore connects to the configured history database. A nil
// store with nil error means history is disabled.
func openHistoryStore(ctx context.Context) (*store.Store, func(), error) {
	if appConfig.History.DSN == "" {
		return nil, nil, nil
	}

	pool, err := pgxpool.New(ctx, appConfig.History.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}

	st, err := store.New(ctx, pool, observability.GetLogger())
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return st, pool.Close, nil
}

// recordHistory writes batch outcomes to the history store, if one is
// configured. History failures never fail the conversion itself.
func recordHistory(ctx context.Context, outcomes []worker.Outcome) {
	logger := observability.GetLogger()

	st, closePool, err := openHistoryStore(ctx)
	if err != nil {
		logger.Warn("History store unavailable; skipping recording", zap.Error(err))
		return
	}
	if st == nil {
		return
	}
	defer closePool()

	var records []store.ConversionRecord
	for _, outcome := range outcomes {
		if outcome.Err != nil || outcome.Result == nil {
			continue
		}
		records = append(records, toRecord(outcome.Source, outcome.Result))
	}

	if err := st.RecordConversions(ctx, records); err != nil {
		logger.Warn("Failed to record conversion history", zap.Error(err))
	}
}

func toRecord(source string, result *pipeline.ConvertResult) store.ConversionRecord {
	warnings := len(result.Resolution.Warnings)
	if result.Render != nil {
		warnings += len(result.Render.Warnings)
	}
	return store.ConversionRecord{
		ID:         result.ConversionID,
		Source:     source,
		Variables:  result.Catalog.Statistics.TotalVariables,
		Resolved:   result.Resolution.ResolvedCount,
		Missing:    result.Resolution.Missing,
		Warnings:   warnings,
		DurationMS: result.Duration.Milliseconds(),
	}
}
