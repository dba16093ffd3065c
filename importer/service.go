// Package importer reads CSV and Excel files of daily hours and applies each
// row as a time entry.
package importer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"worktally/aggregator"
	"worktally/settings"
	"worktally/timeentry"
)

// EntrySetter receives mapped rows; *aggregator.Service satisfies it.
type EntrySetter interface {
	GetEntry(ctx context.Context, workItemID int, userID string) (timeentry.Record, bool, error)
	SetEntry(ctx context.Context, entry aggregator.Entry) (timeentry.Record, error)
}

type Options struct {
	// Format overrides the extension based format detection.
	Format string
	// DefaultUser is used for rows without a user column.
	DefaultUser string
	// HourIncrement rounds imported hours; zero keeps them as read.
	HourIncrement float64
	// DryRun maps and validates every row without writing.
	DryRun bool
	Logger *zap.Logger
}

type Result struct {
	FilesProcessed int
	RowsRead       int
	RowsImported   int
	RowsSkipped    int
}

// Run reads every file completely before writing any of its rows, so a
// malformed file leaves the store untouched. A failing write stops the run;
// rows written before it stay written.
func Run(ctx context.Context, paths []string, sink EntrySetter, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	result := &Result{}
	for _, path := range paths {
		format, err := inferFormat(path, opts.Format)
		if err != nil {
			return result, err
		}
		reader, err := ReaderForFormat(format)
		if err != nil {
			return result, err
		}

		records, err := reader.Read(path)
		if err != nil {
			return result, err
		}

		entries := make([]aggregator.Entry, 0, len(records))
		for _, record := range records {
			entry, ok, err := mapRecord(record, opts.DefaultUser)
			if err != nil {
				return result, fmt.Errorf("%s: %w", path, err)
			}
			if !ok {
				result.RowsSkipped++
				continue
			}
			entry.Hours = settings.RoundToIncrement(entry.Hours, opts.HourIncrement)
			if entry.Notes == "" {
				entry.Notes = "imported from " + path
			}
			entries = append(entries, entry)
		}

		result.FilesProcessed++
		result.RowsRead += len(records)

		if opts.DryRun {
			result.RowsImported += len(entries)
			continue
		}
		for _, entry := range entries {
			// Columns absent from the file keep the stored snapshot.
			existing, found, err := sink.GetEntry(ctx, entry.WorkItemID, entry.UserID)
			if err != nil {
				return result, fmt.Errorf("%s: import #%d %s %s: %w", path, entry.WorkItemID, entry.UserID, entry.Date, err)
			}
			if found {
				entry.Metadata = entry.Metadata.Merge(existing.Metadata())
			}
			if _, err := sink.SetEntry(ctx, entry); err != nil {
				return result, fmt.Errorf("%s: import #%d %s %s: %w", path, entry.WorkItemID, entry.UserID, entry.Date, err)
			}
			result.RowsImported++
		}
		logger.Debug("file imported", zap.String("path", path), zap.Int("rows", len(entries)))
	}

	return result, nil
}
