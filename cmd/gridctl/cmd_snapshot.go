package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	appprogress "github.com/hsa8903-tech/ulsan-daun/internal/application/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var reconcileWrite bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Check stored grids against the configured layouts",
	Long: `Reconciles every stored grid against the unit layouts in the current
configuration and reports what would change. Retired unit columns are
dropped; tables that no longer fit are reset.

With --write the reconciled grids are saved back to storage.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the stored snapshot as YAML",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

// snapshotDump is the YAML view of a stored snapshot
type snapshotDump struct {
	Driver  string                          `yaml:"driver"`
	SavedAt time.Time                       `yaml:"saved_at"`
	Grids   map[string]progress.StoredTable `yaml:"grids"`
	Skipped []string                        `yaml:"skipped,omitempty"`
}

func loadSnapshot(ctx context.Context) (*progress.Snapshot, error) {
	repo, err := persistence.OpenSnapshotRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	return repo.Load(ctx)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	snapshot, err := loadSnapshot(ctx)
	if errors.Is(err, progress.ErrSnapshotNotFound) {
		fmt.Fprintln(out, "no saved snapshot")
		return nil
	}
	if err != nil {
		return err
	}

	resolver := appprogress.NewSiteResolver(&cfg.Site)
	changed := 0
	for _, key := range snapshot.Keys() {
		_, report := progress.Reconcile(snapshot.Tables[key], key, resolver)
		if report.NeedsNotice() || report.Upgraded {
			changed++
		}
		fmt.Fprintf(out, "%-12s %s\n", report.Outcome, report.Message())
	}
	for _, name := range snapshot.Skipped {
		fmt.Fprintf(out, "%-12s %q does not name a known grid\n", "skipped", name)
	}

	if !reconcileWrite {
		if changed > 0 {
			fmt.Fprintf(out, "%d grid(s) would change; rerun with --write to save\n", changed)
		}
		return nil
	}
	return withService(cmd, func(ctx context.Context, svc *appprogress.Service) error {
		if err := svc.OnSaveRequested(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %d grid(s)\n", len(svc.LoadedGrids(ctx)))
		return nil
	})
}

func runInspect(cmd *cobra.Command, args []string) error {
	snapshot, err := loadSnapshot(commandContext(cmd))
	if errors.Is(err, progress.ErrSnapshotNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "no saved snapshot")
		return nil
	}
	if err != nil {
		return err
	}

	dump := snapshotDump{
		Driver:  cfg.Storage.Driver,
		SavedAt: snapshot.SavedAt,
		Grids:   make(map[string]progress.StoredTable, len(snapshot.Tables)),
		Skipped: snapshot.Skipped,
	}
	for key, t := range snapshot.Tables {
		dump.Grids[key.String()] = t
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(dump); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}
