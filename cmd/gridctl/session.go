package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	appprogress "github.com/hsa8903-tech/ulsan-daun/internal/application/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/shared"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
)

// withService opens the progress service for one command and closes it
// afterwards. Load notices go to stderr.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *appprogress.Service) error) (err error) {
	ctx := commandContext(cmd)

	repo, err := persistence.OpenSnapshotRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	deps, err := appprogress.DepsFromConfig(cfg)
	if err != nil {
		_ = repo.Close()
		return err
	}
	deps.Repository = repo
	deps.Logger = logger

	svc, err := appprogress.Open(ctx, deps)
	if err != nil {
		_ = repo.Close()
		return err
	}
	defer func() {
		err = errors.Join(err, svc.Close(ctx))
	}()

	for _, n := range svc.Notices() {
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", n.Level, n.Message)
	}
	return fn(ctx, svc)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseGridArgs(building, process string) (progress.Building, progress.Process, error) {
	b, err := progress.ParseBuilding(building)
	if err != nil {
		return 0, "", err
	}
	p, err := progress.ParseProcess(process)
	if err != nil {
		return 0, "", err
	}
	return b, p, nil
}

// floorRow maps a floor argument ("15" or "15F") to its row index.
func floorRow(ctx context.Context, svc *appprogress.Service, b progress.Building, p progress.Process, arg string) (int, error) {
	s := strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(arg)), progress.FloorSuffix)
	floor, err := strconv.Atoi(s)
	if err != nil {
		return 0, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("invalid floor %q", arg))
	}
	t, err := svc.Grid(ctx, b, p)
	if err != nil {
		return 0, err
	}
	row := t.RowIndex(floor)
	if row < 0 {
		return 0, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("floor %d is not tracked", floor))
	}
	return row, nil
}
