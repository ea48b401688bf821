package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	appprogress "github.com/hsa8903-tech/ulsan-daun/internal/application/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/export"
	"github.com/spf13/cobra"
)

var exportOutput string

var showCmd = &cobra.Command{
	Use:   "show <building> <process>",
	Short: "Render a grid",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <building> <process> <floor> <column>",
	Short: "Toggle one cell and save",
	Long: `Flips a cell between its plain label and the completed form
"<label> ✔ <date>", then saves the snapshot.

Example:
  gridctl toggle 101 indoor-unit 15 2`,
	Args: cobra.ExactArgs(4),
	RunE: runToggle,
}

var notesCmd = &cobra.Command{
	Use:   "notes <building> <process> <floor> [text...]",
	Short: "Replace the notes of a floor and save",
	Args:  cobra.MinimumNArgs(3),
	RunE:  runNotes,
}

var exportCmd = &cobra.Command{
	Use:   "export <building> <process>",
	Short: "Write a grid to an xlsx workbook",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

func runShow(cmd *cobra.Command, args []string) error {
	b, p, err := parseGridArgs(args[0], args[1])
	if err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, svc *appprogress.Service) error {
		view, err := svc.OnBuildingOrProcessChanged(ctx, b, p)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderGrid(view))
		return nil
	})
}

func runToggle(cmd *cobra.Command, args []string) error {
	b, p, err := parseGridArgs(args[0], args[1])
	if err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, svc *appprogress.Service) error {
		row, err := floorRow(ctx, svc, b, p, args[2])
		if err != nil {
			return err
		}
		cell, err := svc.OnCellClick(ctx, b, p, row, args[3])
		if err != nil {
			return err
		}
		if !cell.Changed {
			fmt.Fprintf(cmd.OutOrStdout(), "column %q is not toggleable, nothing changed\n", args[3])
			return nil
		}
		if err := svc.OnSaveRequested(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderCell(cell))
		return nil
	})
}

func runNotes(cmd *cobra.Command, args []string) error {
	b, p, err := parseGridArgs(args[0], args[1])
	if err != nil {
		return err
	}
	text := strings.Join(args[3:], " ")
	return withService(cmd, func(ctx context.Context, svc *appprogress.Service) error {
		row, err := floorRow(ctx, svc, b, p, args[2])
		if err != nil {
			return err
		}
		view, err := svc.UpdateNotes(ctx, b, p, row, text)
		if err != nil {
			return err
		}
		if err := svc.OnSaveRequested(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %q\n", view.FloorLabel, progress.NotesColumn, view.Notes)
		return nil
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	b, p, err := parseGridArgs(args[0], args[1])
	if err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, svc *appprogress.Service) error {
		t, err := svc.Grid(ctx, b, p)
		if err != nil {
			return err
		}
		data, err := export.WriteXLSX(t)
		if err != nil {
			return err
		}
		out := exportOutput
		if out == "" {
			out = export.Filename(t.Key)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", t.Key, out)
		return nil
	})
}
