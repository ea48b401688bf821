// Package progress is the application layer of the installation progress
// tracker: it owns the live grids of a session, loads and saves snapshots,
// and turns operator interactions into domain operations.
package progress

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/shared"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultSiteName is the title shown when none is configured
const DefaultSiteName = "울산다운1차 작업 관리"

// Deps collects what Open needs. Only Repository is required.
type Deps struct {
	Repository    progress.SnapshotRepository
	Resolver      progress.LayoutResolver
	Logger        *zap.Logger
	EventBus      shared.EventPublisher
	Metrics       *telemetry.ProgressMetrics
	Location      *time.Location
	Clock         func() time.Time
	SiteName      string
	Buildings     []progress.Building
	StorageDriver string
}

// Service serves one operator session over the site's grids. Mutations are
// serialized; a save writes every cached grid.
type Service struct {
	mu        sync.Mutex
	store     *GridStore
	adapter   *PersistenceAdapter
	resolver  progress.LayoutResolver
	logger    *zap.Logger
	bus       shared.EventPublisher
	metrics   *telemetry.ProgressMetrics
	clock     func() time.Time
	location  *time.Location
	siteName  string
	buildings []progress.Building
	notices   []Notice
	closed    bool
}

// Open builds the service and loads the saved snapshot. A missing or
// unreadable snapshot does not fail Open; it is reported through Notices.
func Open(ctx context.Context, deps Deps) (*Service, error) {
	if deps.Repository == nil {
		return nil, errors.New("snapshot repository is required")
	}
	s := &Service{
		resolver:  deps.Resolver,
		logger:    deps.Logger,
		bus:       deps.EventBus,
		metrics:   deps.Metrics,
		clock:     deps.Clock,
		location:  deps.Location,
		siteName:  deps.SiteName,
		buildings: slices.Clone(deps.Buildings),
	}
	if s.resolver == nil {
		s.resolver = progress.DefaultLayoutResolver()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.siteName == "" {
		s.siteName = DefaultSiteName
	}
	if len(s.buildings) == 0 {
		s.buildings = progress.BuildingRange(101, 120)
	}

	s.store = NewGridStore(s.resolver)
	s.adapter = NewPersistenceAdapter(deps.Repository, s.resolver, s.logger, s.metrics, deps.StorageDriver)
	s.adapter.now = s.now

	ctx, span := telemetry.StartServiceSpan(ctx, "progress", "open")
	defer span.End()

	tables, notices := s.adapter.Load(ctx)
	for key, t := range tables {
		s.store.Set(key.Building, key.Process, t)
	}
	s.notices = notices
	for _, key := range s.store.Keys() {
		t, _ := s.store.Peek(key)
		s.publish(ctx, t)
		s.recordCompletion(ctx, t)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrGrids, s.store.Len(), telemetry.SpanAttrNotices, len(notices))
	return s, nil
}

// Close releases the repository. Unsaved changes are logged and dropped.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if dirty := s.store.Dirty(); len(dirty) > 0 {
		names := make([]string, len(dirty))
		for i, k := range dirty {
			names[i] = k.String()
		}
		s.logger.Warn("closing with unsaved changes", zap.Strings("grids", names))
	}
	return s.adapter.Close()
}

// OnCellClick toggles the cell at (rowIndex, columnID). A click on the floor
// or notes column changes nothing and returns the unchanged cell view.
func (s *Service) OnCellClick(ctx context.Context, b progress.Building, p progress.Process, rowIndex int, columnID string) (CellView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := telemetry.StartServiceSpan(ctx, "progress", "toggle",
		telemetry.WithAttribute(telemetry.SpanAttrBuilding, b.String()),
		telemetry.WithAttribute(telemetry.SpanAttrProcess, string(p)),
		telemetry.WithAttribute(telemetry.SpanAttrRow, rowIndex),
		telemetry.WithAttribute(telemetry.SpanAttrColumn, columnID),
	)
	defer span.End()

	if err := s.checkOpen(b, p); err != nil {
		telemetry.RecordError(span, err)
		return CellView{}, err
	}

	t := s.store.Get(b, p)
	cell, changed, err := t.Toggle(rowIndex, columnID, s.now())
	if err != nil {
		telemetry.RecordError(span, err)
		return CellView{}, err
	}
	if !changed {
		return frozenCellView(t, rowIndex, columnID), nil
	}

	s.store.MarkDirty(t.Key)
	s.publish(ctx, t)
	s.recordCompletion(ctx, t)
	col := t.UnitIndex(columnID)
	return newCellView(rowIndex, t.Rows[rowIndex].Floor, t.Units[col], cell, true), nil
}

// UpdateNotes replaces the notes of one floor
func (s *Service) UpdateNotes(ctx context.Context, b progress.Building, p progress.Process, rowIndex int, text string) (RowView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := telemetry.StartServiceSpan(ctx, "progress", "notes",
		telemetry.WithAttribute(telemetry.SpanAttrBuilding, b.String()),
		telemetry.WithAttribute(telemetry.SpanAttrProcess, string(p)),
		telemetry.WithAttribute(telemetry.SpanAttrRow, rowIndex),
	)
	defer span.End()

	if err := s.checkOpen(b, p); err != nil {
		telemetry.RecordError(span, err)
		return RowView{}, err
	}
	t := s.store.Get(b, p)
	if err := t.SetNotes(rowIndex, text, s.now()); err != nil {
		telemetry.RecordError(span, err)
		return RowView{}, err
	}
	if events := t.GetDomainEvents(); len(events) > 0 {
		s.store.MarkDirty(t.Key)
	}
	s.publish(ctx, t)
	return newGridView(t).Rows[rowIndex], nil
}

// OnSaveRequested writes every cached grid as the new snapshot
func (s *Service) OnSaveRequested(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := telemetry.StartServiceSpan(ctx, "progress", "save")
	defer span.End()

	if s.closed {
		return shared.NewDomainError("INVALID_STATE", "session is closed")
	}
	tables := s.store.Snapshot()
	telemetry.SetAttribute(span, telemetry.SpanAttrGrids, len(tables))
	if err := s.adapter.Save(ctx, tables); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.store.ClearDirty()
	if s.bus != nil {
		if err := s.bus.Publish(ctx, progress.NewSnapshotSavedEvent(len(tables), s.now())); err != nil {
			s.logger.Warn("failed to publish snapshot saved event", zap.Error(err))
		}
	}
	telemetry.SetOK(span)
	return nil
}

// OnBuildingOrProcessChanged returns the grid for the new selection,
// creating a default grid on first access.
func (s *Service) OnBuildingOrProcessChanged(ctx context.Context, b progress.Building, p progress.Process) (*GridView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := telemetry.StartServiceSpan(ctx, "progress", "select",
		telemetry.WithAttribute(telemetry.SpanAttrBuilding, b.String()),
		telemetry.WithAttribute(telemetry.SpanAttrProcess, string(p)),
	)
	defer span.End()

	if err := s.checkOpen(b, p); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return newGridView(s.store.Get(b, p)), nil
}

// Grid returns a detached copy of the grid for (b, p)
func (s *Service) Grid(ctx context.Context, b progress.Building, p progress.Process) (*progress.GridTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(b, p); err != nil {
		return nil, err
	}
	return s.store.Get(b, p).Clone(), nil
}

// LoadedGrids returns detached copies of every cached grid in display order
func (s *Service) LoadedGrids(ctx context.Context) []*progress.GridTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.store.Keys()
	out := make([]*progress.GridTable, 0, len(keys))
	for _, k := range keys {
		t, _ := s.store.Peek(k)
		out = append(out, t.Clone())
	}
	return out
}

// Notices returns the notices raised while loading
func (s *Service) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.notices)
}

// Dirty returns the grids changed since the last save
func (s *Service) Dirty() []progress.GridKey {
	return s.store.Dirty()
}

// DirtyCount returns the number of grids changed since the last save
func (s *Service) DirtyCount() int {
	return len(s.store.Dirty())
}

// Closed reports whether Close has been called
func (s *Service) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Site describes the tracked site
func (s *Service) Site() SiteView {
	buildings := make([]string, len(s.buildings))
	for i, b := range s.buildings {
		buildings[i] = b.String()
	}
	processes := make([]ProcessView, 0, len(progress.AllProcesses()))
	for _, p := range progress.AllProcesses() {
		processes = append(processes, ProcessView{ID: string(p), Name: p.DisplayName()})
	}
	return SiteView{
		Name:      s.siteName,
		Buildings: buildings,
		Processes: processes,
		Floors:    s.resolver.Floors(),
	}
}

// Summary reports marked and total cells for every (building, process)
// pair of the site. Grids never opened count as untouched.
func (s *Service) Summary(ctx context.Context) []GridSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	floors := len(s.resolver.Floors())
	out := make([]GridSummary, 0, len(s.buildings)*len(progress.AllProcesses()))
	for _, b := range s.buildings {
		for _, p := range progress.AllProcesses() {
			key := progress.NewGridKey(b, p)
			summary := GridSummary{Building: b.String(), Process: string(p)}
			if t, ok := s.store.Peek(key); ok {
				summary.Marked = t.MarkedCount()
				summary.Total = t.TotalCells()
				summary.Loaded = true
			} else {
				summary.Total = floors * len(s.resolver.Resolve(b))
			}
			if summary.Total > 0 {
				summary.Ratio = float64(summary.Marked) / float64(summary.Total)
			}
			out = append(out, summary)
		}
	}
	return out
}

func (s *Service) now() time.Time {
	return s.clock().In(s.location)
}

func (s *Service) checkOpen(b progress.Building, p progress.Process) error {
	if s.closed {
		return shared.NewDomainError("INVALID_STATE", "session is closed")
	}
	if !p.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("unknown process %q", p))
	}
	if !slices.Contains(s.buildings, b) {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("building %s is not part of the site", b))
	}
	return nil
}

func (s *Service) publish(ctx context.Context, t *progress.GridTable) {
	events := t.PullDomainEvents()
	if s.bus == nil || len(events) == 0 {
		return
	}
	if err := s.bus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish progress events", zap.Error(err), zap.String("grid", t.Key.String()))
	}
}

func (s *Service) recordCompletion(ctx context.Context, t *progress.GridTable) {
	s.metrics.RecordCompletion(ctx, t.Key.Building.String(), string(t.Key.Process), t.MarkedCount(), t.TotalCells())
}

func frozenCellView(t *progress.GridTable, row int, column string) CellView {
	r := t.Rows[row]
	view := CellView{
		Row:    row,
		Floor:  r.Floor,
		Column: progress.NormalizeColumnID(column),
		Style:  string(progress.StylePlain),
	}
	if view.Column == progress.NotesColumn {
		view.Text = r.Notes
	} else {
		view.Text = progress.FloorLabel(r.Floor)
	}
	view.Label = view.Text
	return view
}
