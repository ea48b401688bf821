package progress

import (
	"fmt"

	"github.com/hsa8903-tech/ulsan-daun/internal/domain/progress"
	"github.com/hsa8903-tech/ulsan-daun/internal/infrastructure/config"
)

// NewSiteResolver builds the layout resolver for the configured site: the
// shipped layout table, then configured per-building layouts on top.
func NewSiteResolver(site *config.SiteConfig) *progress.StaticLayoutResolver {
	opts := []progress.LayoutOption{
		progress.WithFallbackLayout(site.DefaultUnits),
		progress.WithFloorRange(site.TopFloor, site.BottomFloor),
	}
	for _, code := range site.LayoutCodes() {
		opts = append(opts, progress.WithBuildingLayout(progress.Building(code), site.Layouts[code]))
	}
	return progress.DefaultLayoutResolver(opts...)
}

// DepsFromConfig fills the site part of Deps from configuration. Callers
// still supply the repository, logger, bus and metrics.
func DepsFromConfig(cfg *config.Config) (Deps, error) {
	loc, err := cfg.Site.Location()
	if err != nil {
		return Deps{}, fmt.Errorf("site time zone %q: %w", cfg.Site.TimeZone, err)
	}
	return Deps{
		Resolver:      NewSiteResolver(&cfg.Site),
		Location:      loc,
		SiteName:      cfg.Site.Name,
		Buildings:     progress.BuildingRange(cfg.Site.FirstBuilding, cfg.Site.LastBuilding),
		StorageDriver: cfg.Storage.Driver,
	}, nil
}
