// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"context"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
	"github.com/vedanthangal/sanctuary/internal/observability/metrics"
)

// Interface abstracts the underlying database implementation and defines the interface for database operations.
type Interface interface {
	Open() error
	Close() error

	// sightings
	ListSightings(ctx context.Context) ([]analytics.SightingRecord, error)
	ListSightingsBetween(ctx context.Context, from, to time.Time) ([]analytics.SightingRecord, error)
	ListSightingsByUser(ctx context.Context, userID string) ([]analytics.SightingRecord, error)
	ListSightingsByRegion(ctx context.Context, lat, lon, radiusKm float64) ([]analytics.SightingRecord, error)
	GetSighting(ctx context.Context, id string) (analytics.SightingRecord, error)
	CreateSighting(ctx context.Context, record *analytics.SightingRecord) error
	VerifySighting(ctx context.Context, id string, verified bool) (analytics.SightingRecord, error)

	// species catalog
	ListSpecies(ctx context.Context) ([]analytics.Species, error)
	GetSpecies(ctx context.Context, id string) (analytics.Species, error)
	CreateSpecies(ctx context.Context, species *analytics.Species) error
	SearchSpecies(ctx context.Context, query string, limit int) ([]analytics.Species, error)

	// hotspots
	ListHotspots(ctx context.Context) ([]Hotspot, error)
	HotspotsNearby(ctx context.Context, lat, lon, radiusKm float64) ([]Hotspot, error)
	CreateHotspot(ctx context.Context, hotspot *Hotspot) error

	Seed(ctx context.Context, data SeedData) (SeedResult, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB      *gorm.DB // GORM database instance
	log     logger.Logger
	metrics *metrics.DatastoreMetrics
}

// Option configures a store created by New.
type Option func(*DataStore)

// WithLogger sets the logger; the datastore logs under the "datastore" module.
func WithLogger(log logger.Logger) Option {
	return func(ds *DataStore) {
		if log != nil {
			ds.log = log.Module("datastore")
		}
	}
}

// WithMetrics records operation counts and durations.
func WithMetrics(m *metrics.DatastoreMetrics) Option {
	return func(ds *DataStore) {
		ds.metrics = m
	}
}

// New creates a store for the configured database type. Open must be
// called before use.
func New(settings *conf.Settings, opts ...Option) Interface {
	ds := DataStore{log: logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)}
	for _, opt := range opts {
		opt(&ds)
	}

	switch settings.Database.Type {
	case conf.DatabaseMySQL:
		return &MySQLStore{DataStore: ds, Settings: settings}
	default:
		return &SQLiteStore{DataStore: ds, Settings: settings}
	}
}

// observe records the outcome of one operation when metrics are enabled.
func (ds *DataStore) observe(operation, table string, start time.Time, err error) {
	if ds.metrics == nil {
		return
	}
	var errType string
	if err != nil {
		errType = errorType(err)
	}
	ds.metrics.ObserveOperation(operation, table, time.Since(start).Seconds(), errType)
}

func (ds *DataStore) observeRows(operation, table string, n int) {
	if ds.metrics != nil {
		ds.metrics.ObserveRows(operation, table, n)
	}
}

func (ds *DataStore) db(ctx context.Context) (*gorm.DB, error) {
	if ds.DB == nil {
		return nil, errNotOpen()
	}
	return ds.DB.WithContext(ctx), nil
}

// ListSightings returns every sighting, oldest first.
func (ds *DataStore) ListSightings(ctx context.Context) ([]analytics.SightingRecord, error) {
	return ds.querySightings(ctx, "list", nil)
}

// ListSightingsBetween returns sightings observed in [from, to).
func (ds *DataStore) ListSightingsBetween(ctx context.Context, from, to time.Time) ([]analytics.SightingRecord, error) {
	if !to.After(from) {
		return nil, validationError("time range end must be after its start", "to", to)
	}
	return ds.querySightings(ctx, "list_between", func(q *gorm.DB) *gorm.DB {
		return q.Where("observed_at >= ? AND observed_at < ?", from.UTC(), to.UTC())
	})
}

// ListSightingsByUser returns the sightings submitted by userID.
func (ds *DataStore) ListSightingsByUser(ctx context.Context, userID string) ([]analytics.SightingRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, validationError("user id is required", "userId", userID)
	}
	return ds.querySightings(ctx, "list_by_user", func(q *gorm.DB) *gorm.DB {
		return q.Where("user_id = ?", userID)
	})
}

// ListSightingsByRegion returns sightings inside the square box of
// radiusKm/111 degrees around the point. Sightings without coordinates
// never match.
func (ds *DataStore) ListSightingsByRegion(ctx context.Context, lat, lon, radiusKm float64) ([]analytics.SightingRecord, error) {
	bounds, err := analytics.RegionBounds(lat, lon, radiusKm)
	if err != nil {
		return nil, err
	}
	return ds.querySightings(ctx, "list_by_region", func(q *gorm.DB) *gorm.DB {
		return q.Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?",
			bounds.MinLat, bounds.MaxLat, bounds.MinLon, bounds.MaxLon)
	})
}

func (ds *DataStore) querySightings(ctx context.Context, operation string, scope func(*gorm.DB) *gorm.DB) (records []analytics.SightingRecord, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.OpDbQuery, "sightings", start, err) }()

	db, err := ds.db(ctx)
	if err != nil {
		return nil, err
	}

	q := db.Model(&Sighting{}).Preload("Species")
	if scope != nil {
		q = scope(q)
	}

	var rows []Sighting
	if err := q.Order("observed_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, dbError(err, operation, "sightings")
	}

	ds.observeRows(operation, "sightings", len(rows))
	return entitiesToRecords(rows), nil
}

// GetSighting retrieves a sighting by its ID.
func (ds *DataStore) GetSighting(ctx context.Context, id string) (analytics.SightingRecord, error) {
	db, err := ds.db(ctx)
	if err != nil {
		return analytics.SightingRecord{}, err
	}

	var row Sighting
	if err := db.Preload("Species").First(&row, "id = ?", id).Error; err != nil {
		return analytics.SightingRecord{}, dbError(err, "get", "sightings", "sighting_id", id)
	}
	return EntityToRecord(&row), nil
}

// CreateSighting validates and stores a sighting. The record's ID is
// assigned when empty, and its names are filled from the catalog.
func (ds *DataStore) CreateSighting(ctx context.Context, record *analytics.SightingRecord) (err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.OpDbInsert, "sightings", start, err) }()

	if err := validateSighting(record); err != nil {
		return err
	}

	db, err := ds.db(ctx)
	if err != nil {
		return err
	}

	if record.SpeciesRef != "" {
		var species Species
		if err := db.First(&species, "id = ?", record.SpeciesRef).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validationError("unknown species reference", "speciesRef", record.SpeciesRef)
			}
			return dbError(err, "create", "sightings")
		}
		record.CommonName = species.CommonName
		record.ScientificName = species.ScientificName
	} else if record.Identified() {
		species, err := speciesByName(db, record.CommonName, record.ScientificName)
		if err != nil {
			return dbError(err, "create", "sightings")
		}
		if species != nil {
			record.SpeciesRef = species.ID
			record.CommonName = species.CommonName
			record.ScientificName = species.ScientificName
		}
	}

	row := RecordToEntity(record)
	if err := db.Omit("Species").Create(row).Error; err != nil {
		return dbError(err, "create", "sightings")
	}

	record.ID = row.ID
	record.ObservedAt = row.ObservedAt
	ds.log.Debug("sighting created",
		logger.String("sighting_id", row.ID),
		logger.String("species_ref", record.SpeciesRef),
		logger.Time("observed_at", row.ObservedAt))
	return nil
}

// speciesByName finds the catalog entry matching a free-text identification,
// common name first. It returns nil when neither name is catalogued.
func speciesByName(db *gorm.DB, commonName, scientificName string) (*Species, error) {
	lookups := []struct{ column, name string }{
		{"common_name", commonName},
		{"scientific_name", scientificName},
	}
	for _, l := range lookups {
		key := strings.ToLower(strings.TrimSpace(l.name))
		if key == "" {
			continue
		}
		var species Species
		err := db.Where("LOWER("+l.column+") = ?", key).First(&species).Error
		switch {
		case err == nil:
			return &species, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return nil, nil
}

func validateSighting(r *analytics.SightingRecord) error {
	if r.ObservedAt.IsZero() {
		return validationError("observation time is required", "observedAt", r.ObservedAt)
	}
	if r.Individuals < 0 {
		return validationError("individuals must not be negative", "individuals", r.Individuals)
	}
	if r.Location == nil {
		return nil
	}
	lat, lon := r.Location.Latitude, r.Location.Longitude
	if (lat == nil) != (lon == nil) {
		return validationError("latitude and longitude must be given together", "location", r.Location)
	}
	if lat != nil && analytics.ValidateCoordinates(*lat, *lon) != nil {
		return validationError("coordinates out of range", "location", r.Location)
	}
	return nil
}

// VerifySighting sets the moderation flag on a sighting.
func (ds *DataStore) VerifySighting(ctx context.Context, id string, verified bool) (analytics.SightingRecord, error) {
	start := time.Now()
	db, err := ds.db(ctx)
	if err != nil {
		return analytics.SightingRecord{}, err
	}

	res := db.Model(&Sighting{}).Where("id = ?", id).Update("verified", verified)
	ds.observe(metrics.OpDbUpdate, "sightings", start, res.Error)
	if res.Error != nil {
		return analytics.SightingRecord{}, dbError(res.Error, "verify", "sightings", "sighting_id", id)
	}
	// RowsAffected is not checked: MySQL reports 0 when the flag already
	// had the requested value. The read below reports missing sightings.
	return ds.GetSighting(ctx, id)
}

// ListSpecies returns the catalog ordered by common name.
func (ds *DataStore) ListSpecies(ctx context.Context) ([]analytics.Species, error) {
	db, err := ds.db(ctx)
	if err != nil {
		return nil, err
	}

	var rows []Species
	if err := db.Order("common_name ASC").Find(&rows).Error; err != nil {
		return nil, dbError(err, "list", "species")
	}
	return entitiesToSpecies(rows), nil
}

// GetSpecies retrieves a species by its ID.
func (ds *DataStore) GetSpecies(ctx context.Context, id string) (analytics.Species, error) {
	db, err := ds.db(ctx)
	if err != nil {
		return analytics.Species{}, err
	}

	var row Species
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		return analytics.Species{}, dbError(err, "get", "species", "species_id", id)
	}
	return EntityToSpecies(&row), nil
}

// CreateSpecies adds a species to the catalog. Common names are unique
// regardless of case.
func (ds *DataStore) CreateSpecies(ctx context.Context, species *analytics.Species) (err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.OpDbInsert, "species", start, err) }()

	species.CommonName = strings.TrimSpace(species.CommonName)
	if species.CommonName == "" {
		return validationError("common name is required", "commonName", species.CommonName)
	}
	if species.PresenceStatus != "" && !species.PresenceStatus.Valid() {
		return validationError("presence status must be Resident, Migratory or Rare", "presenceStatus", species.PresenceStatus)
	}

	db, err := ds.db(ctx)
	if err != nil {
		return err
	}

	var existing int64
	if err := db.Model(&Species{}).Where("LOWER(common_name) = ?", strings.ToLower(species.CommonName)).Count(&existing).Error; err != nil {
		return dbError(err, "create", "species")
	}
	if existing > 0 {
		return conflictError("species already exists", "commonName", species.CommonName)
	}

	row := SpeciesToEntity(species)
	if err := db.Create(row).Error; err != nil {
		return dbError(err, "create", "species")
	}
	species.ID = row.ID
	return nil
}

// SearchSpecies returns species whose common or scientific name contains
// query, ignoring case.
func (ds *DataStore) SearchSpecies(ctx context.Context, query string, limit int) (result []analytics.Species, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.OpSearch, "species", start, err) }()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validationError("search query is required", "q", query)
	}
	if limit <= 0 {
		limit = 20
	}

	db, err := ds.db(ctx)
	if err != nil {
		return nil, err
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var rows []Species
	if err := db.
		Where("LOWER(common_name) LIKE ? ESCAPE '!' OR LOWER(scientific_name) LIKE ? ESCAPE '!'", pattern, pattern).
		Order("common_name ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, dbError(err, "search", "species", "query", query)
	}

	ds.observeRows(metrics.OpSearch, "species", len(rows))
	return entitiesToSpecies(rows), nil
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// ListHotspots returns all hotspots ordered by name.
func (ds *DataStore) ListHotspots(ctx context.Context) ([]Hotspot, error) {
	db, err := ds.db(ctx)
	if err != nil {
		return nil, err
	}

	hotspots := []Hotspot{}
	if err := db.Order("name ASC").Find(&hotspots).Error; err != nil {
		return nil, dbError(err, "list", "hotspots")
	}
	return hotspots, nil
}

// HotspotsNearby returns hotspots inside the same bounding box used for
// region sighting queries.
func (ds *DataStore) HotspotsNearby(ctx context.Context, lat, lon, radiusKm float64) ([]Hotspot, error) {
	bounds, err := analytics.RegionBounds(lat, lon, radiusKm)
	if err != nil {
		return nil, err
	}

	db, err := ds.db(ctx)
	if err != nil {
		return nil, err
	}

	hotspots := []Hotspot{}
	if err := db.
		Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?",
			bounds.MinLat, bounds.MaxLat, bounds.MinLon, bounds.MaxLon).
		Order("name ASC").
		Find(&hotspots).Error; err != nil {
		return nil, dbError(err, "nearby", "hotspots")
	}
	return hotspots, nil
}

// CreateHotspot stores a hotspot. A hotspot whose eBird ID is already
// stored updates that row instead.
func (ds *DataStore) CreateHotspot(ctx context.Context, hotspot *Hotspot) error {
	hotspot.Name = strings.TrimSpace(hotspot.Name)
	if hotspot.Name == "" {
		return validationError("hotspot name is required", "name", hotspot.Name)
	}
	if err := analytics.ValidateCoordinates(hotspot.Latitude, hotspot.Longitude); err != nil {
		return err
	}

	db, err := ds.db(ctx)
	if err != nil {
		return err
	}

	if hotspot.EBirdID != "" {
		var existing Hotspot
		err := db.First(&existing, "ebird_id = ?", hotspot.EBirdID).Error
		switch {
		case err == nil:
			hotspot.ID = existing.ID
			hotspot.CreatedAt = existing.CreatedAt
			if err := db.Save(hotspot).Error; err != nil {
				return dbError(err, "update", "hotspots", "ebird_id", hotspot.EBirdID)
			}
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return dbError(err, "create", "hotspots")
		}
	}

	if err := db.Create(hotspot).Error; err != nil {
		return dbError(err, "create", "hotspots")
	}
	return nil
}

// errorType returns the error category as a metrics label
func errorType(err error) string {
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) {
		return enhanced.GetCategory()
	}
	return "unknown"
}

// performAutoMigration creates or updates the schema
func performAutoMigration(db *gorm.DB, log logger.Logger, dbType string) error {
	start := time.Now()
	if err := db.AutoMigrate(&Species{}, &Sighting{}, &Hotspot{}); err != nil {
		return dbError(err, "auto_migrate", "schema", "db_type", dbType)
	}

	log.Debug("database schema migrated",
		logger.String("db_type", dbType),
		logger.Duration("duration", time.Since(start)))
	return nil
}
