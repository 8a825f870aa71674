//go:build integration

package datastore

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/vedanthangal/sanctuary/internal/analytics"
	"github.com/vedanthangal/sanctuary/internal/conf"
)

// TestMySQLStore runs the store against a real MySQL server.
// Run with: go test -tags integration ./internal/datastore/...
func TestMySQLStore(t *testing.T) {
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("sanctuary"),
		tcmysql.WithUsername("sanctuary"),
		tcmysql.WithPassword("sanctuary"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	settings := &conf.Settings{}
	settings.Database.Type = conf.DatabaseMySQL
	settings.Database.MySQL.Host = host
	settings.Database.MySQL.Port = portNum
	settings.Database.MySQL.Username = "sanctuary"
	settings.Database.MySQL.Password = "sanctuary"
	settings.Database.MySQL.Database = "sanctuary"

	ds := createDatabase(t, settings)
	_, ok := ds.(*MySQLStore)
	require.True(t, ok)

	pelican := analytics.Species{CommonName: "Spot-billed Pelican", PresenceStatus: analytics.StatusRare}
	require.NoError(t, ds.CreateSpecies(ctx, &pelican))

	record := analytics.SightingRecord{
		UserID:     "user-1",
		SpeciesRef: pelican.ID,
		ObservedAt: time.Date(2025, time.March, 15, 6, 30, 0, 0, time.UTC),
		Location:   &analytics.Location{Latitude: floatPtr(12.5195), Longitude: floatPtr(79.882)},
	}
	require.NoError(t, ds.CreateSighting(ctx, &record))

	near, err := ds.ListSightingsByRegion(ctx, 12.5455, 79.8561, 10)
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.True(t, near[0].ObservedAt.Equal(record.ObservedAt))
	assert.Equal(t, "Spot-billed Pelican", near[0].CommonName)

	// Verifying twice keeps the flag and still finds the row
	_, err = ds.VerifySighting(ctx, record.ID, true)
	require.NoError(t, err)
	again, err := ds.VerifySighting(ctx, record.ID, true)
	require.NoError(t, err)
	assert.True(t, again.Verified)

	found, err := ds.SearchSpecies(ctx, "pelican", 5)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
