package location

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/location"
	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

var gizaCoord = shared.Coordinate{Latitude: 29.9792, Longitude: 31.1342}

func TestProvider_DeniedPermission(t *testing.T) {
	source := NewSimulatedSource()
	source.SetAuthorization(location.AuthorizationDenied)
	provider := NewProvider(source, nil)

	_, err := provider.RequestPosition(context.Background(), time.Second)
	assert.ErrorIs(t, err, shared.ErrLocationDenied)
}

func TestProvider_FreshCachedFixResolvesImmediately(t *testing.T) {
	source := NewSimulatedSource()
	source.SetFix(gizaCoord, 10)
	provider := NewProvider(source, nil)

	start := time.Now()
	fix, err := provider.RequestPosition(context.Background(), 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, gizaCoord, fix.Coordinate)
	assert.Less(t, time.Since(start), time.Second)
}

func TestProvider_WaitsForNewFix(t *testing.T) {
	source := NewSimulatedSource()
	provider := NewProvider(source, nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		source.SetFix(gizaCoord, 15)
	}()

	fix, err := provider.RequestPosition(context.Background(), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, gizaCoord, fix.Coordinate)
	assert.Equal(t, 15.0, fix.AccuracyMeters)
}

func TestProvider_TimesOutWithoutFix(t *testing.T) {
	source := NewSimulatedSource()
	provider := NewProvider(source, nil)

	_, err := provider.RequestPosition(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, shared.ErrTimeout)
}

func TestProvider_SkipsStaleAndCoarseFixes(t *testing.T) {
	source := NewSimulatedSource()
	provider := NewProvider(source, nil)

	go func() {
		time.Sleep(10 * time.Millisecond)
		// Too old to verify anything.
		source.PushFix(&location.Position{
			Coordinate: gizaCoord,
			Timestamp:  time.Now().Add(-5 * time.Minute),
		})
		time.Sleep(10 * time.Millisecond)
		// Accuracy radius too wide.
		source.SetFix(gizaCoord, 500)
		time.Sleep(10 * time.Millisecond)
		source.SetFix(gizaCoord, 20)
	}()

	fix, err := provider.RequestPosition(context.Background(), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 20.0, fix.AccuracyMeters)
}

func TestProvider_StaleCachedFixIsNotServed(t *testing.T) {
	source := NewSimulatedSource()
	source.PushFix(&location.Position{
		Coordinate: gizaCoord,
		Timestamp:  time.Now().Add(-time.Hour),
	})
	provider := NewProvider(source, nil)

	_, err := provider.RequestPosition(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, shared.ErrTimeout)
}

func TestProvider_RequestsAreIndependent(t *testing.T) {
	source := NewSimulatedSource()
	provider := NewProvider(source, nil)

	// First request expires with no fix.
	_, err := provider.RequestPosition(context.Background(), 30*time.Millisecond)
	require.ErrorIs(t, err, shared.ErrTimeout)

	// A fix arriving afterwards serves the next request, not the expired one.
	source.SetFix(gizaCoord, 10)
	fix, err := provider.RequestPosition(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, gizaCoord, fix.Coordinate)
}
