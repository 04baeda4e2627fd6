package gridci

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticSource(t *testing.T) {
	src := StaticSource{}
	ctx := context.Background()

	assert.InDelta(t, 535, src.IntensityGPerKWh(ctx, "Northern"), 1e-12)
	assert.InDelta(t, 813, src.IntensityGPerKWh(ctx, "Eastern"), 1e-12)
	assert.InDelta(t, DefaultIntensity, src.IntensityGPerKWh(ctx, "Atlantis"), 1e-12)
}

func TestLiveClient_HybridBlend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "IN-NO", r.URL.Query().Get("zone"))
		assert.Equal(t, "test-token", r.Header.Get("auth-token"))
		fmt.Fprint(w, `{"carbonIntensity": 500}`)
	}))
	defer server.Close()

	history := NewHistory(zerolog.Nop())
	client := NewLiveClient(server.URL, "test-token", history, zerolog.Nop())

	got := client.IntensityGPerKWh(context.Background(), "Northern")

	// 0.7 * live(500) + 0.3 * last historical sample (535).
	assert.InDelta(t, 0.7*500+0.3*535, got, 1e-9)
}

func TestLiveClient_CachesWithinTTL(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"carbonIntensity": 480}`)
	}))
	defer server.Close()

	now := time.Now()
	clock := func() time.Time { return now }

	client := NewLiveClient(server.URL, "", NewHistory(zerolog.Nop()), zerolog.Nop(),
		WithCacheTTL(5*time.Minute), withNow(clock))

	ctx := context.Background()
	client.IntensityGPerKWh(ctx, "Western")
	client.IntensityGPerKWh(ctx, "Western")
	assert.Equal(t, int64(1), calls.Load(), "second lookup must hit the cache")

	now = now.Add(6 * time.Minute)
	client.IntensityGPerKWh(ctx, "Western")
	assert.Equal(t, int64(2), calls.Load(), "expired cache must refetch")
}

func TestLiveClient_FallsBackToStaticTable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `not json`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewLiveClient(server.URL, "", NewHistory(zerolog.Nop()), zerolog.Nop())
			got := client.IntensityGPerKWh(context.Background(), "Southern")

			// Static fallback 607 blended with the historical tail 607.
			assert.InDelta(t, 607, got, 1e-9)
		})
	}
}

func TestLiveClient_UnknownRegionUsesDefault(t *testing.T) {
	client := NewLiveClient("http://127.0.0.1:0", "", NewHistory(zerolog.Nop()), zerolog.Nop())
	got := client.IntensityGPerKWh(context.Background(), "Atlantis")

	// No zone mapping and no history: default intensity on both sides of
	// the blend.
	assert.InDelta(t, DefaultIntensity, got, 1e-9)
}

func TestHistory_Latest(t *testing.T) {
	history := NewHistory(zerolog.Nop())

	got, ok := history.Latest("Northern")
	require.True(t, ok)
	assert.InDelta(t, 535, got, 1e-12)

	_, ok = history.Latest("Atlantis")
	assert.False(t, ok)
}
