package eventlog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/explorer/internal/core"
)

func TestIPAddr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"10.0.0.1", "10.0.0.1"},
		{"10.0.0.1:5050", "10.0.0.1"},
		{"[::1]:80", "::1"},
		{"not-an-ip", ""},
	}
	for _, tt := range tests {
		got := ipAddr(tt.in)
		if tt.want == "" {
			assert.Nil(t, got, "ipAddr(%q)", tt.in)
			continue
		}
		if assert.NotNil(t, got, "ipAddr(%q)", tt.in) {
			assert.Equal(t, tt.want, got.String())
		}
	}
}

func TestPgText(t *testing.T) {
	assert.False(t, pgText("  ").Valid)
	assert.Equal(t, "x", pgText(" x ").String)
}

// TestPgRecorder runs against a live database when EXPLORER_TEST_DATABASE_URL is set.
func TestPgRecorder(t *testing.T) {
	url := os.Getenv("EXPLORER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("EXPLORER_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	r := NewPgRecorder(pool)
	require.NoError(t, r.EnsureSchema(ctx))

	e := core.Event{
		ID:        uuid.New().String(),
		Action:    core.ActionLoad,
		Level:     core.LevelInfo,
		Message:   "File loaded successfully",
		DatasetID: "abc",
		Rows:      4,
		IPAddress: "127.0.0.1:9999",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, r.Record(ctx, e))

	recent, err := r.Recent(ctx, 50)
	require.NoError(t, err)
	var found bool
	for _, got := range recent {
		if got.ID == e.ID {
			found = true
			assert.Equal(t, "127.0.0.1", got.IPAddress)
			assert.Equal(t, 4, got.Rows)
		}
	}
	assert.True(t, found, "recorded event not returned by Recent")

	_, err = r.Purge(ctx, 1)
	assert.NoError(t, err)
}
