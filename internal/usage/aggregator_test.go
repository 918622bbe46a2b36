package usage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/internal/usage"
	"github.com/Meeting-BaaS/emails/pkg/logger"
)

// Runs against DATABASE_URL with session-local temp tables that shadow the
// bots tables, so no real data is read or written.
func TestAggregator_Stats(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	_, err = conn.Exec(ctx, `
		CREATE TEMP TABLE bots (
			id bigserial PRIMARY KEY,
			account_id bigint NOT NULL,
			created_at timestamp NOT NULL,
			ended_at timestamp,
			meeting_url text,
			errors text
		);
		CREATE TEMP TABLE bot_consumption (
			bot_id bigint NOT NULL,
			recording_tokens numeric NOT NULL DEFAULT 0,
			transcription_tokens numeric NOT NULL DEFAULT 0,
			transcription_byok_tokens numeric NOT NULL DEFAULT 0,
			streaming_output_tokens numeric NOT NULL DEFAULT 0,
			streaming_input_tokens numeric NOT NULL DEFAULT 0
		)`)
	require.NoError(t, err)

	w := usage.Window{Start: date(2025, 3, 1), End: date(2025, 3, 2)}
	end := w.Start.Add(12 * time.Hour)
	insert := func(seconds int, errs any) {
		_, err := conn.Exec(ctx,
			`WITH b AS (
			     INSERT INTO bots (account_id, created_at, ended_at, meeting_url, errors)
			     VALUES (42, $1, $2, 'https://zoom.us/j/1', $3) RETURNING id)
			 INSERT INTO bot_consumption (bot_id, recording_tokens) SELECT id, 1 FROM b`,
			end.Add(-time.Duration(seconds)*time.Second), end, errs)
		require.NoError(t, err)
	}
	insert(600, nil)
	insert(15000, "BotNotAccepted")
	insert(0, nil)
	insert(20000, nil)
	insert(900, "Internal error")

	stats, err := usage.NewAggregator(conn, logger.Discard()).Stats(ctx, w, []int64{42})
	require.NoError(t, err)
	require.Contains(t, stats, int64(42))
	s := stats[42]
	require.Equal(t, 2, s.TotalBots)
	require.InDelta(t, 2, s.Tokens.Recording, 1e-9)
	require.InDelta(t, 0.5, s.ErrorRate, 1e-9)
}
