package job

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type optionsTestTask struct{}

func (t *optionsTestTask) Name() string { return "options_test" }

func (t *optionsTestTask) Handle(ctx context.Context, p testPayload) error {
	return nil
}

func TestWithTask(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	WithTask[testPayload](&optionsTestTask{})(cfg)

	executor, ok := cfg.registry.get("options_test")
	assert.True(t, ok)
	assert.NotNil(t, executor)
}

func TestWithSchedule(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	WithSchedule("options_test", "0 7 * * *", testPayload{Frequency: "Daily"})(cfg)
	WithSchedule("options_test", "0 7 * * 1", testPayload{Frequency: "Weekly"})(cfg)

	require.Len(t, cfg.schedules, 2)
	assert.Equal(t, "0 7 * * 1", cfg.schedules[1].expr)
	assert.Equal(t, testPayload{Frequency: "Weekly"}, cfg.schedules[1].payload)
}

func TestScalarOptions(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	WithMaxWorkers(0)(cfg)
	WithMaxAttempts(-1)(cfg)
	WithLogger(nil)(cfg)
	assert.Zero(t, cfg.maxWorkers)
	assert.Zero(t, cfg.maxAttempts)
	assert.Nil(t, cfg.logger)

	WithMaxWorkers(4)(cfg)
	WithMaxAttempts(3)(cfg)
	WithLogger(slog.Default())(cfg)
	assert.Equal(t, 4, cfg.maxWorkers)
	assert.Equal(t, 3, cfg.maxAttempts)
	assert.NotNil(t, cfg.logger)
}

func TestWithJobTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configured time.Duration
		want       time.Duration
	}{
		{name: "unset runs without limit", configured: 0, want: -1},
		{name: "negative runs without limit", configured: -time.Second, want: -1},
		{name: "explicit limit is kept", configured: 2 * time.Hour, want: 2 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := newConfig()
			WithJobTimeout(tt.configured)(cfg)
			assert.Equal(t, tt.want, riverJobTimeout(cfg.timeout))
		})
	}

	t.Run("default config has no limit", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, time.Duration(-1), riverJobTimeout(newConfig().timeout))
	})
}
