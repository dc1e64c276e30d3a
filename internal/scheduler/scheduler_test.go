package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "missing trigger", cfg: Config{Spec: "@hourly"}, wantErr: true},
		{name: "bad spec", cfg: Config{Spec: "every tuesday", Trigger: func(context.Context) error { return nil }}, wantErr: true},
		{name: "default spec", cfg: Config{Trigger: func(context.Context) error { return nil }}},
		{name: "five field spec", cfg: Config{Spec: "0 */6 * * *", Trigger: func(context.Context) error { return nil }}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, s.spec)
		})
	}
}

func TestScheduler_RunOnStart(t *testing.T) {
	var calls atomic.Int32
	s, err := New(Config{
		Spec:       "@every 1h",
		RunOnStart: true,
		Trigger: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_FailingTriggerKeepsTicking(t *testing.T) {
	var calls atomic.Int32
	s, err := New(Config{
		Spec: "@every 1s",
		Trigger: func(context.Context) error {
			calls.Add(1)
			return errors.New("broker unavailable")
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 4*time.Second, 20*time.Millisecond)
}
