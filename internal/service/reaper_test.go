package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrCreosote/user-and-job-state/config"
	"github.com/MrCreosote/user-and-job-state/internal/core"
	"github.com/MrCreosote/user-and-job-state/internal/mocks"
)

func testReaperConfig() config.ReaperConfig {
	return config.ReaperConfig{
		Interval:  time.Hour,
		JobMaxAge: 4320 * time.Hour,
		BatchSize: 100,
	}
}

func TestNewReaperService(t *testing.T) {
	t.Run("creates service with valid options", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, err := NewReaperService(ReaperServiceOptions{
			Repo:   mocks.NewMockReaperRepository(ctrl),
			Config: testReaperConfig(),
			Logger: slog.Default(),
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("returns error when repo is nil", func(t *testing.T) {
		_, err := NewReaperService(ReaperServiceOptions{Config: testReaperConfig()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ReaperRepository is required")
	})

	t.Run("returns error for non-positive interval", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cfg := testReaperConfig()
		cfg.Interval = 0
		_, err := NewReaperService(ReaperServiceOptions{Repo: mocks.NewMockReaperRepository(ctrl), Config: cfg})
		require.Error(t, err)
	})
}

func TestReaperService_RunOnce(t *testing.T) {
	expected := core.DeleteExpiredJobsParams{MaxAge: 4320 * time.Hour, BatchSize: 100}

	t.Run("drains full batches until a short one", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockReaperRepository(ctrl)
		gomock.InOrder(
			repo.EXPECT().DeleteExpiredJobs(gomock.Any(), expected).Return(int64(100), nil),
			repo.EXPECT().DeleteExpiredJobs(gomock.Any(), expected).Return(int64(100), nil),
			repo.EXPECT().DeleteExpiredJobs(gomock.Any(), expected).Return(int64(7), nil),
		)

		svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig()})
		require.NoError(t, err)

		n, err := svc.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(207), n)
	})

	t.Run("passes include unfinished through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockReaperRepository(ctrl)
		cfg := testReaperConfig()
		cfg.IncludeUnfinished = true
		want := expected
		want.IncludeUnfinished = true
		repo.EXPECT().DeleteExpiredJobs(gomock.Any(), want).Return(int64(0), nil)

		svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})
		require.NoError(t, err)
		n, err := svc.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("returns partial count on error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockReaperRepository(ctrl)
		boom := errors.New("db down")
		gomock.InOrder(
			repo.EXPECT().DeleteExpiredJobs(gomock.Any(), expected).Return(int64(100), nil),
			repo.EXPECT().DeleteExpiredJobs(gomock.Any(), expected).Return(int64(0), boom),
		)

		svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig()})
		require.NoError(t, err)
		n, err := svc.RunOnce(context.Background())
		require.ErrorIs(t, err, boom)
		assert.Equal(t, int64(100), n)
	})

	t.Run("stops between batches when cancelled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockReaperRepository(ctrl)
		ctx, cancel := context.WithCancel(context.Background())
		repo.EXPECT().DeleteExpiredJobs(gomock.Any(), expected).DoAndReturn(
			func(context.Context, core.DeleteExpiredJobsParams) (int64, error) {
				cancel()
				return 100, nil
			})

		svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig()})
		require.NoError(t, err)
		n, err := svc.RunOnce(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int64(100), n)
	})
}

func TestReaperService_RunStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockReaperRepository(ctrl)
	repo.EXPECT().DeleteExpiredJobs(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()

	cfg := testReaperConfig()
	cfg.Interval = time.Millisecond
	svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})
	require.NoError(t, err)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	time.Sleep(5 * time.Millisecond)
	stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
