package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"service-dispatch/internal/logx"
	testlog "service-dispatch/internal/testutil"
)

func loggerContainer(t *testing.T, rec *testlog.Recorder) *dig.Container {
	t.Helper()
	container := dig.New()
	require.NoError(t, container.Provide(func() logx.Logger {
		return rec.Logger()
	}))
	return container
}

func TestGracefulShutdown_DoesNotPanic(t *testing.T) {
	t.Parallel()

	srv := &http.Server{
		Addr:    "127.0.0.1:0",
		Handler: http.NewServeMux(),
	}
	logger := logx.Nop()

	require.NotPanics(t, func() {
		gracefulShutdown(srv, logger, 100*time.Millisecond)
	})
}

func TestMustRun_ShutdownRequested(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	r := &Runner{
		runFn: func(_ *dig.Container) error {
			return context.Canceled
		},
		exit: func(int) { t.Fatal("exit must not be called") },
	}
	r.MustRun(loggerContainer(t, rec))
	require.True(t, rec.Has("shutdown requested, exiting"))
}

func TestRunner_MustRun_StartupTimeout(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	r := &Runner{
		runFn: func(_ *dig.Container) error {
			return context.DeadlineExceeded
		},
		exit: func(int) { t.Fatal("exit must not be called") },
	}

	r.MustRun(loggerContainer(t, rec))
	require.True(t, rec.Has("startup aborted: startup timeout exceeded"))
}

func TestRunner_MustRun_ExitsOnError(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	code := -1
	r := &Runner{
		runFn: func(_ *dig.Container) error {
			return errors.New("boom")
		},
		exit: func(c int) { code = c },
	}

	r.MustRun(loggerContainer(t, rec))
	require.Equal(t, 1, code)
	require.True(t, rec.Has("run error"))
}

func TestNewRunner_DefaultFields(t *testing.T) {
	t.Parallel()

	r := NewRunner()
	require.NotNil(t, r)

	require.NotNil(t, r.runFn)
	require.NotNil(t, r.exit)
	require.Equal(t, fmt.Sprintf("%p", run), fmt.Sprintf("%p", r.runFn))
}

func runContainer(t *testing.T, ctx context.Context, rec *testlog.Recorder, addr string) *dig.Container {
	t.Helper()

	container := loggerContainer(t, rec)
	require.NoError(t, container.Provide(func() context.Context {
		return ctx
	}))
	require.NoError(t, container.Provide(func() *pgxpool.Pool {
		return nil
	}))
	require.NoError(t, container.Provide(func() *http.Server {
		return &http.Server{
			Addr:    addr,
			Handler: http.NewServeMux(),
		}
	}))
	return container
}

func TestRun_InvokesAppRunViaContainer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := testlog.New()
	container := runContainer(t, ctx, rec, "127.0.0.1:0")

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := run(container)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, rec.Has("service-dispatch listening"))
	require.True(t, rec.Has("shutting down service-dispatch"))
}

func TestRun_ListenErrorStopsRun(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	container := runContainer(t, context.Background(), rec, "not-an-address")

	err := run(container)
	require.Error(t, err)
	require.Contains(t, err.Error(), "http server")
	require.True(t, rec.Has("server stopped unexpectedly"))
}

func TestRun_MissingDependency(t *testing.T) {
	t.Parallel()

	err := run(dig.New())
	require.Error(t, err)
}
