package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/canvaspress/canvaspress/internal/config"
	"github.com/canvaspress/canvaspress/internal/pipeline"
)

func designFixture(id string) []byte {
	return []byte(fmt.Sprintf(`[{"id": %q, "type": "text", "content": "Hi {{name}}",
		"position": {"x": 0, "y": 0}, "size": {"width": 100, "height": 20}}]`, id))
}

func newTestPool(t *testing.T, concurrency int, limiter *rate.Limiter) *Pool {
	t.Helper()
	p := pipeline.New(config.NewDefaultConfig(), nil, nil, zap.NewNop())
	return NewPool(p, concurrency, limiter, zap.NewNop())
}

func TestRunPreservesJobOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool := newTestPool(t, 4, nil)

	jobs := make([]Job, 8)
	for i := range jobs {
		src := fmt.Sprintf("design-%d.json", i)
		jobs[i] = Job{Source: src, Request: pipeline.ConvertRequest{Design: designFixture(src)}}
	}

	outcomes := pool.Run(context.Background(), jobs)
	require.Len(t, outcomes, len(jobs))
	for i, out := range outcomes {
		assert.Equal(t, jobs[i].Source, out.Source)
		require.NoError(t, out.Err)
		require.NotNil(t, out.Result)
	}
}

func TestRunFailedJobDoesNotStopSiblings(t *testing.T) {
	pool := newTestPool(t, 2, nil)

	outcomes := pool.Run(context.Background(), []Job{
		{Source: "good", Request: pipeline.ConvertRequest{Design: designFixture("a")}},
		{Source: "bad", Request: pipeline.ConvertRequest{Design: []byte("not json")}},
		{Source: "also-good", Request: pipeline.ConvertRequest{Design: designFixture("b")}},
	})

	require.Len(t, outcomes, 3)
	assert.NoError(t, outcomes[0].Err)
	assert.Error(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err)
}

func TestRunHonorsCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	// A throttled limiter guarantees later jobs are still waiting when the
	// context is cancelled.
	pool := newTestPool(t, 1, rate.NewLimiter(rate.Every(time.Hour), 1))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	outcomes := pool.Run(ctx, []Job{
		{Source: "first", Request: pipeline.ConvertRequest{Design: designFixture("a")}},
		{Source: "second", Request: pipeline.ConvertRequest{Design: designFixture("b")}},
	})

	require.Len(t, outcomes, 2)
	assert.Error(t, outcomes[1].Err, "job admitted after cancellation must carry the context error")
}

func TestNewPoolClampsConcurrency(t *testing.T) {
	pool := newTestPool(t, 0, nil)
	outcomes := pool.Run(context.Background(), []Job{
		{Source: "only", Request: pipeline.ConvertRequest{Design: designFixture("x")}},
	})
	require.Len(t, outcomes, 1)
	assert.NoError(t, outcomes[0].Err)
}
