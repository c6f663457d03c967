package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregator_AllHealthy(t *testing.T) {
	a := NewAggregator(time.Second)
	a.Register(
		NewCheckerFunc("redis", func(context.Context) error { return nil }),
		NewCheckerFunc("database", func(context.Context) error { return nil }),
	)
	a.SetMetadata("version", "test")

	resp := a.Check(context.Background())
	assert.True(t, resp.IsHealthy())
	assert.Len(t, resp.Checks, 2)
	assert.Equal(t, "test", resp.Metadata["version"])
}

func TestAggregator_OneUnhealthy(t *testing.T) {
	a := NewAggregator(time.Second)
	a.Register(
		NewCheckerFunc("redis", func(context.Context) error { return errors.New("connection refused") }),
		NewCheckerFunc("database", func(context.Context) error { return nil }),
	)

	resp := a.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Equal(t, StatusUnhealthy, resp.Checks["redis"].Status)
	assert.Equal(t, "connection refused", resp.Checks["redis"].Error)
	assert.Equal(t, StatusHealthy, resp.Checks["database"].Status)
}

func TestAggregator_Timeout(t *testing.T) {
	a := NewAggregator(50 * time.Millisecond)
	block := make(chan struct{})
	defer close(block)
	a.Register(NewCheckerFunc("stuck", func(context.Context) error {
		<-block
		return nil
	}))

	start := time.Now()
	resp := a.Check(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["stuck"].Error)
}

func TestAggregator_Empty(t *testing.T) {
	assert.Equal(t, StatusHealthy, NewAggregator(0).Check(context.Background()).Status)
}
