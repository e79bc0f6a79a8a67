package graceful_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/common/graceful"
)

func TestDrainWaitsForInFlightRequests(t *testing.T) {
	done := graceful.BeginRequest()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.Error(t, graceful.Drain(ctx))

	done()
	require.NoError(t, graceful.Drain(context.Background()))
}
