package agent_test

import (
	"context"
	"testing"
	"time"

	"github.com/aurakai/genesis/internal/agent"
	"github.com/aurakai/genesis/internal/bus"
	genesisTesting "github.com/aurakai/genesis/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestBase_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := agent.NewBase("Tester", agent.Deps{}, "tester", "T")
	assert.Equal(t, "Tester", b.Name())
	assert.Equal(t, []string{"tester", "t"}, b.Aliases())
	assert.Equal(t, "tester", b.CallerID())

	require.ErrorIs(t, b.Start(context.Background()), agent.ErrNotInitialized)

	require.NoError(t, b.Initialize(context.Background()))
	require.ErrorIs(t, b.Initialize(context.Background()), agent.ErrAlreadyInitialized)
	require.NoError(t, b.Start(context.Background()))
	assert.True(t, b.IsRunning())

	workerCtx := b.Context()
	require.NoError(t, b.Shutdown(context.Background()))
	assert.False(t, b.IsRunning())
	assert.ErrorIs(t, workerCtx.Err(), context.Canceled)
}

func TestBase_ContextDerivedFromInitialize(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	b := agent.NewBase("Tester", agent.Deps{})
	require.NoError(t, b.Initialize(parent))

	cancel()
	assert.ErrorIs(t, b.Context().Err(), context.Canceled)
}

func TestBase_GoContainsPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := agent.NewBase("Tester", agent.Deps{})
	require.NoError(t, b.Initialize(context.Background()))

	ran := make(chan struct{})
	b.Go(func(context.Context) { panic("boom") })
	b.Go(func(context.Context) { close(ran) })

	<-ran
	require.NoError(t, b.Shutdown(context.Background()))
}

func TestBase_ShutdownWaitsForWork(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := agent.NewBase("Tester", agent.Deps{})
	require.NoError(t, b.Initialize(context.Background()))

	stopped := make(chan struct{})
	b.Go(func(ctx context.Context) {
		<-ctx.Done()
		close(stopped)
	})

	require.NoError(t, b.Shutdown(context.Background()))
	select {
	case <-stopped:
	default:
		t.Fatal("Shutdown returned before background work finished")
	}
}

func TestBase_ShutdownHonorsDeadline(t *testing.T) {
	b := agent.NewBase("Tester", agent.Deps{})
	require.NoError(t, b.Initialize(context.Background()))

	release := make(chan struct{})
	b.Go(func(context.Context) { <-release })
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Shutdown(ctx), context.DeadlineExceeded)
}

func TestBase_EmitMarksMessage(t *testing.T) {
	rec := genesisTesting.NewRecordingBus()
	defer rec.Close()

	b := agent.NewBase("Tester", agent.Deps{Bus: rec})
	receipt := b.Emit(context.Background(), bus.NewMessage("someone else", "hi", bus.TypeText))
	require.NoError(t, receipt.Wait(context.Background()))

	sent := rec.Broadcasts()
	require.Len(t, sent, 1)
	assert.Equal(t, "Tester", sent[0].From)
	assert.True(t, sent[0].Flag(bus.MetaAutoGenerated))
	assert.True(t, sent[0].Flag("tester_processed"))
}

func TestBase_EmitWithoutBus(t *testing.T) {
	b := agent.NewBase("Tester", agent.Deps{})
	receipt := b.Emit(context.Background(), bus.NewMessage("Tester", "hi", bus.TypeText))
	assert.NoError(t, receipt.Wait(context.Background()))
}

func TestBase_ExecuteWithoutRegistry(t *testing.T) {
	b := agent.NewBase("Tester", agent.Deps{})
	_, err := b.Execute(context.Background(), "anything", nil)
	assert.Error(t, err)
}
