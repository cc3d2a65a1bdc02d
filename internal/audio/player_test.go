package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPlaySupersedesRunningPlayback(t *testing.T) {
	p := newPlayer([]string{"sh", "-c", "sleep 5", "player"}, nil)
	ctx := context.Background()

	first, err := p.Play(ctx, []byte("one"))
	require.NoError(t, err)
	require.True(t, p.Playing())

	second, err := p.Play(ctx, []byte("two"))
	require.NoError(t, err)

	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("first playback still running")
	}
	require.NoError(t, first.Err())

	p.Stop()
	select {
	case <-second.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("second playback still running")
	}
	require.False(t, p.Playing())
}

func TestStopWaitsForStartingPlayback(t *testing.T) {
	p := newPlayer([]string{"sh", "-c", "sleep 5", "player"}, nil)
	p.startMu.Lock()
	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatalf("stop returned while a playback was starting")
	case <-time.After(50 * time.Millisecond):
	}
	p.startMu.Unlock()
	<-stopped

	pb, err := p.Play(context.Background(), []byte("one"))
	require.NoError(t, err)
	p.Stop()
	select {
	case <-pb.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("playback still running after stop")
	}
}

func TestPlayAndWaitReportsPlayerFailure(t *testing.T) {
	p := newPlayer([]string{"sh", "-c", "exit 3", "player"}, nil)
	err := p.PlayAndWait(context.Background(), []byte("x"))
	require.Error(t, err)
}

func TestPlayAndWaitSuccess(t *testing.T) {
	p := newPlayer([]string{"sh", "-c", "test -s \"$0\""}, nil)
	require.NoError(t, p.PlayAndWait(context.Background(), []byte("audio")))
}

func TestNewPlayerUsesConfiguredCommand(t *testing.T) {
	p, err := NewPlayer("mpv --really-quiet", nil)
	require.NoError(t, err)
	require.Equal(t, "mpv --really-quiet", p.Command())
}
