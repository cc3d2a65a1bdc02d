// Package audio plays synthesized speech through an external player command.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// ErrNoPlayer is returned when no player command is configured or found.
var ErrNoPlayer = errors.New("audio: no player command available")

// Candidates are tried in order when no player is configured.
var Candidates = [][]string{
	{"mpv", "--no-video", "--really-quiet"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"afplay"},
	{"mpg123", "-q"},
}

// Playback is one running player process.
type Playback struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Done is closed when the player exits.
func (pb *Playback) Done() <-chan struct{} {
	return pb.done
}

// Err returns the player failure once Done is closed. Stopped playbacks report nil.
func (pb *Playback) Err() error {
	<-pb.done
	return pb.err
}

// Player runs at most one playback at a time; starting a new one stops the previous.
type Player struct {
	args []string
	log  *slog.Logger

	startMu sync.Mutex
	mu      sync.Mutex
	current *Playback
}

// NewPlayer returns a player for the command line cmd, e.g. "mpv --really-quiet".
// The audio file path is appended as the last argument. An empty cmd picks the
// first installed candidate.
func NewPlayer(cmd string, log *slog.Logger) (*Player, error) {
	args := strings.Fields(cmd)
	if len(args) == 0 {
		for _, cand := range Candidates {
			if _, err := exec.LookPath(cand[0]); err == nil {
				args = cand
				break
			}
		}
	}
	if len(args) == 0 {
		return nil, ErrNoPlayer
	}
	return newPlayer(args, log), nil
}

func newPlayer(args []string, log *slog.Logger) *Player {
	if log == nil {
		log = slog.Default()
	}
	return &Player{args: append([]string(nil), args...), log: log}
}

// Command returns the player command line.
func (p *Player) Command() string {
	return strings.Join(p.args, " ")
}

// Play stops any running playback and starts playing audio. It returns once
// the player has started.
func (p *Player) Play(ctx context.Context, audio []byte) (*Playback, error) {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	p.halt()

	f, err := os.CreateTemp("", "sleepsafe-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("audio: create temp file: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(audio); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("audio: write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("audio: close temp file: %w", err)
	}

	playCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(playCtx, p.args[0], append(p.args[1:], path)...)
	if err := cmd.Start(); err != nil {
		cancel()
		_ = os.Remove(path)
		return nil, fmt.Errorf("audio: start %s: %w", p.args[0], err)
	}

	pb := &Playback{cancel: cancel, done: make(chan struct{})}
	p.mu.Lock()
	p.current = pb
	p.mu.Unlock()

	go func() {
		err := cmd.Wait()
		if playCtx.Err() == nil && err != nil {
			pb.err = err
			p.log.Warn("audio playback failed", "player", p.args[0], "err", err)
		}
		cancel()
		_ = os.Remove(path)
		p.mu.Lock()
		if p.current == pb {
			p.current = nil
		}
		p.mu.Unlock()
		close(pb.done)
	}()
	return pb, nil
}

// PlayAndWait plays audio and blocks until playback ends or ctx is done.
func (p *Player) PlayAndWait(ctx context.Context, audio []byte) error {
	pb, err := p.Play(ctx, audio)
	if err != nil {
		return err
	}
	select {
	case <-pb.Done():
		return pb.Err()
	case <-ctx.Done():
		p.Stop()
		return ctx.Err()
	}
}

// Stop halts the running playback, if any, and waits for the player to exit.
// A playback that is still starting is stopped once it has started.
func (p *Player) Stop() {
	p.startMu.Lock()
	defer p.startMu.Unlock()
	p.halt()
}

func (p *Player) halt() {
	p.mu.Lock()
	pb := p.current
	p.current = nil
	p.mu.Unlock()
	if pb == nil {
		return
	}
	pb.cancel()
	<-pb.done
}

// Playing reports whether a playback is running.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}
