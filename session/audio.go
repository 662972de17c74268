package session

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Player plays one base64-encoded audio clip to completion.
type Player interface {
	Play(ctx context.Context, audioBase64 string) error
}

// PlayerFunc adapts a function to the Player interface.
type PlayerFunc func(ctx context.Context, audioBase64 string) error

func (f PlayerFunc) Play(ctx context.Context, audioBase64 string) error { return f(ctx, audioBase64) }

// AudioQueue plays clips strictly one at a time, in enqueue order. Enqueue
// never blocks turn progression; when the buffer is full the clip is dropped.
// Playback errors are logged and the queue moves on to the next clip.
type AudioQueue struct {
	player Player
	clips  chan string
	logger *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

const audioQueueBuffer = 32

// NewAudioQueue starts the playback goroutine. Close must be called to stop
// it.
func NewAudioQueue(player Player, logger *zap.Logger) *AudioQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &AudioQueue{
		player: player,
		clips:  make(chan string, audioQueueBuffer),
		logger: logger.With(zap.String("component", "audio")),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *AudioQueue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.stop:
			return
		case clip := <-q.clips:
			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				select {
				case <-q.stop:
					cancel()
				case <-ctx.Done():
				}
			}()
			if err := q.player.Play(ctx, clip); err != nil {
				q.logger.Warn("audio playback failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// Enqueue schedules a clip for playback. Empty clips are ignored.
func (q *AudioQueue) Enqueue(audioBase64 string) {
	if audioBase64 == "" {
		return
	}
	select {
	case q.clips <- audioBase64:
	default:
		q.logger.Warn("audio queue full, dropping clip")
	}
}

// Close stops playback after the current clip and discards queued clips.
func (q *AudioQueue) Close() {
	q.stopOnce.Do(func() { close(q.stop) })
	<-q.done
}
