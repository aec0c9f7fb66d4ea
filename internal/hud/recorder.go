// File: internal/hud/recorder.go
package hud

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sablewood/arbor/internal/config"
	"github.com/sablewood/arbor/internal/motor"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Recorder appends one JSON line per tap event to a rotating file. It
// implements motor.TapSink without ever blocking the publisher: events go
// through a bounded queue drained by a single goroutine, and when the queue
// is full the event is dropped and counted instead of stalling the input
// worker on disk I/O.
type Recorder struct {
	log     *zap.Logger
	queue   chan motor.TapEvent
	out     io.WriteCloser
	w       *bufio.Writer
	dropLog *rate.Limiter

	mu      sync.Mutex
	dropped uint64
	closed  bool
	done    chan struct{}
}

// NewRecorder opens (or creates) the JSONL file at cfg.Path and starts the
// drain goroutine.
func NewRecorder(cfg config.RecorderConfig, log *zap.Logger) *Recorder {
	out := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	return newRecorder(out, cfg.QueueSize, log)
}

// newRecorder is the injectable core used by tests with an in-memory writer.
func newRecorder(out io.WriteCloser, queueSize int, log *zap.Logger) *Recorder {
	if queueSize < 1 {
		queueSize = 1
	}
	r := &Recorder{
		log:   log.Named("recorder"),
		queue: make(chan motor.TapEvent, queueSize),
		out:   out,
		w:     bufio.NewWriter(out),
		// One drop warning per 5 seconds at most.
		dropLog: rate.NewLimiter(rate.Every(5*time.Second), 1),
		done:    make(chan struct{}),
	}
	go r.drain()
	return r
}

// OnTap implements motor.TapSink. Never blocks.
func (r *Recorder) OnTap(ev motor.TapEvent) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	select {
	case r.queue <- ev:
	default:
		r.mu.Lock()
		r.dropped++
		dropped := r.dropped
		r.mu.Unlock()
		if r.dropLog.Allow() {
			r.log.Warn("tap record dropped, queue full",
				zap.Uint64("total_dropped", dropped))
		}
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (r *Recorder) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Close stops accepting events, flushes everything already queued, and
// closes the underlying file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.queue)
	<-r.done

	var errs []error
	if err := r.w.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := r.out.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close recorder: %v", errs)
	}
	return nil
}

func (r *Recorder) drain() {
	defer close(r.done)
	for ev := range r.queue {
		line, err := json.Marshal(ev)
		if err != nil {
			r.log.Warn("failed to encode tap record", zap.Error(err))
			continue
		}
		if _, err := r.w.Write(line); err != nil {
			r.log.Warn("failed to write tap record", zap.Error(err))
			continue
		}
		if err := r.w.WriteByte('\n'); err != nil {
			r.log.Warn("failed to write tap record", zap.Error(err))
			continue
		}
		// Keep the tail of the file current for external readers without
		// paying a syscall per field.
		if len(r.queue) == 0 {
			if err := r.w.Flush(); err != nil {
				r.log.Warn("failed to flush tap records", zap.Error(err))
			}
		}
	}
}

// ReadRecords decodes a JSONL tap stream, skipping malformed lines. Used by
// the heatmap renderer and available to external tooling.
func ReadRecords(src io.Reader) ([]motor.TapEvent, error) {
	var out []motor.TapEvent
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev motor.TapEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("scan tap records: %w", err)
	}
	return out, nil
}
