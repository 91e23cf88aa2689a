package envsmith

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Reload is the outcome of one pipeline run triggered by a file change.
// Exactly one of Err or Env is meaningful; Config is set when the watcher
// was given a schema and validation succeeded.
type Reload struct {
	Env    *Map
	Config ValidatedConfig
	Err    error
}

// ReloadFunc receives reload outcomes. Invocations are serialized and
// happen at most once per detected change.
type ReloadFunc func(Reload)

// Watcher polls a source file and re-runs the full pipeline when its
// content changes. A failed reload is reported to the callback but never
// discards the last known-good result; the consumer decides whether to
// keep the old configuration.
type Watcher struct {
	path    string
	fn      ReloadFunc
	opts    []Option
	o       *options
	limiter *rate.Limiter

	mu       sync.RWMutex
	lastGood *Map
	lastCfg  ValidatedConfig
	lastMod  time.Time
	lastHash [sha256.Size]byte
	running  bool
	stop     chan struct{}
	done     chan struct{}
}

// Watch creates a watcher for path. The initial pipeline run happens
// synchronously so the caller starts from a known state; a Start/Stop pair
// then controls the polling goroutine.
func Watch(path string, fn ReloadFunc, opts ...Option) (*Watcher, error) {
	if fn == nil {
		return nil, fmt.Errorf("reload callback is required")
	}

	w := &Watcher{
		path: path,
		fn:   fn,
		opts: opts,
		o:    newOptions(opts),
	}
	w.limiter = rate.NewLimiter(rate.Every(w.o.minReload), 1)

	env, cfg, err := w.runPipeline()
	if err != nil {
		return nil, err
	}
	w.lastGood = env
	w.lastCfg = cfg
	if info, err := os.Stat(path); err == nil {
		w.lastMod = info.ModTime()
	}
	if data, err := os.ReadFile(path); err == nil {
		w.lastHash = sha256.Sum256(data)
	}
	return w, nil
}

// Last returns the most recent successfully loaded map.
func (w *Watcher) Last() *Map {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastGood
}

// LastConfig returns the most recent successfully validated configuration,
// or nil when the watcher has no schema.
func (w *Watcher) LastConfig() ValidatedConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastCfg
}

// Start launches the polling goroutine. Starting a running watcher is a
// no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop(w.stop, w.done)
}

// Stop halts polling and waits for the goroutine to exit. No callback runs
// after Stop returns.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stop)
	done := w.done
	w.mu.Unlock()

	<-done
}

func (w *Watcher) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

// poll checks for a content change and, if one happened, re-runs the
// pipeline and delivers the outcome. Running on the single loop goroutine
// is what serializes callback invocations.
func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		// The file may be mid-replace; try again next tick.
		return
	}
	if !info.ModTime().After(w.lastMod) {
		return
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		return
	}
	hash := sha256.Sum256(data)
	if hash == w.lastHash {
		// Touched but unchanged; nothing to reload.
		w.lastMod = info.ModTime()
		return
	}
	if !w.limiter.Allow() {
		// Too soon after the previous reload; retry on a later tick.
		return
	}
	w.lastMod = info.ModTime()
	w.lastHash = hash

	env, cfg, err := w.runPipeline()
	if err != nil {
		w.o.logger.Warn("reload failed", zap.String("path", w.path), zap.Error(err))
		w.fn(Reload{Err: err})
		return
	}

	w.mu.Lock()
	w.lastGood = env
	w.lastCfg = cfg
	w.mu.Unlock()

	w.o.logger.Info("environment reloaded", zap.String("path", w.path), zap.Int("keys", env.Len()))
	w.fn(Reload{Env: env, Config: cfg})
}

func (w *Watcher) runPipeline() (*Map, ValidatedConfig, error) {
	env, err := LoadEnv([]string{w.path}, w.opts...)
	if err != nil {
		return nil, nil, err
	}
	if w.o.schema == nil {
		return env, nil, nil
	}
	cfg, err := ValidateEnv(w.o.schema, env, w.opts...)
	if err != nil {
		return nil, nil, err
	}
	return env, cfg, nil
}
