package policy

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Loader builds a Set from the policy file at path.
type Loader func(ctx context.Context, path string) (*Set, error)

// Standing holds the policy loaded from a configured path, used when a request
// brings no policy of its own. Reload swaps in a fresh Set; requests holding the
// previous one keep it until they Close it.
type Standing struct {
	path   string
	load   Loader
	logger *zap.Logger

	mu  sync.Mutex
	set *Set
}

// NewStanding returns a Standing for path. Nothing is loaded until Reload.
func NewStanding(path string, load Loader, logger *zap.Logger) *Standing {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Standing{path: path, load: load, logger: logger}
}

// Path returns the watched policy path.
func (st *Standing) Path() string { return st.path }

// Reload loads the policy file and replaces the current Set. On failure the
// previous Set stays in place.
func (st *Standing) Reload(ctx context.Context) error {
	set, err := st.load(ctx, st.path)
	if err != nil {
		st.logger.Warn("standing policy reload failed", zap.String("path", st.path), zap.Error(err))
		return fmt.Errorf("load standing policy %s: %w", st.path, err)
	}
	st.mu.Lock()
	old := st.set
	st.set = set
	st.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	st.logger.Info("standing policy loaded", zap.String("path", st.path), zap.Int("chunks", set.Len()))
	return nil
}

// Acquire returns the current Set with an added reference, or nil when none is
// loaded. The caller must Close the returned Set.
func (st *Standing) Acquire() *Set {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.set == nil {
		return nil
	}
	return st.set.Retain()
}

// Loaded reports whether a standing policy is available.
func (st *Standing) Loaded() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.set != nil
}

// Close releases the standing reference.
func (st *Standing) Close() error {
	st.mu.Lock()
	set := st.set
	st.set = nil
	st.mu.Unlock()
	if set == nil {
		return nil
	}
	return set.Close()
}
