package notify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Hook reacts to a committed write. Its outcome never alters the write's result.
type Hook[T any] struct {
	Name string
	Fn   func(ctx context.Context, value T) error
}

// HookList is an ordered set of post-commit hooks for one kind of write.
type HookList[T any] struct {
	mu    sync.RWMutex
	hooks []Hook[T]
}

// Add appends fn under name. Hooks run in registration order.
func (l *HookList[T]) Add(name string, fn func(ctx context.Context, value T) error) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, Hook[T]{Name: name, Fn: fn})
}

// Len reports the number of registered hooks.
func (l *HookList[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.hooks)
}

// Run executes every hook in registration order. Failures and panics are logged
// and the remaining hooks still run. It returns the number of hooks that failed.
func (l *HookList[T]) Run(ctx context.Context, logger *zap.Logger, operation string, value T) int {
	if logger == nil {
		logger = zap.NewNop()
	}
	l.mu.RLock()
	hooks := make([]Hook[T], len(l.hooks))
	copy(hooks, l.hooks)
	l.mu.RUnlock()

	failures := 0
	for _, hook := range hooks {
		if err := runHook(ctx, hook, value); err != nil {
			failures++
			logger.Warn("post-commit hook failed",
				zap.String("operation", operation),
				zap.String("hook", hook.Name),
				zap.Error(err))
		}
	}
	return failures
}

func runHook[T any](ctx context.Context, hook Hook[T], value T) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("hook panic: %v", recovered)
		}
	}()
	return hook.Fn(ctx, value)
}
