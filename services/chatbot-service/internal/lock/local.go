package lock

import (
	"context"
	"sync"

	"github.com/suteetoe/salesbot/services/chatbot-service/internal/onboarding"
)

// LocalLocker holds locks in process memory, for single replica deployments
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

var _ onboarding.Locker = (*LocalLocker)(nil)

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]struct{}{}}
}

// Lock implements onboarding.Locker
func (l *LocalLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, onboarding.ErrLocked
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
