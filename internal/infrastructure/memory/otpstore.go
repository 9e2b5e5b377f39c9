package memory

import (
	"context"
	"sync"
	"time"

	"github.com/go-otp-auth/internal/otp"
)

type entry struct {
	payload   []byte
	expiresAt time.Time // zero when the entry never expires
}

// OTPStore is a process-local otp.Backend. Concurrent writers to the same
// phone resolve last-writer-wins.
type OTPStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewOTPStore() *OTPStore {
	return &OTPStore{entries: make(map[string]entry), now: time.Now}
}

func key(namespace, phone string) string { return namespace + ":" + phone }

func (s *OTPStore) Put(_ context.Context, namespace, phone string, payload []byte, ttl time.Duration) error {
	e := entry{payload: append([]byte(nil), payload...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key(namespace, phone)] = e
	s.mu.Unlock()
	return nil
}

func (s *OTPStore) Get(_ context.Context, namespace, phone string) ([]byte, error) {
	k := key(namespace, phone)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[k]
	if !ok {
		return nil, otp.ErrAbsent
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, k)
		return nil, otp.ErrAbsent
	}
	return append([]byte(nil), e.payload...), nil
}

func (s *OTPStore) Remove(_ context.Context, namespace, phone string) error {
	s.mu.Lock()
	delete(s.entries, key(namespace, phone))
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (s *OTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
