package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed buffer is opened.
var ErrDestroyed = errors.New("secure buffer has been destroyed")

// SecureBuffer holds a secret in an encrypted memguard enclave.
type SecureBuffer struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	size      int
	destroyed bool
}

// NewSecureBuffer moves data into an enclave. data is wiped.
func NewSecureBuffer(data []byte) (*SecureBuffer, error) {
	size := len(data)
	// memguard returns a nil enclave for empty input.
	enclave := memguard.NewEnclave(data)
	return &SecureBuffer{enclave: enclave, size: size}, nil
}

// NewSecureString copies s into an enclave.
func NewSecureString(s string) *SecureBuffer {
	buf, _ := NewSecureBuffer([]byte(s))
	return buf
}

// Len is the size of the plaintext.
func (s *SecureBuffer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Open decrypts the secret into a locked buffer. The caller must Destroy
// the returned buffer.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, ErrDestroyed
	}
	if s.enclave == nil {
		return memguard.NewBuffer(0), nil
	}
	return s.enclave.Open()
}

// Use calls fn with the plaintext. The slice is wiped once fn returns and
// must not be retained.
func (s *SecureBuffer) Use(fn func(plain []byte) error) error {
	locked, err := s.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()
	return fn(locked.Bytes())
}

// Destroy drops the enclave. It is idempotent.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enclave = nil
	s.size = 0
	s.destroyed = true
}

// Purge wipes every memguard buffer in the process.
func Purge() {
	memguard.Purge()
}
