package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// envelopePrefix marks an encrypted information value.
const envelopePrefix = "enc:v1:"

// ErrNotEncrypted is returned when a stored information value lacks the
// encryption envelope.
var ErrNotEncrypted = errors.New("information is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot decrypt.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// encryptionMiddleware only overrides the operations that carry information.
type encryptionMiddleware struct {
	ports.Runtime
	keys sealer
}

// NewEncryptionMiddleware encrypts node information at rest using AES-GCM.
// Structure, ids and relations stay readable so the graph remains navigable.
// It panics when a key is not 32 bytes long.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	keys, err := newSealer(config)
	if err != nil {
		panic(fmt.Sprintf("encryption middleware: %v", err))
	}
	return func(next ports.Runtime) ports.Runtime {
		return &encryptionMiddleware{Runtime: next, keys: keys}
	}
}

func (m *encryptionMiddleware) seal(information string) (string, error) {
	if information == "" {
		return "", nil
	}
	ciphertext, err := m.keys.seal([]byte(information))
	if err != nil {
		return "", fmt.Errorf("failed to encrypt information: %w", err)
	}
	return envelopePrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (m *encryptionMiddleware) open(stored string) (string, error) {
	if stored == "" {
		return "", nil
	}
	encoded, ok := strings.CutPrefix(stored, envelopePrefix)
	if !ok {
		return "", ErrNotEncrypted
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plain, err := m.keys.open(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt information: %w", err)
	}
	return string(plain), nil
}

func (m *encryptionMiddleware) Create(ctx context.Context, parentRef string, typ *domain.Structure, attrs domain.Attributes) (*domain.Node, error) {
	plain := attrs.Information
	sealed, err := m.seal(plain)
	if err != nil {
		return nil, err
	}
	attrs.Information = sealed
	node, err := m.Runtime.Create(ctx, parentRef, typ, attrs)
	if err != nil {
		return nil, err
	}
	node.Information = plain
	return node, nil
}

func (m *encryptionMiddleware) Transform(ctx context.Context, sourceRef string, target *domain.Structure, information string) (*domain.Node, error) {
	sealed, err := m.seal(information)
	if err != nil {
		return nil, err
	}
	node, err := m.Runtime.Transform(ctx, sourceRef, target, sealed)
	if err != nil {
		return nil, err
	}
	node.Information = information
	return node, nil
}

func (m *encryptionMiddleware) Project(ctx context.Context, ref string) (*domain.State, error) {
	state, err := m.Runtime.Project(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := m.openState(state); err != nil {
		return nil, fmt.Errorf("project %q: %w", ref, err)
	}
	return state, nil
}

func (m *encryptionMiddleware) openState(s *domain.State) error {
	plain, err := m.open(s.Information)
	if err != nil {
		return err
	}
	s.Information = plain
	for _, l := range s.Links {
		if err := m.openState(l.Target); err != nil {
			return err
		}
	}
	for _, child := range s.Children {
		if err := m.openState(child); err != nil {
			return err
		}
	}
	return nil
}

func (m *encryptionMiddleware) Roots(ctx context.Context) ([]*domain.Node, error) {
	roots, err := m.Runtime.Roots(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range roots {
		plain, err := m.open(n.Information)
		if err != nil {
			return nil, fmt.Errorf("root %q: %w", n.Ref, err)
		}
		n.Information = plain
	}
	return roots, nil
}

// sealer holds one AES-GCM instance per key; the first one encrypts.
type sealer []cipher.AEAD

func newSealer(config EncryptionConfig) (sealer, error) {
	keys := append([][]byte{config.ActiveKey}, config.FallbackKeys...)
	aeads := make(sealer, 0, len(keys))
	for i, key := range keys {
		if len(key) != 32 {
			return nil, fmt.Errorf("key %d: must be 32 bytes (AES-256), got %d", i, len(key))
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		aeads = append(aeads, gcm)
	}
	return aeads, nil
}

// seal returns nonce || ciphertext under the active key.
func (s sealer) seal(plaintext []byte) ([]byte, error) {
	active := s[0]
	nonce := make([]byte, active.NonceSize(), active.NonceSize()+len(plaintext)+active.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return active.Seal(nonce, nonce, plaintext, nil), nil
}

// open tries the active key, then each fallback key in order.
func (s sealer) open(data []byte) ([]byte, error) {
	for _, aead := range s {
		n := aead.NonceSize()
		if len(data) < n {
			return nil, errors.New("ciphertext too short")
		}
		if plain, err := aead.Open(nil, data[:n], data[n:], nil); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}
