// Package credential keeps the bot token in the OS keyring.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName = "gamewatch"

	// BotTokenKey is the keyring key of the Telegram bot token.
	BotTokenKey = "telegram-token"

	// TokenEnv overrides the keyring when set.
	TokenEnv = "GAMEWATCH_TELEGRAM_TOKEN"
)

// ErrNoToken is returned when neither the environment nor the keyring
// holds a bot token.
var ErrNoToken = errors.New("no bot token configured; run `gamewatch login` or set " + TokenEnv)

// Store reads and writes credentials.
type Store struct {
	ring keyring.Keyring
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open opens the system keyring. fileDir is used by the encrypted file
// backend on hosts without a native keyring, e.g. a headless server.
func Open(fileDir string) (*Store, error) {
	if fileDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		fileDir = filepath.Join(home, ".config", serviceName, "credentials")
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(serviceName + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

// Get retrieves a credential value by key.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (s *Store) Set(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       serviceName + " " + key,
		Description: "gamewatch notifier credential",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// BotToken returns the bot token, preferring envValue (normally the
// content of TokenEnv) over the keyring. s may be nil when no keyring
// is available.
func BotToken(envValue string, s *Store) (string, error) {
	if token := strings.TrimSpace(envValue); token != "" {
		return token, nil
	}
	if s == nil {
		return "", ErrNoToken
	}

	token, err := s.Get(BotTokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return strings.TrimSpace(token), nil
}
