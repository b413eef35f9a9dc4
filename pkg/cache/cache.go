package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ErrCacheMiss indica che la chiave non è presente in cache
var ErrCacheMiss = errors.New("cache miss")

// Entry rappresenta un contenuto generato memorizzato in cache
type Entry struct {
	Topic    string   `json:"topic"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords,omitempty"`
	Model    string   `json:"model"`
	Provider string   `json:"provider"`
	CachedAt int64    `json:"cached_at"`
}

// Cache è l'interfaccia per la cache dei contenuti generati
type Cache interface {
	// Get recupera l'entry per un topic. Ritorna ErrCacheMiss se assente.
	Get(ctx context.Context, topic string) (*Entry, error)

	// Set memorizza l'entry per un topic
	Set(ctx context.Context, topic string, entry *Entry) error

	// Invalidate rimuove l'entry per un topic
	Invalidate(ctx context.Context, topic string) error

	// Ping verifica la connessione al backend
	Ping(ctx context.Context) error

	// Close chiude la connessione
	Close() error
}

// TopicKey genera la chiave di cache per un topic.
// La normalizzazione evita duplicati per differenze di case/spazi.
func TopicKey(topic string) string {
	normalized := strings.ToLower(strings.TrimSpace(topic))
	hash := sha256.Sum256([]byte(normalized))
	return "contentforge:generation:" + hex.EncodeToString(hash[:])
}

// DefaultTTL è il TTL di default per le entry in cache
const DefaultTTL = 24 * time.Hour
