package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RateLimitConfig configurazione del rate limiter
type RateLimitConfig struct {
	// RPS richieste al secondo permesse per client
	RPS float64

	// Burst dimensione massima del burst
	Burst int

	// CleanupInterval intervallo di pulizia dei limiter inattivi
	CleanupInterval time.Duration

	// ClientTTL tempo dopo il quale un limiter inattivo viene rimosso
	ClientTTL time.Duration
}

// DefaultRateLimitConfig configurazione di default
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RPS:             1,
		Burst:           3,
		CleanupInterval: 5 * time.Minute,
		ClientTTL:       10 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limita le richieste per IP usando token bucket
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	cfg     RateLimitConfig
	done    chan struct{}
}

// NewRateLimiter crea un nuovo RateLimiter e avvia la goroutine di cleanup
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RPS <= 0 {
		cfg.RPS = DefaultRateLimitConfig().RPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimitConfig().Burst
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultRateLimitConfig().CleanupInterval
	}
	if cfg.ClientTTL <= 0 {
		cfg.ClientTTL = DefaultRateLimitConfig().ClientTTL
	}

	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		cfg:     cfg,
		done:    make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Handler restituisce il middleware fiber
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !rl.allow(c.IP()) {
			log.Warn().
				Str("request_id", GetRequestID(c)).
				Str("ip", c.IP()).
				Str("path", c.Path()).
				Msg("rate limit exceeded")

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":      "rate_limit_exceeded",
				"message":    "too many requests, slow down",
				"request_id": GetRequestID(c),
			})
		}

		return c.Next()
	}
}

// Stop ferma la goroutine di cleanup
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[ip]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst),
		}
		rl.clients[ip] = cl
	}

	cl.lastSeen = time.Now()
	return cl.limiter.Allow()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.cfg.ClientTTL)
	for ip, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}
