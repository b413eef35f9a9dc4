package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// RecoveryConfig configurazione del middleware di recovery
type RecoveryConfig struct {
	// EnableStackTrace abilita il log dello stack trace
	EnableStackTrace bool

	// StackTraceHandler funzione custom per gestire lo stack trace
	StackTraceHandler func(c fiber.Ctx, err interface{}, stack []byte)

	// Custom error response
	ErrorResponse func(c fiber.Ctx, err interface{}) error
}

// DefaultRecoveryConfig configurazione di default
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, err interface{}, stack []byte) {
			log.Error().
				Str("request_id", GetRequestID(c)).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Interface("panic", err).
				Bytes("stack", stack).
				Msg("panic recovered")
		},
		ErrorResponse: func(c fiber.Ctx, err interface{}) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":      "internal_server_error",
				"message":    "an unexpected error occurred",
				"request_id": GetRequestID(c),
			})
		},
	}
}

// Recovery middleware per catturare i panic e rispondere con un errore 500
func Recovery(config ...RecoveryConfig) fiber.Handler {
	cfg := DefaultRecoveryConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				var stack []byte
				if cfg.EnableStackTrace {
					stack = debug.Stack()
				}

				if cfg.StackTraceHandler != nil {
					cfg.StackTraceHandler(c, r, stack)
				}

				if cfg.ErrorResponse != nil {
					err = cfg.ErrorResponse(c, r)
				} else {
					err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
						"error": "internal server error",
					})
				}
			}
		}()

		return c.Next()
	}
}

// RecoveryWithLogger middleware di recovery con dettaglio del panic nella risposta
func RecoveryWithLogger() fiber.Handler {
	return Recovery(RecoveryConfig{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, err interface{}, stack []byte) {
			logEvent := log.Error().
				Str("request_id", GetRequestID(c)).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Interface("panic", err)

			if stack != nil {
				logEvent = logEvent.Bytes("stack", stack)
			}

			logEvent.Msg("panic recovered")
		},
		ErrorResponse: func(c fiber.Ctx, err interface{}) error {
			var errMsg string
			if e, ok := err.(error); ok {
				errMsg = e.Error()
			} else {
				errMsg = fmt.Sprintf("%v", err)
			}

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":      "internal_server_error",
				"message":    "an unexpected error occurred",
				"request_id": GetRequestID(c),
				"details":    errMsg,
			})
		},
	})
}
