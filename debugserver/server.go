// Package debugserver is a local, read-only HTTP introspection surface
// for operators. It is not the peer transport: nothing the simulation
// depends on flows through it.
package debugserver

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// StateProvider is the minimal read-only view of the simulation core
// the debug server renders. sim.Manager implements it.
type StateProvider interface {
	CurrentFrame() int64
	LastValidateFrame() int64
	Scores() [2]int
}

// Server wraps a fiber app exposing /health and /debug/state.
type Server struct {
	app *fiber.App
}

// New builds the debug server's route table against state.
func New(state StateProvider) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/debug/state", func(c *fiber.Ctx) error {
		scores := state.Scores()
		return c.JSON(fiber.Map{
			"current_frame":       state.CurrentFrame(),
			"last_validate_frame": state.LastValidateFrame(),
			"scores":              scores,
		})
	})

	return &Server{app: app}
}

// Serve blocks listening on address until ctx is canceled.
func (s *Server) Serve(ctx context.Context, address string) error {
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", address).Msg("debugserver: listening")
		if err := s.app.Listen(address); err != nil {
			serverErr <- eris.Wrap(err, "debugserver: listen")
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return eris.Wrap(err, "debugserver: shutdown")
		}
		return nil
	}
}
