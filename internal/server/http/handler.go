package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mixtape/internal/server/core"
	"mixtape/internal/server/game"
	"mixtape/internal/server/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const (
	rateLimitRate = 10 // req/sec

	// SessionCookie carries the opaque token keying server-side game state
	SessionCookie = "mixtape_session"

	sessionCookieTTL = 24 * time.Hour
)

// HTTPHandler handles HTTP requests and routes them to the service
type HTTPHandler struct {
	svc *service.Service
}

func NewHTTPHandler(svc *service.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func NewFiberApp(svc *service.Service, devMode bool) *fiber.App {
	h := NewHTTPHandler(svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:9090",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: true,
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	// API v1 routes
	api := app.Group("/api/v1")

	// Participant submission: 10 req/min per IP
	api.Post("/participants", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: "10 submissions per minute allowed",
			})
		},
	}), validationMiddleware, h.AddParticipant)

	// Game routes with standard rate limiting
	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	// Content-Type validation for POST requests
	api.Use(contentTypeValidator)

	// Middleware validation for request bodies
	api.Use(validationMiddleware)

	api.Get("/participants", h.ListParticipants)
	api.Get("/round", h.GetRound)
	api.Post("/guess", h.SubmitGuess)
	api.Get("/finished", h.Finished)
	api.Post("/name", h.SubmitName)
	api.Post("/name/skip", h.SkipName)
	api.Post("/reset", h.Reset)
	api.Get("/leaderboard", h.Leaderboard)

	return app
}

// contentTypeValidator ensures POST requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound, fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// sessionToken returns the caller's session token, minting one and setting
// the cookie on first contact.
func (h *HTTPHandler) sessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookie); token != "" {
		return token
	}

	token := h.svc.NewToken()
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(sessionCookieTTL),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return token
}

// Health check endpoint with storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
	})
}

// AddParticipant creates a participant or replaces their track triple
func (h *HTTPHandler) AddParticipant(c *fiber.Ctx) error {
	validatedBody := c.Locals("validatedBody")
	if validatedBody == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "validation data missing",
			Code:  core.ErrInternalError,
		})
	}
	req := *(validatedBody.(*core.AddParticipantRequest))

	if err := h.svc.AddOrUpdateParticipant(req.Name, req.Track1, req.Track2, req.Track3); err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "name and three tracks required",
				Code:    core.ErrValidation,
				Details: err.Error(),
			})
		}
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "ok"})
}

// ListParticipants returns all participants with their tracks
func (h *HTTPHandler) ListParticipants(c *fiber.Ctx) error {
	participants, err := h.svc.Participants()
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(participants)
}

// GetRound starts or continues the caller's session and returns the round
// to display. States other than "round" signal empty pool, too few players
// or a finished session.
func (h *HTTPHandler) GetRound(c *fiber.Ctx) error {
	token := h.sessionToken(c)

	resp, err := h.svc.StartOrContinueRound(token)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(resp)
}

// SubmitGuess scores the pending round's guess
func (h *HTTPHandler) SubmitGuess(c *fiber.Ctx) error {
	token := h.sessionToken(c)

	validatedBody := c.Locals("validatedBody")
	if validatedBody == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "validation data missing",
			Code:  core.ErrInternalError,
		})
	}
	req := *(validatedBody.(*core.GuessRequest))

	resp, err := h.svc.SubmitGuess(token, req.Choice)
	if err != nil {
		// Stale guess: no round pending, nothing scored. The client should
		// fetch the current round instead.
		if errors.Is(err, game.ErrNoPendingRound) {
			return c.Status(fiber.StatusConflict).JSON(core.ErrorResponse{
				Error:   "no round pending",
				Code:    core.ErrRoundNotPending,
				Details: "request a round before guessing",
			})
		}
		return internalError(c, err)
	}

	return c.JSON(resp)
}

// Finished returns the end-of-game summary
func (h *HTTPHandler) Finished(c *fiber.Ctx) error {
	token := h.sessionToken(c)

	resp, err := h.svc.FinishedSummary(token)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(resp)
}

// SubmitName records the player's score on the leaderboard
func (h *HTTPHandler) SubmitName(c *fiber.Ctx) error {
	token := h.sessionToken(c)

	validatedBody := c.Locals("validatedBody")
	if validatedBody == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "validation data missing",
			Code:  core.ErrInternalError,
		})
	}
	req := *(validatedBody.(*core.NameRequest))

	if err := h.svc.SubmitName(token, req.Name); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFinished):
			return c.Status(fiber.StatusConflict).JSON(core.ErrorResponse{
				Error:   "session not finished",
				Code:    core.ErrNotFinished,
				Details: "finish all rounds before submitting a name",
			})
		case errors.Is(err, service.ErrEmptyName):
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error: "please enter your name",
				Code:  core.ErrValidation,
			})
		default:
			return internalError(c, err)
		}
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// SkipName resolves the name prompt without a leaderboard entry
func (h *HTTPHandler) SkipName(c *fiber.Ctx) error {
	token := h.sessionToken(c)

	if err := h.svc.SkipName(token); err != nil {
		if errors.Is(err, service.ErrNotFinished) {
			return c.Status(fiber.StatusConflict).JSON(core.ErrorResponse{
				Error:   "session not finished",
				Code:    core.ErrNotFinished,
				Details: "finish all rounds before skipping",
			})
		}
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// Reset clears the caller's session state
func (h *HTTPHandler) Reset(c *fiber.Ctx) error {
	token := h.sessionToken(c)
	h.svc.ResetSession(token)
	return c.SendStatus(fiber.StatusNoContent)
}

// Leaderboard returns entries in display order; ?limit=N caps the result
func (h *HTTPHandler) Leaderboard(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "0"))
	if err != nil || limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid limit",
			Code:    core.ErrInvalidRequest,
			Details: "limit must be a non-negative integer",
		})
	}

	entries, err := h.svc.Leaderboard(limit)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(entries)
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
		Error:   "internal server error",
		Code:    core.ErrInternalError,
		Details: err.Error(),
	})
}
