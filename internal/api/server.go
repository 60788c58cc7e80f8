package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nikmy/remindbot/internal/reminders"
	"github.com/nikmy/remindbot/internal/schedule"
	"github.com/nikmy/remindbot/pkg/errors"
	"github.com/nikmy/remindbot/pkg/logger"
)

// NewServer exposes the reminder store to operators over HTTP. The store's
// lifecycle belongs to the hosting process, not to the server.
func NewServer(cfg Config, log logger.Logger, store reminders.API) Server {
	serveLog := log.With("api_http_server")

	fiberCfg := fiber.Config{
		ReadTimeout:             cfg.HTTP.ReadTimeout,
		WriteTimeout:            cfg.HTTP.WriteTimeout,
		IdleTimeout:             cfg.HTTP.IdleTimeout,
		DisableStartupMessage:   true,
		EnableTrustedProxyCheck: true,
		ProxyHeader:             cfg.Proxy.Header,
		TrustedProxies:          cfg.Proxy.Trusted,
		RequestMethods:          []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodDelete},
	}

	fiberCfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
		serveLog.Warn(errors.WrapFail(err, "handle http request"))
		return c.Status(http.StatusInternalServerError).Send(nil)
	}

	s := &server{
		store: store,
		http:  fiber.New(fiberCfg),
		addr:  cfg.HTTP.Addr,
		log:   serveLog,
	}

	s.setupRoutes()

	return s
}

type server struct {
	store reminders.API
	http  *fiber.App
	addr  string
	log   logger.Logger
}

func (s *server) Serve(ctx context.Context) error {
	errCh := make(chan error)
	go func() { errCh <- s.http.Listen(s.addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return errors.Error("serve context done")
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	err := s.http.ShutdownWithContext(ctx)
	return errors.WrapFail(err, "shutdown http server")
}

func (s *server) setupRoutes() {
	s.http.Post("/reminders", s.handleCreate)
	s.http.Get("/reminders", s.handleList)
	s.http.Delete("/reminders", s.handleDelete)
}

type createRequest struct {
	Owner   string `json:"owner"`
	Message string `json:"message"`

	Rule string `json:"rule,omitempty"` // schedule token, recurring
	At   string `json:"at,omitempty"`   // RFC3339, one-shot
}

func (s *server) handleCreate(c *fiber.Ctx) error {
	var req createRequest

	if err := c.BodyParser(&req); err != nil {
		s.log.Warn(errors.WrapFail(err, "unmarshal create payload"))
		return s.sendError(c, http.StatusBadRequest, "bad json")
	}

	if req.Owner == "" || req.Message == "" {
		return s.sendError(c, http.StatusBadRequest, "\"owner\" and \"message\" are required")
	}

	r := reminders.Reminder{
		OwnerID: req.Owner,
		Message: req.Message,
	}

	switch {
	case req.Rule != "":
		rule, err := schedule.ParseRule(req.Rule)
		if err != nil {
			s.log.Warn(err)
			return s.sendError(c, http.StatusBadRequest, "malformed rule token")
		}

		r.Recurring = true
		r.Rule = rule.Token()
		r.NextFireAt = schedule.InitialOccurrence(rule, time.Now().UTC())

	case req.At != "":
		at, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			return s.sendError(c, http.StatusBadRequest, "bad \"at\" timestamp")
		}
		r.NextFireAt = at.UTC().Truncate(time.Minute)

	default:
		return s.sendError(c, http.StatusBadRequest, "either \"rule\" or \"at\" is required")
	}

	id, err := s.store.Create(c.Context(), r)
	if err != nil {
		return errors.WrapFail(err, "create reminder")
	}

	return c.Status(http.StatusCreated).JSON(map[string]string{
		"id":           id,
		"next_fire_at": r.NextFireAt.Format(time.RFC3339),
	})
}

func (s *server) handleList(c *fiber.Ctx) error {
	owner := c.Query("owner", "")
	if owner == "" {
		return s.sendError(c, http.StatusBadRequest, "missing required parameter \"owner\"")
	}

	owned, err := s.store.ListByOwner(c.Context(), owner)
	if err != nil {
		return errors.WrapFail(err, "list reminders")
	}

	return c.Status(http.StatusOK).JSON(owned)
}

func (s *server) handleDelete(c *fiber.Ctx) error {
	owner, id := c.Query("owner", ""), c.Query("id", "")
	if owner == "" || id == "" {
		return s.sendError(c, http.StatusBadRequest, "missing required parameters \"owner\" and \"id\"")
	}

	found, err := s.store.Delete(c.Context(), owner, id)
	if err != nil {
		return errors.WrapFail(err, "delete reminder")
	}

	if !found {
		return s.sendError(c, http.StatusNotFound, "no such reminder")
	}

	return c.Status(http.StatusOK).Send(nil)
}

func (s *server) sendError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(map[string]string{"status": "ERROR", "message": msg})
}
