package api

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/bdevroede/courtplan/internal/challenge"
	"github.com/bdevroede/courtplan/internal/identity"
	"github.com/bdevroede/courtplan/internal/msgcat"
	"github.com/bdevroede/courtplan/internal/notify"
	"github.com/bdevroede/courtplan/internal/obslog"
	"github.com/bdevroede/courtplan/internal/schedule"
)

// playerHeader carries the acting player's name. The club runs on trust; there
// is no password, the name only has to exist on the roster.
const playerHeader = "X-Player"

// Server is the JSON API over the scheduling core.
type Server struct {
	ident  *identity.Provider
	sched  *schedule.Service
	chal   *challenge.Manager
	center *notify.Center
	cat    *msgcat.Catalog
	srv    *fasthttp.Server
}

func NewServer(ident *identity.Provider, sched *schedule.Service, chal *challenge.Manager, center *notify.Center, cat *msgcat.Catalog) *Server {
	s := &Server{ident: ident, sched: sched, chal: chal, center: center, cat: cat}
	s.srv = &fasthttp.Server{
		Handler:            s.route,
		Name:               "courtplan",
		MaxRequestBodySize: 1 << 20,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	obslog.L().Info("api_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

// Handler exposes the request handler, mainly for tests.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.route
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())
	actor, ok := s.ident.Resolve(string(ctx.Request.Header.Peek(playerHeader)))
	if !ok {
		writeJSON(ctx, fasthttp.StatusUnauthorized, map[string]string{"error": s.text("api.unauthorized", "unknown player")})
		return
	}

	switch {
	case path == "/healthz" && method == fasthttp.MethodGet:
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})

	case path == "/api/schedule" && method == fasthttp.MethodGet:
		s.handleSchedule(ctx)
	case path == "/api/players" && method == fasthttp.MethodGet:
		s.handlePlayers(ctx)
	case path == "/api/ladder" && method == fasthttp.MethodGet:
		s.handleLadder(ctx)

	case path == "/api/plan/all" && method == fasthttp.MethodPost:
		s.handlePlanAll(ctx, actor)
	case path == "/api/plan/week" && method == fasthttp.MethodPost:
		s.handlePlanWeek(ctx, actor)

	case path == "/api/reservations" && method == fasthttp.MethodPost:
		s.handleReserve(ctx, actor)
	case path == "/api/reservations" && method == fasthttp.MethodDelete:
		s.handleRemoveReservation(ctx, actor)

	case path == "/api/availability" && method == fasthttp.MethodGet:
		s.handleAvailability(ctx)
	case path == "/api/availability" && method == fasthttp.MethodPost:
		s.handleSetAvailability(ctx, actor)

	case path == "/api/challenges" && method == fasthttp.MethodGet:
		s.handleChallenges(ctx)
	case path == "/api/challenges" && method == fasthttp.MethodPost:
		s.handleCreateChallenge(ctx, actor)
	case path == "/api/challenges/accept" && method == fasthttp.MethodPost:
		s.handleAccept(ctx, actor)
	case path == "/api/challenges/decline" && method == fasthttp.MethodPost:
		s.handleDecline(ctx, actor)
	case path == "/api/challenges/result" && method == fasthttp.MethodPost:
		s.handleResult(ctx, actor)

	case path == "/api/notifications" && method == fasthttp.MethodGet:
		s.handleNotifications(ctx, actor)
	case path == "/api/notifications/read" && method == fasthttp.MethodPost:
		s.handleMarkRead(ctx, actor)

	default:
		writeJSON(ctx, fasthttp.StatusNotFound, map[string]string{"error": s.text("api.not-found", "not found")})
	}
}

func (s *Server) text(key, fallback string) string {
	if s.cat == nil {
		return fallback
	}
	return s.cat.RenderOr(key, nil, fallback)
}

// writeError maps domain sentinels onto HTTP statuses.
func (s *Server) writeError(ctx *fasthttp.RequestCtx, actor identity.Actor, err error) {
	status := fasthttp.StatusBadRequest
	key := "api.invalid"
	switch {
	case errors.Is(err, schedule.ErrNotAllowed) || errors.Is(err, challenge.ErrNotAllowed):
		if !actor.Authenticated() {
			status, key = fasthttp.StatusUnauthorized, "api.unauthorized"
		} else {
			status, key = fasthttp.StatusForbidden, "api.forbidden"
		}
	case errors.Is(err, schedule.ErrNoReservation) || errors.Is(err, challenge.ErrNotFound):
		status, key = fasthttp.StatusNotFound, "api.not-found"
	case errors.Is(err, schedule.ErrPlayerBooked),
		errors.Is(err, schedule.ErrPlayerUnavailable),
		errors.Is(err, schedule.ErrNoFreeCourt),
		errors.Is(err, challenge.ErrAlreadyPending),
		errors.Is(err, challenge.ErrNotPending),
		errors.Is(err, challenge.ErrNotAccepted):
		status, key = fasthttp.StatusConflict, "api.conflict"
	}
	writeJSON(ctx, status, map[string]string{
		"error":  s.text(key, err.Error()),
		"detail": err.Error(),
	})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		obslog.L().Error("api_encode_error", zap.Error(err))
	}
}

func readJSON(ctx *fasthttp.RequestCtx, into any) error {
	body := ctx.PostBody()
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.New("empty request body")
	}
	return json.Unmarshal(body, into)
}

func queryArg(ctx *fasthttp.RequestCtx, name string) string {
	return string(ctx.QueryArgs().Peek(name))
}
