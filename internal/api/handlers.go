package api

import (
	"github.com/valyala/fasthttp"

	"github.com/bdevroede/courtplan/internal/identity"
	"github.com/bdevroede/courtplan/internal/notify"
	"github.com/bdevroede/courtplan/internal/schedule"
)

func (s *Server) handleSchedule(ctx *fasthttp.RequestCtx) {
	grid := s.sched.Grid()
	var rs []schedule.Reservation
	if date := queryArg(ctx, "date"); date != "" {
		rs = s.sched.ReservationsOn(date)
	} else {
		rs = s.sched.Reservations()
	}
	if rs == nil {
		rs = []schedule.Reservation{}
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"dates":        grid.Dates(),
		"slots":        grid.Slots,
		"courts":       grid.Courts,
		"reservations": rs,
	})
}

func (s *Server) handlePlayers(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"players": s.sched.Roster().Players(),
		"admin":   s.ident.AdminName(),
	})
}

func (s *Server) handleLadder(ctx *fasthttp.RequestCtx) {
	ladder := s.sched.Ladder()
	if ladder == nil {
		ladder = []schedule.LadderEntry{}
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"ladder": ladder})
}

func (s *Server) handlePlanAll(ctx *fasthttp.RequestCtx, actor identity.Actor) {
	n, err := s.sched.PlanAll(actor)
	if err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]int{"planned": n})
}

func (s *Server) handlePlanWeek(ctx *fasthttp.RequestCtx, actor identity.Actor) {
	var req struct {
		Date string `json:"date"`
	}
	if err := readJSON(ctx, &req); err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	n, err := s.sched.PlanWeek(actor, req.Date)
	if err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]int{"planned": n})
}

func (s *Server) handleReserve(ctx *fasthttp.RequestCtx, actor identity.Actor) {
	var req struct {
		Date      string             `json:"date"`
		Slot      string             `json:"timeSlot"`
		Court     int                `json:"court"`
		MatchType schedule.MatchType `json:"matchType"`
		Players   []string           `json:"players"`
	}
	if err := readJSON(ctx, &req); err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	r, err := s.sched.Reserve(actor, req.Date, req.Slot, req.Court, req.MatchType, req.Players)
	if err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, r)
}

func (s *Server) handleRemoveReservation(ctx *fasthttp.RequestCtx, actor identity.Actor) {
	court := ctx.QueryArgs().GetUintOrZero("court")
	err := s.sched.RemoveReservation(actor, queryArg(ctx, "date"), queryArg(ctx, "timeSlot"), court)
	if err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]bool{"removed": true})
}

func (s *Server) handleAvailability(ctx *fasthttp.RequestCtx) {
	date, slot := queryArg(ctx, "date"), queryArg(ctx, "timeSlot")
	if date != "" && slot != "" {
		players := s.sched.AvailablePlayers(date, slot)
		if players == nil {
			players = []string{}
		}
		writeJSON(ctx, fasthttp.StatusOK, map[string]any{"players": players})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"availability": s.sched.Availability()})
}

func (s *Server) handleSetAvailability(ctx *fasthttp.RequestCtx, actor identity.Actor) {
	var req struct {
		Player    string `json:"player"`
		Date      string `json:"date"`
		Slot      string `json:"timeSlot"`
		Available bool   `json:"available"`
	}
	if err := readJSON(ctx, &req); err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	if req.Player == "" {
		req.Player = actor.Name
	}
	if err := s.sched.SetAvailability(actor, req.Player, req.Date, req.Slot, req.Available); err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]bool{"saved": true})
}

func (s *Server) handleChallenges(ctx *fasthttp.RequestCtx) {
	var items any
	if player := queryArg(ctx, "player"); player != "" {
		items = s.chal.ByPlayer(player)
	} else {
		items = s.chal.List()
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{"challenges": items})
}

func (s *Server) handleCreateChallenge(ctx *fasthttp.RequestCtx, actor identity.Actor) {
	var req struct {
		To   string `json:"to"`
		Date string `json:"date"`
		Slot string `json:"timeSlot"`
	}
	if err := readJSON(ctx, &req); err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	ch, err := s.chal.Create(actor, req.To, req.Date, req.Slot)
	if err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ch)
}

func (s *Server) handleAccept(ctx *fasthttp.RequestCtx, actor identity.Actor) {
	var req struct {
		ID string `json:"id"`
	}
	if err := readJSON(ctx, &req); err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	ch, err := s.chal.Accept(actor, req.ID)
	if err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ch)
}

func (s *Server) handleDecline(ctx *fasthttp.RequestCtx, actor identity.Actor) {
	var req struct {
		ID string `json:"id"`
	}
	if err := readJSON(ctx, &req); err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	ch, err := s.chal.Decline(actor, req.ID)
	if err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ch)
}

func (s *Server) handleResult(ctx *fasthttp.RequestCtx, actor identity.Actor) {
	var req struct {
		ID     string `json:"id"`
		Winner string `json:"winner"`
	}
	if err := readJSON(ctx, &req); err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	ch, err := s.chal.RecordResult(actor, req.ID, req.Winner)
	if err != nil {
		s.writeError(ctx, actor, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ch)
}

func (s *Server) handleNotifications(ctx *fasthttp.RequestCtx, actor identity.Actor) {
	if !actor.Authenticated() {
		writeJSON(ctx, fasthttp.StatusUnauthorized, map[string]string{
			"error": s.text("api.unauthorized", "sign in with your player name"),
		})
		return
	}
	items := s.center.For(actor.Name)
	if items == nil {
		items = []notify.Notification{}
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"notifications": items,
		"unread":        s.center.Unread(actor.Name),
	})
}

func (s *Server) handleMarkRead(ctx *fasthttp.RequestCtx, actor identity.Actor) {
	if !actor.Authenticated() {
		writeJSON(ctx, fasthttp.StatusUnauthorized, map[string]string{
			"error": s.text("api.unauthorized", "sign in with your player name"),
		})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]int{"marked": s.center.MarkAllRead(actor.Name)})
}
