package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/bdevroede/courtplan/internal/challenge"
	"github.com/bdevroede/courtplan/internal/identity"
	"github.com/bdevroede/courtplan/internal/msgcat"
	"github.com/bdevroede/courtplan/internal/notify"
	"github.com/bdevroede/courtplan/internal/roster"
	"github.com/bdevroede/courtplan/internal/schedule"
)

func testClient(t *testing.T) *http.Client {
	t.Helper()
	r, err := roster.Load()
	if err != nil {
		t.Fatalf("roster.Load: %v", err)
	}
	grid := schedule.NewGrid(time.Date(2025, time.September, 28, 0, 0, 0, 0, time.UTC), 2, schedule.DefaultSlots, 3)
	svc := schedule.NewService(r, grid, schedule.NoTieBreak(), nil)

	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	center := notify.NewCenter(cat, nil)
	chal := challenge.NewManager(r, svc, nil)
	chal.AttachNotifier(center)
	ident := identity.NewProvider(r, "Mattias")
	srv := NewServer(ident, svc, chal, center, cat)

	ln := fasthttputil.NewInmemoryListener()
	go fasthttp.Serve(ln, srv.Handler())
	t.Cleanup(func() { ln.Close() })

	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(context.Context, string, string) (net.Conn, error) {
				return ln.Dial()
			},
		},
	}
}

func do(t *testing.T, c *http.Client, method, path, player string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, "http://courtplan"+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if player != "" {
		req.Header.Set("X-Player", player)
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	c := testClient(t)
	status, body := do(t, c, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz: %d %v", status, body)
	}
}

func TestScheduleShape(t *testing.T) {
	c := testClient(t)
	status, body := do(t, c, http.MethodGet, "/api/schedule", "", nil)
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	dates, ok := body["dates"].([]any)
	if !ok || len(dates) != 2 || dates[0] != "2025-09-28" {
		t.Fatalf("dates: %v", body["dates"])
	}
	if body["courts"].(float64) != 3 {
		t.Fatalf("courts: %v", body["courts"])
	}
	if _, ok := body["reservations"].([]any); !ok {
		t.Fatalf("reservations must be a list even when empty: %v", body["reservations"])
	}
}

func TestPlanPermissions(t *testing.T) {
	c := testClient(t)
	if status, _ := do(t, c, http.MethodPost, "/api/plan/all", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("guest plan: %d", status)
	}
	if status, _ := do(t, c, http.MethodPost, "/api/plan/all", "Aaron", nil); status != http.StatusForbidden {
		t.Fatalf("non-admin plan: %d", status)
	}
	status, body := do(t, c, http.MethodPost, "/api/plan/all", "Mattias", nil)
	if status != http.StatusOK || body["planned"].(float64) == 0 {
		t.Fatalf("admin plan: %d %v", status, body)
	}
}

func TestReservationLifecycle(t *testing.T) {
	c := testClient(t)
	req := map[string]any{
		"date": "2025-09-28", "timeSlot": "18u30-19u30", "court": 2,
		"matchType": "single", "players": []string{"Aaron", "Ruben"},
	}
	status, body := do(t, c, http.MethodPost, "/api/reservations", "Aaron", req)
	if status != http.StatusOK || body["court"].(float64) != 2 || body["origin"] != "training" {
		t.Fatalf("reserve: %d %v", status, body)
	}

	// The booked hour blocks the same players elsewhere.
	conflict := map[string]any{
		"date": "2025-09-28", "timeSlot": "18u30-19u30", "court": 3,
		"matchType": "single", "players": []string{"Ruben", "Seppe"},
	}
	if status, _ := do(t, c, http.MethodPost, "/api/reservations", "Seppe", conflict); status != http.StatusConflict {
		t.Fatalf("conflict status: %d", status)
	}

	path := "/api/reservations?date=2025-09-28&timeSlot=18u30-19u30&court=2"
	if status, _ := do(t, c, http.MethodDelete, path, "Seppe", nil); status != http.StatusForbidden {
		t.Fatalf("bystander delete must be forbidden")
	}
	if status, _ := do(t, c, http.MethodDelete, path, "Aaron", nil); status != http.StatusOK {
		t.Fatalf("participant delete failed")
	}
	if status, _ := do(t, c, http.MethodDelete, path, "Aaron", nil); status != http.StatusNotFound {
		t.Fatalf("second delete must 404")
	}
}

func TestChallengeFlow(t *testing.T) {
	c := testClient(t)

	status, created := do(t, c, http.MethodPost, "/api/challenges", "Aaron", map[string]string{
		"to": "Ruben", "date": "2025-09-28", "timeSlot": "18u30-19u30",
	})
	if status != http.StatusOK || created["status"] != "pending" {
		t.Fatalf("create: %d %v", status, created)
	}
	id := created["id"].(string)

	if status, _ := do(t, c, http.MethodPost, "/api/challenges/accept", "Aaron", map[string]string{"id": id}); status != http.StatusForbidden {
		t.Fatalf("challenger cannot accept")
	}
	status, accepted := do(t, c, http.MethodPost, "/api/challenges/accept", "Ruben", map[string]string{"id": id})
	if status != http.StatusOK || accepted["status"] != "accepted" {
		t.Fatalf("accept: %d %v", status, accepted)
	}
	if status, _ := do(t, c, http.MethodPost, "/api/challenges/accept", "Ruben", map[string]string{"id": id}); status != http.StatusConflict {
		t.Fatalf("double accept must 409")
	}

	status, completed := do(t, c, http.MethodPost, "/api/challenges/result", "Aaron", map[string]string{
		"id": id, "winner": "Aaron",
	})
	if status != http.StatusOK || completed["status"] != "completed" {
		t.Fatalf("result: %d %v", status, completed)
	}

	status, ladderBody := do(t, c, http.MethodGet, "/api/ladder", "", nil)
	if status != http.StatusOK {
		t.Fatalf("ladder status %d", status)
	}
	ladder := ladderBody["ladder"].([]any)
	if len(ladder) != 2 {
		t.Fatalf("ladder: %v", ladder)
	}
	head := ladder[0].(map[string]any)
	if head["player"] != "Aaron" || head["wins"].(float64) != 1 {
		t.Fatalf("ladder head: %v", head)
	}

	// Ruben collected notifications along the way; mark-all-read clears them.
	status, inbox := do(t, c, http.MethodGet, "/api/notifications", "Ruben", nil)
	if status != http.StatusOK || inbox["unread"].(float64) == 0 {
		t.Fatalf("inbox: %d %v", status, inbox)
	}
	if status, _ := do(t, c, http.MethodPost, "/api/notifications/read", "Ruben", nil); status != http.StatusOK {
		t.Fatalf("mark read failed")
	}
	if _, inbox = do(t, c, http.MethodGet, "/api/notifications", "Ruben", nil); inbox["unread"].(float64) != 0 {
		t.Fatalf("unread after mark-all-read: %v", inbox["unread"])
	}
	if status, _ := do(t, c, http.MethodGet, "/api/notifications", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("guest inbox must 401")
	}
}

func TestAvailabilityEndpoints(t *testing.T) {
	c := testClient(t)
	status, _ := do(t, c, http.MethodPost, "/api/availability", "Aaron", map[string]any{
		"date": "2025-09-28", "timeSlot": "18u30-19u30", "available": false,
	})
	if status != http.StatusOK {
		t.Fatalf("set availability: %d", status)
	}

	path := fmt.Sprintf("/api/availability?date=%s&timeSlot=%s", "2025-09-28", "18u30-19u30")
	_, body := do(t, c, http.MethodGet, path, "", nil)
	for _, p := range body["players"].([]any) {
		if p == "Aaron" {
			t.Fatalf("Aaron opted out but is listed available")
		}
	}

	status, _ = do(t, c, http.MethodPost, "/api/availability", "Aaron", map[string]any{
		"player": "Ruben", "date": "2025-09-28", "timeSlot": "18u30-19u30", "available": false,
	})
	if status != http.StatusForbidden {
		t.Fatalf("editing another player must be forbidden: %d", status)
	}
}

func TestUnknownPlayerHeaderRejected(t *testing.T) {
	c := testClient(t)
	if status, _ := do(t, c, http.MethodGet, "/api/schedule", "Nobody", nil); status != http.StatusUnauthorized {
		t.Fatalf("unknown player name must 401")
	}
	// No header at all stays a guest and may read public data.
	if status, _ := do(t, c, http.MethodGet, "/api/schedule", "", nil); status != http.StatusOK {
		t.Fatalf("guest read must 200")
	}
}

func TestUnknownRoute(t *testing.T) {
	c := testClient(t)
	if status, _ := do(t, c, http.MethodGet, "/api/nope", "", nil); status != http.StatusNotFound {
		t.Fatalf("unknown route must 404")
	}
}
