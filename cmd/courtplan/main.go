package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bdevroede/courtplan/internal/api"
	"github.com/bdevroede/courtplan/internal/challenge"
	appcfg "github.com/bdevroede/courtplan/internal/config"
	"github.com/bdevroede/courtplan/internal/identity"
	"github.com/bdevroede/courtplan/internal/msgcat"
	"github.com/bdevroede/courtplan/internal/notify"
	"github.com/bdevroede/courtplan/internal/obslog"
	"github.com/bdevroede/courtplan/internal/push"
	"github.com/bdevroede/courtplan/internal/reminder"
	"github.com/bdevroede/courtplan/internal/results"
	"github.com/bdevroede/courtplan/internal/roster"
	"github.com/bdevroede/courtplan/internal/schedule"
	"github.com/bdevroede/courtplan/internal/store"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	players, err := loadRoster(cfg)
	if err != nil {
		log.Fatalf("roster error: %v", err)
	}

	var st store.Store
	if cfg.RedisURL != "" {
		rs, err := store.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis store error: %v", err)
		}
		st = rs
	} else {
		logger.Warn("no REDIS_URL set, state lives in memory only")
		st = store.NewMemoryStore()
	}

	cat, err := msgcat.New(cfg.MessageDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	grid := schedule.NewGrid(cfg.SeasonStart, cfg.SeasonWeeks, schedule.DefaultSlots, cfg.Courts)
	tie := schedule.RandomTieBreak(rand.New(rand.NewSource(time.Now().UnixNano())))
	sched := schedule.NewService(players, grid, tie, st)

	feed := push.NewFeed()
	center := notify.NewCenter(cat, st)
	center.AddSink(feed)

	chal := challenge.NewManager(players, sched, st)
	chal.AttachNotifier(center)

	if cfg.DatabaseURL != "" {
		repo, err := results.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("results repository error: %v", err)
		}
		defer repo.Close()
		chal.AttachArchive(repo)
	} else {
		logger.Warn("no DATABASE_URL set, results are not archived")
	}

	rem := reminder.NewScheduler(sched, center, st)
	ident := identity.NewProvider(players, cfg.AdminPlayer)

	restore(st, sched, chal, center, rem)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	go rem.Run(rootCtx)
	go subscribeChanges(rootCtx, st, sched, chal, center, rem, feed)

	srv := api.NewServer(ident, sched, chal, center, cat)
	go func() {
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			logger.Error("api_serve_error", zap.Error(err))
		}
	}()
	go func() {
		if err := feed.ListenAndServe(cfg.PushAddr); err != nil {
			logger.Error("push_serve_error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting_down")

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown()
	_ = feed.Shutdown(shutdownCtx)
	_ = st.Close()
}

func loadRoster(cfg *appcfg.AppConfig) (*roster.Roster, error) {
	if cfg.RosterFile != "" {
		return roster.LoadFile(cfg.RosterFile)
	}
	return roster.Load()
}

// restore loads every collection from the store into its manager.
func restore(st store.Store, sched *schedule.Service, chal *challenge.Manager, center *notify.Center, rem *reminder.Scheduler) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger := obslog.L()

	rs, err := st.LoadReservations(ctx)
	if err != nil {
		logger.Error("restore_reservations_error", zap.Error(err))
	}
	avail, err := st.LoadAvailability(ctx)
	if err != nil {
		logger.Error("restore_availability_error", zap.Error(err))
	}
	sched.Restore(rs, avail)

	chs, err := st.LoadChallenges(ctx)
	if err != nil {
		logger.Error("restore_challenges_error", zap.Error(err))
	}
	chal.Restore(chs)

	ns, err := st.LoadNotifications(ctx)
	if err != nil {
		logger.Error("restore_notifications_error", zap.Error(err))
	}
	center.Restore(ns)

	keys, err := st.LoadRemindersSent(ctx)
	if err != nil {
		logger.Error("restore_reminders_error", zap.Error(err))
	}
	rem.Restore(keys)

	logger.Info("state_restored",
		zap.Int("reservations", len(rs)),
		zap.Int("challenges", len(chs)),
		zap.Int("notifications", len(ns)),
	)
}

// subscribeChanges adopts collections rewritten by peer instances and tells
// connected clients to refresh.
func subscribeChanges(ctx context.Context, st store.Store, sched *schedule.Service, chal *challenge.Manager, center *notify.Center, rem *reminder.Scheduler, feed *push.Feed) {
	logger := obslog.L()
	err := st.Subscribe(ctx, func(collection string) {
		loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		switch collection {
		case store.ColReservations:
			rs, err := st.LoadReservations(loadCtx)
			if err != nil {
				logger.Error("adopt_reservations_error", zap.Error(err))
				return
			}
			sched.AdoptReservations(rs)
		case store.ColAvailability:
			a, err := st.LoadAvailability(loadCtx)
			if err != nil {
				logger.Error("adopt_availability_error", zap.Error(err))
				return
			}
			sched.AdoptAvailability(a)
		case store.ColChallenges:
			chs, err := st.LoadChallenges(loadCtx)
			if err != nil {
				logger.Error("adopt_challenges_error", zap.Error(err))
				return
			}
			chal.Adopt(chs)
		case store.ColNotifications:
			ns, err := st.LoadNotifications(loadCtx)
			if err != nil {
				logger.Error("adopt_notifications_error", zap.Error(err))
				return
			}
			center.Adopt(ns)
		case store.ColReminders:
			keys, err := st.LoadRemindersSent(loadCtx)
			if err != nil {
				logger.Error("adopt_reminders_error", zap.Error(err))
				return
			}
			rem.Adopt(keys)
		default:
			return
		}
		logger.Info("peer_change_adopted", zap.String("collection", collection))
		feed.BroadcastChange(collection)
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("store_subscribe_error", zap.Error(err))
	}
}
