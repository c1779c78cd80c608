package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"rollcall/internal/adapters/api"
	"rollcall/internal/adapters/discord"
	"rollcall/internal/adapters/scheduler"
	"rollcall/internal/application"
	"rollcall/internal/config"
	"rollcall/internal/infrastructure/database"
	"rollcall/internal/infrastructure/i18n"
	"rollcall/internal/infrastructure/memory"
	"rollcall/internal/infrastructure/metrics"
	"rollcall/internal/infrastructure/mongodb"
	"rollcall/internal/infrastructure/notify"
	"rollcall/internal/infrastructure/redis"
	"rollcall/internal/infrastructure/token"
	"rollcall/internal/platform/logger"
	rollotel "rollcall/internal/platform/otel"
	"rollcall/internal/platform/sl"
	"rollcall/internal/ports/output"
	"rollcall/pkg/tz"
)

const serviceName = "rollcall"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Erreur de configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Setup(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Erreur lors de l'initialisation du logger: %v\n", err)
		os.Exit(1)
	}

	if err := tz.Set(cfg.Timezone); err != nil {
		log.Error("invalid TIMEZONE", sl.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("rollcall stopped", sl.Err(err))
		os.Exit(1)
	}
}

// store is the persistence backend picked by STORE.
type store struct {
	tx             output.Transactor
	participations output.ParticipationRepository
	events         output.EventRepository
	health         api.HealthCheck
	close          func()
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		if cfg.Migrations {
			if err := database.RunMigrations(cfg.DatabaseURL, log); err != nil {
				return nil, err
			}
		}
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s := database.NewStore(pool)
		return &store{
			tx:             s,
			participations: s.Participations(),
			events:         s.Events(),
			health:         pool.Ping,
			close:          pool.Close,
		}, nil

	case config.StoreMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		s := mongodb.NewStore(client, cfg.MongoDB)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info("mongodb connected", sl.Module("mongodb"), slog.String("database", cfg.MongoDB))
		return &store{
			tx:             s,
			participations: s.Participations(),
			events:         s.Events(),
			health:         func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(ctx)
			},
		}, nil

	default:
		log.Warn("in-memory store, data is lost on restart")
		s := memory.NewStore()
		return &store{
			tx:             s,
			participations: s.Participations(),
			events:         s.Events(),
			close:          func() {},
		}, nil
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	shutdownTracing, err := rollotel.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn("otel shutdown", sl.Err(err))
		}
	}()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	codec, err := token.NewCodec(cfg.TokenSecret)
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	tr := i18n.NewTranslator(cfg.Locale, log)

	rdb, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var bot *discord.Bot
	notifiers := notify.Fanout{notify.NewLogNotifier(log)}

	if len(cfg.KafkaBrokers) > 0 {
		kafka := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafka.Close()
		notifiers = append(notifiers, kafka)
	}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, tr, cfg.Locale)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		notifiers = append(notifiers, tg)
	}

	// The session exists before the service so direct messages can be queued;
	// the interaction handler is attached once the service is built.
	if cfg.DiscordToken != "" {
		bot, err = discord.NewBot(cfg.DiscordToken, cfg.DiscordGuildID, log)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, notify.NewDiscordNotifier(bot.Session(), tr, cfg.Locale))
	}

	queue := notify.NewQueue(notifiers, cfg.NotifyBuffer, log, m)

	opts := []application.Option{
		application.WithLogger(log),
		application.WithMetrics(m),
		application.WithNotifier(queue),
		application.WithTicketGrace(cfg.TicketGrace),
		application.WithSweepBatch(cfg.SweepBatch),
		application.WithRetry(cfg.RetryMaxAttempts, cfg.RetryInitialBackoff),
		application.WithTracer(otel.Tracer(serviceName)),
	}
	var schedOpts []scheduler.Option
	if rdb != nil {
		opts = append(opts, application.WithScanThrottle(redis.NewScanThrottle(rdb, cfg.ScanThrottle)))
		schedOpts = append(schedOpts, scheduler.WithLease(redis.NewLease(rdb)))
	}
	svc := application.New(st.tx, st.participations, st.events, codec, opts...)

	if bot != nil {
		bot.SetHandler(discord.NewHandler(svc, tr, cfg.Locale, log))
	}

	routerOpts := []api.Option{
		api.WithTranslator(tr),
		api.WithMetricsHandler(promhttp.Handler()),
	}
	if st.health != nil {
		routerOpts = append(routerOpts, api.WithHealthCheck(st.health))
	}
	if rdb != nil {
		routerOpts = append(routerOpts, api.WithHealthCheck(rdb.Health))
	}
	server := api.NewServer(cfg.HTTPAddr, api.NewRouter(log, svc, routerOpts...), log)
	sweeper := scheduler.New(svc, cfg.SweepInterval, log, schedOpts...)

	// The queue outlives the producers so pending notifications are drained.
	queueCtx, stopQueue := context.WithCancel(context.WithoutCancel(ctx))
	queueDone := make(chan error, 1)
	go func() { queueDone <- queue.Run(queueCtx) }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error { return sweeper.Run(gctx) })
	if bot != nil {
		g.Go(func() error { return bot.Run(gctx) })
	}

	log.Info("rollcall started",
		slog.String("env", cfg.Env),
		slog.String("store", cfg.Store),
		slog.Bool("discord", bot != nil),
		slog.Bool("redis", rdb != nil),
	)

	err = g.Wait()
	stopQueue()
	<-queueDone
	return err
}
