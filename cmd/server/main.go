package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admitgate/bot"
	"admitgate/impl/auth"
	"admitgate/impl/core"
	"admitgate/internal/approval"
	"admitgate/internal/checkin"
	"admitgate/internal/config"
	"admitgate/internal/credential"
	"admitgate/internal/database"
	"admitgate/internal/database/memdb"
	"admitgate/internal/http-server/api"
	"admitgate/internal/notify"
	"admitgate/internal/preapproval"
	"admitgate/internal/reentry"
	"admitgate/internal/registration"
	"admitgate/internal/roles"
	"admitgate/lib/logger"
	"admitgate/lib/sl"
)

// Roster is everything the services need from storage; both the mongo
// store and memdb satisfy it.
type Roster interface {
	registration.Repository
	approval.Repository
	checkin.Repository
	preapproval.Repository
	roles.Repository
}

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, *logPath)
	log.Info("starting admitgate", slog.String("config", *configPath), slog.String("env", conf.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roster, closeRoster := openRoster(ctx, conf, log)
	defer closeRoster()

	tgBot := setupBot(conf, log)
	notifier := setupNotifier(ctx, conf, tgBot, log)

	guard, closeGuard := setupGuard(ctx, conf, log)
	defer closeGuard()

	codec, err := setupCodec(conf)
	if err != nil {
		log.Error("credential codec", sl.Err(err))
		os.Exit(1)
	}

	resolver := registration.NewResolver(roster, notifier, log)

	handler := core.New(log)
	handler.SetAuthService(auth.New(conf.Auth.SessionSecret, roster, conf.Auth.RoleFromUser, log))
	handler.SetRegistrar(resolver)
	handler.SetCredentialIssuer(credential.NewIssuer(roster, codec, log))
	handler.SetApprovalService(approval.New(roster, resolver, notifier, log))
	handler.SetCheckInService(checkin.NewVerifier(roster, codec, guard, notifier, log))
	handler.SetPreApprovalService(preapproval.New(roster, log))
	handler.SetRoleService(roles.New(roster, log))

	if tgBot != nil {
		tgBot.SetReviewer(handler)
		go func() {
			if err := tgBot.Start(); err != nil {
				log.Error("telegram bot", sl.Err(err))
			}
		}()
		defer tgBot.Stop()
	}

	server := api.New(conf, log, handler)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", sl.Err(err))
		}
	}()

	if err = server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", sl.Err(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func openRoster(ctx context.Context, conf *config.Config, log *slog.Logger) (Roster, func()) {
	if !conf.Mongo.Enabled {
		log.Warn("mongo disabled; using in-memory roster")
		return memdb.New(), func() {}
	}
	mongo, err := database.NewMongoClient(ctx, conf)
	if err != nil {
		log.Error("mongo client", sl.Err(err))
		os.Exit(1)
	}
	if err = mongo.EnsureIndexes(ctx); err != nil {
		log.Error("mongo indexes", sl.Err(err))
		os.Exit(1)
	}
	log.With(
		slog.String("host", conf.Mongo.Host),
		slog.String("database", conf.Mongo.Database),
	).Info("mongo connected")
	return mongo, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			log.Error("mongo close", sl.Err(err))
		}
	}
}

func setupBot(conf *config.Config, log *slog.Logger) *bot.TgBot {
	if !conf.Telegram.Enabled {
		return nil
	}
	tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, log, bot.BotConfig{
		AdminIds: conf.Telegram.AdminIds,
		Topics:   conf.Telegram.Topics,
	})
	if err != nil {
		log.Error("telegram bot", sl.Err(err))
		return nil
	}
	return tgBot
}

func setupNotifier(ctx context.Context, conf *config.Config, tgBot *bot.TgBot, log *slog.Logger) notify.Notifier {
	var notifiers notify.Multi
	if conf.Amqp.Enabled {
		publisher := notify.NewPublisher(conf.Amqp.URL, conf.Amqp.Queue, 0, log)
		go publisher.Run(ctx)
		notifiers = append(notifiers, publisher)
	}
	if tgBot != nil {
		notifiers = append(notifiers, tgBot)
	}
	if len(notifiers) == 0 {
		return notify.Nop{}
	}
	return notifiers
}

func setupGuard(ctx context.Context, conf *config.Config, log *slog.Logger) (reentry.Guard, func()) {
	if !conf.Reentry.Enabled {
		return reentry.AllowAll{}, func() {}
	}
	window, err := reentry.NewWindow(ctx, conf.Reentry, log)
	if err != nil {
		log.Error("re-entry guard", sl.Err(err))
		os.Exit(1)
	}
	return window, func() { _ = window.Close() }
}

func setupCodec(conf *config.Config) (credential.Codec, error) {
	if conf.Credential.Secret == "" {
		return credential.Auto{Primary: credential.Plain{}, AcceptPlain: true}, nil
	}
	signed, err := credential.NewSigned(conf.Credential.KeyId, []byte(conf.Credential.Secret), conf.Credential.TTL)
	if err != nil {
		return nil, err
	}
	return credential.Auto{Primary: signed, Signed: signed, AcceptPlain: conf.Credential.AcceptPlain}, nil
}
