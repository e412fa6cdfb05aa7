package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"fleetia-access/internal/alert"
	"fleetia-access/internal/audit"
	auditrepo "fleetia-access/internal/audit/repository"
	"fleetia-access/internal/blacklist"
	blacklistrepo "fleetia-access/internal/blacklist/repository"
	"fleetia-access/internal/config"
	"fleetia-access/internal/credential"
	"fleetia-access/internal/db"
	"fleetia-access/internal/ratelimit"
	ratelimitrepo "fleetia-access/internal/ratelimit/repository"
	"fleetia-access/internal/security"
	"fleetia-access/internal/server"
	"fleetia-access/internal/server/reqctx"
	"fleetia-access/internal/session"
	sessionrepo "fleetia-access/internal/session/repository"
	"fleetia-access/internal/token"
	"fleetia-access/internal/twofactor"
	"fleetia-access/internal/twofactor/mail"
	twofactorrepo "fleetia-access/internal/twofactor/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	emitter, err := alert.NewKafkaEmitter(cfg.AlertKafkaBrokersList(), cfg.AlertKafkaTopic)
	if err != nil {
		log.Fatalf("alert: %v", err)
	}
	if emitter != nil {
		defer emitter.Close()
	}

	recorder := audit.NewLogger(auditrepo.NewPostgresRepository(pool), reqctx.ExtractMeta, emitter)
	limiter := ratelimit.NewLimiter(ratelimitrepo.NewPostgresRepository(pool), recorder)

	provider, err := security.NewTokenProvider([]byte(cfg.TokenSigningSecret), cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	sessionRepo := sessionrepo.NewPostgresRepository(pool)
	sessions := session.NewManager(sessionRepo, cfg.SessionLifetime())
	tokens := token.NewService(provider, sessionRepo, recorder)
	registry := blacklist.NewRegistry(blacklistrepo.NewPostgresRepository(pool))

	var throttle ratelimit.CreationThrottle
	if cfg.RedisAddr != "" {
		throttle = ratelimit.NewRedisThrottle(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		throttle = ratelimit.NewMemoryThrottle()
	}

	cipher, err := security.NewCipher([]byte(cfg.EncryptionKey))
	if err != nil {
		log.Fatalf("cipher: %v", err)
	}
	credentials := credential.NewService(security.NewHasher(cfg.BcryptCost), cipher)

	sender := mail.NewAPIClient(cfg.MailAPIKey, cfg.MailAPIBaseURL, cfg.MailSender)
	twoFactor := twofactor.NewService(twofactorrepo.NewPostgresRepository(pool), sender, recorder)

	app := server.New(server.Deps{
		Limiter:     limiter,
		Tokens:      tokens,
		Sessions:    sessions,
		Blacklist:   registry,
		TwoFactor:   twoFactor,
		Credentials: credentials,
		Audit:       recorder,
		AuditRepo:   auditrepo.NewPostgresRepository(pool),
		Throttle:    throttle,
		Pinger:      pool,
	})

	go func() {
		log.Printf("http server listening on %s", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down http server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
	// Give in-flight alert emits a moment to drain.
	time.Sleep(alert.ShutdownDrainDuration)
	log.Println("http server stopped")
}
