package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	accountrepo "school-management/backend/internal/account/repository"
	alertrepo "school-management/backend/internal/alert/repository"
	"school-management/backend/internal/audit"
	auditrepo "school-management/backend/internal/audit/repository"
	"school-management/backend/internal/auth"
	"school-management/backend/internal/config"
	"school-management/backend/internal/db"
	devicerepo "school-management/backend/internal/device/repository"
	"school-management/backend/internal/geofence"
	"school-management/backend/internal/health"
	"school-management/backend/internal/notify"
	"school-management/backend/internal/otp"
	otprepo "school-management/backend/internal/otp/repository"
	"school-management/backend/internal/ratelimit"
	"school-management/backend/internal/security"
	"school-management/backend/internal/server"
	"school-management/backend/internal/server/interceptors"
	"school-management/backend/internal/session"
	sessionrepo "school-management/backend/internal/session/repository"
	"school-management/backend/internal/telemetry"
	telemetryotel "school-management/backend/internal/telemetry/otel"
	tenantrepo "school-management/backend/internal/tenant/repository"
)

const meterName = "school-management/backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	signer, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt keys: %v", err)
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer conn.Close()
	tx := db.NewTxRunner(conn)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTelEndpoint, cfg.OTelServiceName, cfg.OTelInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()
	metrics, err := telemetry.NewMetrics(providers.MeterProvider.Meter(meterName))
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	tenants := tenantrepo.NewPostgresRepository(conn)
	accounts := accountrepo.NewPostgresRepository(conn)
	alerts := alertrepo.NewPostgresRepository(conn)
	devices := devicerepo.NewPostgresRepository(conn)
	sessions := session.NewRegistry(sessionrepo.NewPostgresRepository(conn), tx)

	var dispatcher notify.Dispatcher = notify.NoopDispatcher{}
	if kd := notify.NewKafkaDispatcher(cfg.KafkaBrokersList(), cfg.NotifyKafkaTopic); kd != nil {
		dispatcher = kd
		defer kd.Close()
	} else {
		log.Println("server: KAFKA_BROKERS not set, security alerts are stored but not pushed")
	}
	var mailer notify.Mailer = notify.NoopMailer{}
	if m := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom); m != nil {
		mailer = m
	} else {
		log.Println("server: SMTP_HOST not set, reset codes will not be delivered")
	}

	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		limiter = ratelimit.New(rdb, ratelimit.Config{
			LoginMaxAttempts:  cfg.LoginMaxAttempts,
			LoginWindow:       cfg.LoginWindow(),
			ForgotMaxRequests: cfg.ForgotMaxRequests,
			ForgotWindow:      cfg.ForgotWindow(),
		})
	}

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), interceptors.ClientIP)
	authSvc := auth.NewService(auth.Deps{
		Tenants:  tenants,
		Accounts: accounts,
		Sessions: sessions,
		Guard:    geofence.NewGuard(alerts, accounts, dispatcher),
		Recovery: otp.NewService(otprepo.NewPostgresRepository(conn), tx, accounts, sessions, mailer, otp.Config{
			Length:      cfg.OTPLength,
			TTL:         cfg.OTPTTL(),
			Cooldown:    cfg.OTPCooldown(),
			MaxAttempts: cfg.OTPMaxAttempts,
		}),
		DeviceTokens:      devices,
		Tokens:            tokens,
		Hasher:            security.NewHasher(cfg.BcryptCost),
		Limiter:           limiter,
		Audit:             auditLogger,
		Emitter:           telemetryotel.NewEventEmitter(providers.LoggerProvider),
		Metrics:           metrics,
		PasswordMinLength: cfg.PasswordMinLength,
	})

	checker := health.NewChecker(conn)
	go checker.Run(ctx, 15*time.Second)

	app := server.NewHTTPApp(server.HTTPDeps{
		Auth:              authSvc,
		Tokens:            tokens,
		Sessions:          sessions,
		Alerts:            alerts,
		Audit:             auditLogger,
		Metrics:           metrics,
		Health:            checker,
		RequestTimeout:    cfg.RequestTimeout(),
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	grpcServer := server.NewGRPCServer()
	server.RegisterServices(grpcServer, checker, !cfg.IsProduction())

	go func() {
		log.Printf("gRPC health server listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	grpcServer.GracefulStop()

	// let in-flight telemetry emits and queued notifications finish before providers and writers close
	time.Sleep(shutdownDrain())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Printf("otel shutdown: %v", err)
	}
	log.Println("server stopped")
}

func shutdownDrain() time.Duration {
	return max(telemetry.ShutdownDrainDuration, notify.ShutdownDrainDuration)
}
