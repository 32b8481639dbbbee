package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/soscomida/soscomida/internal/config"
	"github.com/soscomida/soscomida/internal/infra/database"
	"github.com/soscomida/soscomida/internal/infra/repository"
	"github.com/soscomida/soscomida/internal/present/rest"
	authmw "github.com/soscomida/soscomida/internal/present/rest/middleware"
	"github.com/soscomida/soscomida/internal/service"
	"github.com/soscomida/soscomida/internal/usecase"
)

const serviceName = "soscomida"

func main() {
	conf, err := config.Load(config.Path())
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	setupLogger(conf.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("failed to flush traces", slog.String("error", err.Error()))
			}
		}()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = database.MigratePostgres(db)
	if err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb, err := database.NewRedis(ctx, conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
	if err != nil {
		slog.Error("failed to connect redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rdb.Close()

	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	store := repository.NewStore(db)
	requestRepo := repository.NewRequestRepository(db)
	delegationRepo := repository.NewDelegationRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	principalRepo := repository.NewPrincipalRepository(db)
	reportRepo := repository.NewReportRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatsRepository(db, mc)

	signalService := service.NewSignalService(rdb, conf.Server.EventChannel)
	dispatcher := service.NewDispatcher(
		service.NewAuditSink(auditRepo),
		signalService,
		service.NewImpactSink(statsRepo),
	)
	authService := service.NewAuthService(conf.Auth.JwtSecret, conf.Auth.Issuer, conf.Auth.PrincipalCacheTTL, principalRepo)

	handler := rest.NewHandler(
		usecase.NewRequestUsecase(store, requestRepo, dispatcher),
		usecase.NewDelegationUsecase(store, delegationRepo, principalRepo, statsRepo, dispatcher),
		usecase.NewCampaignUsecase(store, campaignRepo, dispatcher),
		usecase.NewReportUsecase(store, reportRepo, dispatcher),
		usecase.NewAuditUsecase(auditRepo),
		signalService,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(serviceName))
	}
	e.Use(authmw.NewAuthMiddleware(authService).IdentifyIdentity)

	handler.RegisterRoutes(e)

	go func() {
		slog.Info("server starting", slog.String("addr", conf.Server.ListenAddr))
		if err := e.Start(conf.Server.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", slog.String("error", err.Error()))
	}
}

func setupLogger(level string) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lv})))
}

func setupTraceProvider(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
