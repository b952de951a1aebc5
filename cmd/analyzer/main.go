package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-resume-analyzer/internal/api/handler"
	"smart-resume-analyzer/internal/api/router"
	"smart-resume-analyzer/internal/auth"
	"smart-resume-analyzer/internal/catalog"
	"smart-resume-analyzer/internal/config"
	"smart-resume-analyzer/internal/logger"
	"smart-resume-analyzer/internal/metrics"
	"smart-resume-analyzer/internal/outbox"
	"smart-resume-analyzer/internal/parser"
	"smart-resume-analyzer/internal/processor"
	"smart-resume-analyzer/internal/storage"
	"smart-resume-analyzer/internal/tracing"
	"smart-resume-analyzer/pkg/ratelimit"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	logger.SetupHertz()
	logger.Info().Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}

	cat, err := catalog.Load(cfg.Analysis.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载分析目录失败")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()

	var relay *outbox.MessageRelay
	if storageManager.MySQL != nil && storageManager.RabbitMQ != nil {
		relay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ,
			outbox.WithPollingInterval(config.GetDuration(cfg.RabbitMQ.RelayPollingInterval, 5*time.Second)),
			outbox.WithBatchSize(cfg.RabbitMQ.RelayBatchSize),
		)
		relay.Start(ctx)
	} else {
		logger.Warn().Msg("MySQL 或 RabbitMQ 不可用，分析事件中继未启动")
	}

	extractor, err := parser.NewExtractor(ctx, cfg.Tika)
	if err != nil {
		logger.Fatal().Err(err).Msg("创建PDF提取器失败")
	}
	logger.Info().Str("type", cfg.Tika.Type).Msg("PDF提取器初始化成功")

	summarizer, err := processor.NewSentenceSummarizer(cfg.Analysis.SummarySentences)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化摘要器失败")
	}

	appMetrics := metrics.New()

	compOpts := []processor.ComponentOpt{
		processor.WithCatalog(cat),
		processor.WithExtractor(extractor),
		processor.WithParser(parser.NewResumeFieldParser(cat.Skills, cfg.Analysis.PhoneRegion)),
		processor.WithSummarizer(summarizer),
		processor.WithObjects(storageManager.Objects),
		processor.WithMetrics(appMetrics),
	}
	if storageManager.Analyses != nil {
		compOpts = append(compOpts, processor.WithStore(storageManager.Analyses))
	}
	analyzer, err := processor.NewAnalyzer(processor.NewComponents(compOpts...), &processor.Settings{},
		processor.WithDefaultCourseCount(cfg.Analysis.DefaultCourseCount),
		processor.WithObjectPrefix(cfg.Upload.ObjectPrefix),
		processor.WithRandomSeed(cfg.Analysis.RandomSeed),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化分析器失败")
	}
	defer analyzer.Close()

	resumeHandler := handler.NewResumeHandler(analyzer, cfg.MaxUploadBytes())

	// 管理接口依赖 MySQL 与 Redis
	var adminHandler *handler.AdminHandler
	var sessions auth.SessionStore
	var limiter *ratelimit.LimiterManager
	switch {
	case storageManager.Analyses == nil || storageManager.Redis == nil:
		logger.Warn().Msg("MySQL 或 Redis 不可用，管理接口未启用")
	case cfg.Admin.PasswordHash == "":
		logger.Warn().Msg("admin.password_hash 未配置，管理接口未启用")
	default:
		authenticator, err := auth.NewBcryptAuthenticator(cfg.Admin.Username, cfg.Admin.PasswordHash)
		if err != nil {
			logger.Fatal().Err(err).Msg("初始化管理员认证失败")
		}
		sessions = auth.NewRedisSessionStore(storageManager.Redis,
			config.GetDuration(cfg.Admin.SessionTTL, auth.DefaultSessionTTL))
		limiter = ratelimit.NewLimiterManager(cfg.Admin.LoginRatePerMinute, cfg.Admin.LoginBurst)
		adminHandler = handler.NewAdminHandler(authenticator, sessions, storageManager.Analyses, limiter, appMetrics)
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	serverOpts := []hertzconfig.Option{
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	}
	if cfg.Server.MaxRequestBody > 0 {
		serverOpts = append(serverOpts, server.WithMaxRequestBodySize(cfg.Server.MaxRequestBody))
	}
	h := server.New(serverOpts...)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		tracing.RecordHTTPStatus(trace.SpanFromContext(c), ctx.Response.StatusCode(), string(ctx.Path()))
		hlog.CtxInfof(c, "%s %s status=%d latency=%s",
			string(ctx.Method()), string(ctx.Path()), ctx.Response.StatusCode(), time.Since(start))
	})

	router.RegisterRoutes(h, resumeHandler, adminHandler, sessions)
	logger.Info().Msg("HTTP路由注册成功")

	metricsServer := metrics.StartServer(cfg.Metrics, appMetrics)

	go func() {
		logger.Info().Str("addr", cfg.Server.Address).Msg("HTTP 服务器启动")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP服务器关闭失败")
	}
	if relay != nil {
		relay.Stop()
	}
	if limiter != nil {
		limiter.Stop()
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("指标服务关闭失败")
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("链路追踪关闭失败")
	}
	cancel()
	logger.Info().Msg("优雅退出完成")
}
