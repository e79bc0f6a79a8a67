package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	gmw "github.com/Laisky/gin-middlewares/v6"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/common/graceful"
	"github.com/polyrelay/polyrelay/common/logger"
	"github.com/polyrelay/polyrelay/middleware"
	"github.com/polyrelay/polyrelay/relay/controller"
	"github.com/polyrelay/polyrelay/relay/invoker"
	"github.com/polyrelay/polyrelay/router"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.SetupLogger()

	switch {
	case config.GinMode != "":
		gin.SetMode(config.GinMode)
	case !config.DebugEnabled:
		gin.SetMode(gin.ReleaseMode)
	}

	bedrockInvoker, err := invoker.NewBedrock(ctx)
	if err != nil {
		logger.Logger.Fatal("initialize bedrock client", zap.Error(err))
	}
	openaiInvoker, err := invoker.NewOpenAI()
	if err != nil {
		// Bedrock-only deployments are fine; openai-routed requests will
		// fail upstream with an authentication error.
		logger.Logger.Warn("native OpenAI backend not configured", zap.Error(err))
		openaiInvoker = invoker.NewOpenAIWithEndpoint(config.OpenAIBaseURL, "")
	}
	relay := controller.NewRelay(bedrockInvoker, openaiInvoker)

	logLevel := glog.LevelInfo
	if config.DebugEnabled {
		logLevel = glog.LevelDebug
	}

	server := gin.New()
	server.RedirectTrailingSlash = false
	server.Use(
		middleware.RelayPanicRecover(),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(logLevel.String()),
			gmw.WithLogger(logger.Logger.Named("gin")),
		),
	)
	// This will cause SSE not to work!!!
	//server.Use(gzip.Gzip(gzip.DefaultCompression))
	server.Use(middleware.RequestId())
	server.Use(middleware.TrackInFlight())
	server.Use(middleware.CORS())

	router.SetRouter(server, relay)

	srv := &http.Server{Addr: ":" + config.ServerPort, Handler: server}
	go func() {
		logger.Logger.Info("server started", zap.String("address", "http://localhost:"+config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()
	logger.Logger.Info("shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(config.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("http server shutdown", zap.Error(err))
	}
	if err := graceful.Drain(shutdownCtx); err != nil {
		logger.Logger.Error("drain background tasks", zap.Error(err))
	}
	logger.Logger.Info("shutdown complete")
}
