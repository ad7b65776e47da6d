package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Balaji-1206/CareSync-sub000/internal/config"
	"github.com/Balaji-1206/CareSync-sub000/internal/engine"
	"github.com/Balaji-1206/CareSync-sub000/internal/logger"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "caresync-engine")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 创建监护引擎服务
	eng, err := engine.NewEngineService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create engine service",
			zap.Error(err),
		)
	}

	// 4. 启动服务（在 goroutine 中）
	serviceErrChan := make(chan error, 1)
	go func() {
		if err := eng.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceErrChan <- err
		}
	}()

	// 5. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
	case err := <-serviceErrChan:
		log.Fatal("Service error",
			zap.Error(err),
		)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := eng.Stop(shutdownCtx); err != nil {
		log.Error("Shutdown finished with error", zap.Error(err))
	}

	log.Info("Engine service stopped")
}
