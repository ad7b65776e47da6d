package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Balaji-1206/CareSync-sub000/internal/cache"
	"github.com/Balaji-1206/CareSync-sub000/internal/config"
	"github.com/Balaji-1206/CareSync-sub000/internal/evaluator"
	httpapi "github.com/Balaji-1206/CareSync-sub000/internal/http"
	"github.com/Balaji-1206/CareSync-sub000/internal/metrics"
	"github.com/Balaji-1206/CareSync-sub000/internal/mqtt"
	"github.com/Balaji-1206/CareSync-sub000/internal/repository"
	"github.com/Balaji-1206/CareSync-sub000/internal/scheduler"
	"github.com/Balaji-1206/CareSync-sub000/internal/service"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// EngineService 监护引擎服务
//
// 组装全部组件：数据库、Redis 镜像、评分流水线、患者调度器、
// HTTP API 以及可选的 MQTT 摄入通道。
type EngineService struct {
	config *config.Config
	logger *zap.Logger

	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqtt.Client

	scheduler *scheduler.PatientScheduler
	server    *service.Server
}

// NewEngineService 创建监护引擎服务
func NewEngineService(cfg *config.Config, logger *zap.Logger) (*EngineService, error) {
	// 1. 数据库连接
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	// 2. Redis 连接（镜像缓存，连接失败视为致命错误）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		db.Close()
		redisClient.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 3. 存储与缓存
	repo := repository.NewPostgresVitalReadingsRepository(db, logger)
	freshnessCache := cache.NewFreshnessCache(logger)
	mirror := cache.NewMirrorManager(cfg, cache.NewRedisKVStore(redisClient), logger)

	// 4. 指标与评分流水线
	m := metrics.New(prometheus.DefaultRegisterer)

	var ewsClassifier, anomalyClassifier evaluator.Classifier
	if cfg.Classifier.Enabled {
		timeout := time.Duration(cfg.Classifier.TimeoutMS) * time.Millisecond
		ewsClassifier = evaluator.NewExternalClassifier(
			cfg.Classifier.BaseURL, evaluator.ModelEWS, timeout, cfg.Classifier.RetryCount, logger)
		anomalyClassifier = evaluator.NewExternalClassifier(
			cfg.Classifier.BaseURL, evaluator.ModelAnomaly, timeout, cfg.Classifier.RetryCount, logger)
		logger.Info("External classifier enabled", zap.String("base_url", cfg.Classifier.BaseURL))
	}

	pipeline := evaluator.NewScoringPipeline(
		ewsClassifier,
		anomalyClassifier,
		evaluator.NewTrendAnalyzer(cfg.Engine.TrendWindow),
		m,
		logger,
	)

	// 5. 调度器与业务服务
	sched := scheduler.NewPatientScheduler(
		freshnessCache,
		pipeline,
		repo,
		mirror,
		m,
		time.Duration(cfg.Engine.EvalInterval)*time.Second,
		cfg.Engine.HistoryWindowSize,
		logger,
	)
	vitalsService := service.NewVitalsService(freshnessCache, sched, repo, mirror, cfg.Engine.HistoryMaxLimit, logger)

	// 6. HTTP 路由
	router := httpapi.NewRouter(logger)
	router.RegisterVitalsRoutes(httpapi.NewVitalsHandler(vitalsService, logger))
	router.RegisterOpsRoutes()

	svc := &EngineService{
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		scheduler:   sched,
		server:      service.NewServer(cfg.HTTP.Addr, router, logger),
	}

	// 7. 可选的 MQTT 摄入通道
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
		if err != nil {
			svc.closeConnections()
			return nil, fmt.Errorf("failed to create MQTT client: %w", err)
		}

		broker := mqtt.NewVitalsBroker(vitalsService, logger)
		if err := mqttClient.Subscribe(cfg.MQTT.Topic, cfg.MQTT.QoS, broker.HandleMessage); err != nil {
			mqttClient.Disconnect()
			svc.closeConnections()
			return nil, fmt.Errorf("failed to subscribe to vitals topic: %w", err)
		}
		svc.mqttClient = mqttClient
		logger.Info("MQTT ingestion enabled",
			zap.String("broker", cfg.MQTT.Broker),
			zap.String("topic", cfg.MQTT.Topic),
		)
	}

	return svc, nil
}

// Start 启动 HTTP 服务（阻塞直到服务关闭或出错）
func (s *EngineService) Start() error {
	return s.server.Start()
}

// Stop 优雅关闭：先停调度器（等待进行中的 tick 完成），再关 HTTP 与连接
func (s *EngineService) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down caresync-engine")

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	s.scheduler.StopAll()

	err := s.server.Stop(ctx)
	s.closeConnections()
	return err
}

func (s *EngineService) closeConnections() {
	if err := s.redisClient.Close(); err != nil {
		s.logger.Warn("Failed to close Redis connection", zap.Error(err))
	}
	if err := s.db.Close(); err != nil {
		s.logger.Warn("Failed to close database connection", zap.Error(err))
	}
}
