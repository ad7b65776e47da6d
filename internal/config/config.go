package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置（可选的摄入通道）
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
	Topic    string
}

// Config 监护引擎配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	HTTP struct {
		Addr string
	}

	// 外部分类器配置（不可用时回退到规则分类器）
	Classifier struct {
		Enabled    bool
		BaseURL    string
		TimeoutMS  int
		RetryCount int
	}

	// 引擎调度与窗口配置
	Engine struct {
		EvalInterval      int // 每个患者的评估周期（秒），默认 5秒
		HistoryWindowSize int // 历史窗口容量，默认 30
		TrendWindow       int // 趋势分析取最近 N 条，默认 10
		HistoryMaxLimit   int // 历史查询单次最大条数，默认 200
	}

	// Redis 镜像缓存配置（仪表盘读取用，内存缓存仍是权威数据源）
	Cache struct {
		KeyPrefix        string // 如 "caresync:patient:"
		RealtimeSuffix   string // 如 ":realtime"
		AssessmentSuffix string // 如 ":assessment"
		TTL              int    // 镜像 TTL（秒），默认 30秒
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "caresync")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Enabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "caresync-engine")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 1))
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "caresync/vitals/ingest")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8085")

	cfg.Classifier.Enabled = getEnvBool("CLASSIFIER_ENABLED", false)
	cfg.Classifier.BaseURL = getEnv("CLASSIFIER_BASE_URL", "http://localhost:8500")
	cfg.Classifier.TimeoutMS = getEnvInt("CLASSIFIER_TIMEOUT_MS", 2000)
	cfg.Classifier.RetryCount = getEnvInt("CLASSIFIER_RETRY_COUNT", 1)

	cfg.Engine.EvalInterval = getEnvInt("ENGINE_EVAL_INTERVAL", 5) // 5秒评估一次
	cfg.Engine.HistoryWindowSize = getEnvInt("ENGINE_HISTORY_WINDOW_SIZE", 30)
	cfg.Engine.TrendWindow = getEnvInt("ENGINE_TREND_WINDOW", 10)
	cfg.Engine.HistoryMaxLimit = getEnvInt("ENGINE_HISTORY_MAX_LIMIT", 200)

	cfg.Cache.KeyPrefix = getEnv("CACHE_KEY_PREFIX", "caresync:patient:")
	cfg.Cache.RealtimeSuffix = ":realtime"
	cfg.Cache.AssessmentSuffix = ":assessment"
	cfg.Cache.TTL = getEnvInt("CACHE_TTL", 30) // 30秒

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
