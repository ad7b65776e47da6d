package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "postgres", cfg.Database.Password)
	assert.Equal(t, "caresync", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "", cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "caresync/vitals/ingest", cfg.MQTT.Topic)

	assert.Equal(t, ":8085", cfg.HTTP.Addr)

	assert.False(t, cfg.Classifier.Enabled)
	assert.Equal(t, "http://localhost:8500", cfg.Classifier.BaseURL)
	assert.Equal(t, 2000, cfg.Classifier.TimeoutMS)
	assert.Equal(t, 1, cfg.Classifier.RetryCount)

	assert.Equal(t, 5, cfg.Engine.EvalInterval)
	assert.Equal(t, 30, cfg.Engine.HistoryWindowSize)
	assert.Equal(t, 10, cfg.Engine.TrendWindow)
	assert.Equal(t, 200, cfg.Engine.HistoryMaxLimit)

	assert.Equal(t, "caresync:patient:", cfg.Cache.KeyPrefix)
	assert.Equal(t, ":realtime", cfg.Cache.RealtimeSuffix)
	assert.Equal(t, ":assessment", cfg.Cache.AssessmentSuffix)
	assert.Equal(t, 30, cfg.Cache.TTL)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// 设置环境变量
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_NAME", "test-db")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("MQTT_ENABLED", "true")
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("CLASSIFIER_ENABLED", "true")
	os.Setenv("CLASSIFIER_BASE_URL", "http://model-svc:8500")
	os.Setenv("ENGINE_EVAL_INTERVAL", "2")
	os.Setenv("ENGINE_HISTORY_WINDOW_SIZE", "60")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证环境变量覆盖
	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, "test-db", cfg.Database.Database)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.True(t, cfg.Classifier.Enabled)
	assert.Equal(t, "http://model-svc:8500", cfg.Classifier.BaseURL)
	assert.Equal(t, 2, cfg.Engine.EvalInterval)
	assert.Equal(t, 60, cfg.Engine.HistoryWindowSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	// 清理环境变量
	os.Clearenv()
}

func TestGetDSN(t *testing.T) {
	dbCfg := &DatabaseConfig{
		Host:     "db-host",
		Port:     5433,
		User:     "engine",
		Password: "secret",
		Database: "caresync",
		SSLMode:  "require",
	}

	dsn := dbCfg.GetDSN()
	assert.Equal(t, "host=db-host port=5433 user=engine password=secret dbname=caresync sslmode=require", dsn)
}

func TestGetEnvInt_InvalidValue(t *testing.T) {
	os.Clearenv()
	os.Setenv("ENGINE_EVAL_INTERVAL", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	// 非法值回退到默认值
	assert.Equal(t, 5, cfg.Engine.EvalInterval)

	os.Clearenv()
}
