package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GUARDIAN_VIEW_TTL_SECONDS", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.Views.CacheTTL)
	assert.Equal(t, 10, cfg.Views.PastEventsLimit)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "school.events.published", cfg.Kafka.Topics.EventPublished)
	assert.True(t, cfg.Migrations.AutoMigrate)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GUARDIAN_VIEW_TTL_SECONDS", "45")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("HTTP_READ_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("ADMIN_IDS", "admin-1,admin-2")

	cfg := Load()

	assert.Equal(t, 45*time.Second, cfg.Views.CacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, []string{"admin-1", "admin-2"}, cfg.Auth.AdminIDs)
}
