package health

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Status of a single dependency check
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Check is the result of probing one dependency
type Check struct {
	Status    Status `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Checker probes the service's hard dependencies
type Checker struct {
	db        *gorm.DB
	redis     *redis.Client
	startTime time.Time
}

// NewChecker creates a health checker; redis may be nil when fan-out is disabled
func NewChecker(db *gorm.DB, rdb *redis.Client) *Checker {
	return &Checker{
		db:        db,
		redis:     rdb,
		startTime: time.Now(),
	}
}

// Handler returns a gin handler reporting overall and per-dependency health
func (h *Checker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks := gin.H{
			"database": h.checkDatabase(ctx),
		}
		if h.redis != nil {
			checks["redis"] = h.checkRedis(ctx)
		}

		status := "ok"
		code := 200
		for _, v := range checks {
			if check, ok := v.(Check); ok && check.Status == StatusDown {
				status = "degraded"
				code = 503
			}
		}

		c.JSON(code, gin.H{
			"status":         status,
			"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
			"time":           time.Now().Format(time.RFC3339),
			"checks":         checks,
		})
	}
}

func (h *Checker) checkDatabase(ctx context.Context) Check {
	start := time.Now()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}

	check := Check{Status: StatusUp, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = StatusDown
		check.Error = err.Error()
	}
	return check
}

func (h *Checker) checkRedis(ctx context.Context) Check {
	start := time.Now()
	err := h.redis.Ping(ctx).Err()

	check := Check{Status: StatusUp, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = StatusDown
		check.Error = err.Error()
	}
	return check
}
