package parser

import (
	"fmt"
	"time"

	"smart-resume-analyzer/internal/config"
	"smart-resume-analyzer/internal/logger"

	"github.com/sony/gobreaker/v2"
)

// NewExtractionBreaker 为外部提取服务创建熔断器，未启用时返回 nil
func NewExtractionBreaker[T any](name string, cfg config.BreakerConfig) *gobreaker.CircuitBreaker[T] {
	if !cfg.Enabled {
		return nil
	}

	log := logger.Component("breaker")
	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("extract-%s", name),
		MaxRequests: cfg.MaxRequests,
		Interval:    config.GetDuration(cfg.Interval, 60*time.Second),
		Timeout:     config.GetDuration(cfg.Timeout, 30*time.Second),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("熔断器状态变化")
		},
	}
	return gobreaker.NewCircuitBreaker[T](settings)
}
