package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"smart-resume-analyzer/internal/config"
	"smart-resume-analyzer/internal/constants"
	"smart-resume-analyzer/internal/tracing"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound key 不存在
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("smart-resume-analyzer/storage/redis")

// 按 key 前缀的 span 采样率，未命中时使用 defaultRedisSampleRate
var redisKeySamplingRates = map[string]float64{
	constants.AppPrefix + ":" + constants.AdminModulePrefix + ":": 0.2,
}

const defaultRedisSampleRate = 0.05

var (
	rnd      = rand.New(rand.NewSource(time.Now().UnixNano()))
	rndMutex sync.Mutex
)

func shouldSampleRedisOp(key string) bool {
	if key == "" {
		return false
	}
	for prefix, rate := range redisKeySamplingRates {
		if strings.HasPrefix(key, prefix) {
			return randFloat() < rate
		}
	}
	return randFloat() < defaultRedisSampleRate
}

func randFloat() float64 {
	rndMutex.Lock()
	defer rndMutex.Unlock()
	return rnd.Float64()
}

// keyPrefix 去掉最后一段（通常是 token 或 ID），避免把凭据写进 span
func keyPrefix(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return tracing.SafeRedisKey(key[:i+1])
	}
	return tracing.SafeRedisKey(key)
}

// Redis 封装 go-redis 客户端
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedis 创建Redis客户端并挂载 OpenTelemetry 钩子
func NewRedis(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,
	})

	r, err := NewRedisFromClient(client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}
	return r, nil
}

// NewRedisFromClient 包装已有客户端（测试中指向 miniredis）
func NewRedisFromClient(client *redis.Client, cfg *config.RedisConfig) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}
	return &Redis{Client: client, config: cfg}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

func (r *Redis) startSpan(ctx context.Context, op, key string) (context.Context, trace.Span) {
	if !shouldSampleRedisOp(key) {
		return ctx, nil
	}
	ctx, span := redisTracer.Start(ctx, "Redis."+op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.String("db.operation", strings.ToUpper(op)),
		attribute.String("db.redis.key_prefix", keyPrefix(key)),
	)
	return ctx, span
}

func finishSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	defer span.End()
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, redis.Nil):
		span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
		span.SetStatus(codes.Ok, "key not found")
	default:
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
	}
}

// Get 获取键的值，不存在时返回 ErrNotFound
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis客户端未初始化")
	}
	ctx, span := r.startSpan(ctx, "Get", key)
	val, err := r.Client.Get(ctx, key).Result()
	finishSpan(span, err)
	if err != nil {
		return "", err
	}
	return val, nil
}

// Set 设置键的值，expiration 为 0 表示不过期
func (r *Redis) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	ctx, span := r.startSpan(ctx, "Set", key)
	if span != nil && expiration > 0 {
		span.SetAttributes(attribute.Int64("db.redis.expiration_ms", expiration.Milliseconds()))
	}
	err := r.Client.Set(ctx, key, value, expiration).Err()
	finishSpan(span, err)
	return err
}

// Del 删除键，返回是否确实删除了
func (r *Redis) Del(ctx context.Context, key string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis客户端未初始化")
	}
	ctx, span := r.startSpan(ctx, "Del", key)
	n, err := r.Client.Del(ctx, key).Result()
	finishSpan(span, err)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
