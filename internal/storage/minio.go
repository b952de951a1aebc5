package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"smart-resume-analyzer/internal/config"
	"smart-resume-analyzer/internal/logger"
	"smart-resume-analyzer/internal/tracing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var minioTracer = otel.Tracer("smart-resume-analyzer/storage/minio")

// ResumeObjectStore 保存上传的原始简历
type ResumeObjectStore interface {
	PutResume(ctx context.Context, key string, data []byte, contentType string) error
}

var _ ResumeObjectStore = (*MinIO)(nil)

// MinIO 原始简历的对象存储
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	bucket string
	log    zerolog.Logger
}

// NewMinIO 创建MinIO客户端，确保存储桶存在并按配置设置过期规则
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("MinIO bucketName 未配置")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client: client,
		cfg:    cfg,
		bucket: cfg.BucketName,
		log:    logger.Component("minio"),
	}

	if err := m.ensureBucketExists(ctx, m.bucket, cfg.Location); err != nil {
		return nil, err
	}

	if cfg.OriginalFileExpireDays > 0 {
		// 过期规则设置失败不影响上传
		if err := m.setupBucketLifecycle(ctx, m.bucket, "expire-resumes", cfg.OriginalFileExpireDays); err != nil {
			m.log.Warn().Err(err).Str("bucket", m.bucket).Msg("设置生命周期规则失败")
		}
	}

	m.log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", m.bucket).Msg("MinIO客户端初始化成功")
	return m, nil
}

func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.log.Info().Str("bucket", bucketName).Msg("存储桶已创建")
	return nil
}

func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, lc)
}

// PutResume 上传原始简历
func (m *MinIO) PutResume(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, span := minioTracer.Start(ctx, "MinIO.PutResume",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("object_store.bucket", m.bucket),
			attribute.String("object_store.key", tracing.SafeFilename(key)),
			attribute.Int("object_store.size", len(data)),
		))
	defer span.End()

	start := time.Now()
	info, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return fmt.Errorf("上传对象 %s/%s 失败: %w", m.bucket, key, err)
	}

	m.log.Debug().
		Str("key", key).
		Str("etag", info.ETag).
		Int64("size", info.Size).
		Dur("duration", time.Since(start)).
		Msg("原始简历已上传")
	return nil
}
