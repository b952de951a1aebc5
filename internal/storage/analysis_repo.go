package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"smart-resume-analyzer/internal/constants"
	"smart-resume-analyzer/internal/logger"
	"smart-resume-analyzer/internal/storage/models"
	"smart-resume-analyzer/internal/tracing"
	"smart-resume-analyzer/internal/types"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// ErrInvalidColumn 统计只允许分类列
var ErrInvalidColumn = errors.New("不支持按该列统计")

var countableColumns = map[string]struct{}{
	models.ColumnPredictedField: {},
	models.ColumnUserLevel:      {},
}

// AnalysisRepository user_data 的读写；配置了交换机时同事务写入 outbox 事件
type AnalysisRepository struct {
	db         *gorm.DB
	exchange   string
	routingKey string
	tracer     trace.Tracer
	log        zerolog.Logger
}

// NewAnalysisRepository exchange 为空时不写 outbox
func NewAnalysisRepository(db *gorm.DB, exchange, routingKey string) *AnalysisRepository {
	return &AnalysisRepository{
		db:         db,
		exchange:   exchange,
		routingKey: routingKey,
		tracer:     otel.Tracer("smart-resume-analyzer/storage/analysis"),
		log:        logger.Component("analysis_repo"),
	}
}

// SaveAnalysis 追加一行，返回行 ID 与截断情况
func (r *AnalysisRepository) SaveAnalysis(ctx context.Context, result *types.AnalysisResult) (*types.SaveReport, error) {
	if result == nil {
		return nil, fmt.Errorf("分析结果不能为空")
	}
	ctx, span := r.tracer.Start(ctx, "AnalysisRepository.SaveAnalysis",
		trace.WithAttributes(attribute.Bool("analysis.outbox", r.exchange != "")))
	defer span.End()

	record, truncations := models.NewAnalysisRecord(result)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("写入 user_data 失败: %w", err)
		}
		if r.exchange == "" {
			return nil
		}
		msg, err := r.outboxMessage(record, result)
		if err != nil {
			return err
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("写入 outbox 失败: %w", err)
		}
		return nil
	})
	if err != nil {
		attrs := []attribute.KeyValue{
			attribute.String("analysis.predicted_field", record.PredictedField),
			attribute.Int("analysis.truncated_columns", len(truncations)),
		}
		// 行已插入但 outbox 失败时事务回滚，ID 仍可用于排查
		if record.ID != 0 {
			attrs = append(attrs, attribute.Int64("analysis.record_id", int64(record.ID)))
		}
		for _, t := range truncations {
			attrs = append(attrs, attribute.Int("analysis.truncated."+t.Column, t.Original))
		}
		tracing.RecordError(span, err, tracing.ErrorTypeDB, attrs...)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("analysis.record_id", int64(record.ID)))

	for _, t := range truncations {
		r.log.Warn().
			Uint64("record_id", record.ID).
			Str("column", t.Column).
			Int("original", t.Original).
			Int("stored", t.Stored).
			Msg("列值超长已截断")
	}
	return &types.SaveReport{RecordID: record.ID, Truncations: truncations}, nil
}

func (r *AnalysisRepository) outboxMessage(record *models.AnalysisRecord, result *types.AnalysisResult) (*models.OutboxMessage, error) {
	payload, err := json.Marshal(types.AnalysisEvent{
		RecordID:       record.ID,
		PredictedField: record.PredictedField,
		UserLevel:      record.UserLevel,
		ResumeScore:    result.ResumeScore,
		Timestamp:      record.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化分析事件失败: %w", err)
	}
	return &models.OutboxMessage{
		AggregateID:      strconv.FormatUint(record.ID, 10),
		EventType:        constants.EventAnalysisCompleted,
		Payload:          string(payload),
		TargetExchange:   r.exchange,
		TargetRoutingKey: r.routingKey,
		Status:           models.OutboxStatusPending,
	}, nil
}

// ListRecords 按 ID 升序返回原始行；limit <= 0 表示全部
func (r *AnalysisRepository) ListRecords(ctx context.Context, limit, offset int) ([]models.AnalysisRecord, error) {
	q := r.db.WithContext(ctx).Model(&models.AnalysisRecord{}).Order(models.ColumnID + " ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var records []models.AnalysisRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("查询 user_data 失败: %w", err)
	}
	return records, nil
}

// ListAnalyses 与 ListRecords 相同，但解析数值列和列表列
func (r *AnalysisRepository) ListAnalyses(ctx context.Context, limit, offset int) ([]types.StoredAnalysis, error) {
	records, err := r.ListRecords(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]types.StoredAnalysis, 0, len(records))
	for i := range records {
		out = append(out, records[i].ToStoredAnalysis())
	}
	return out, nil
}

// CountRecords 总行数
func (r *AnalysisRepository) CountRecords(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.AnalysisRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计 user_data 失败: %w", err)
	}
	return n, nil
}

// CountByColumn 饼图数据：按分类列分组计数，数量降序
func (r *AnalysisRepository) CountByColumn(ctx context.Context, column string) ([]types.LabelCount, error) {
	if _, ok := countableColumns[column]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidColumn, column)
	}
	var rows []types.LabelCount
	err := r.db.WithContext(ctx).
		Model(&models.AnalysisRecord{}).
		Select(column + " AS label, COUNT(*) AS count").
		Group(column).
		Order("count DESC, label ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("按 %s 统计失败: %w", column, err)
	}
	if rows == nil {
		rows = []types.LabelCount{}
	}
	return rows, nil
}
