package storage

import (
	"context"
	"fmt"
	"strings"

	"smart-resume-analyzer/internal/config"
	"smart-resume-analyzer/internal/logger"
)

// Storage 存储管理器，聚合所有存储相关依赖。任一组件初始化失败只记录警告，对应功能降级。
type Storage struct {
	MySQL    *MySQL
	Redis    *Redis
	MinIO    *MinIO
	RabbitMQ *RabbitMQ

	// Objects 原始简历存储，MinIO 不可用时回退到本地目录
	Objects ResumeObjectStore
	// Analyses user_data 仓库，MySQL 不可用时为 nil
	Analyses *AnalysisRepository
}

// NewStorage 创建存储管理器
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	log := logger.Component("storage")
	s := &Storage{}
	var err error
	var initErrors []string

	if cfg.MySQL.Host != "" {
		s.MySQL, err = NewMySQL(&cfg.MySQL)
		if err != nil {
			log.Warn().Err(err).Msg("初始化MySQL失败，分析结果将不会落库")
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		}
	}

	if cfg.Redis.Address != "" {
		s.Redis, err = NewRedis(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("初始化Redis失败")
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	}

	if cfg.RabbitMQ.URL != "" {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err == nil {
			err = s.RabbitMQ.SetupAnalysisTopology()
		}
		if err != nil {
			log.Warn().Err(err).Msg("初始化RabbitMQ失败，分析事件不会发布")
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
			if s.RabbitMQ != nil {
				s.RabbitMQ.Close()
				s.RabbitMQ = nil
			}
		}
	}

	if err := s.initObjects(ctx, cfg); err != nil {
		initErrors = append(initErrors, fmt.Sprintf("Objects: %v", err))
	}

	if s.MySQL != nil {
		exchange := ""
		if s.RabbitMQ != nil {
			exchange = cfg.RabbitMQ.AnalysisExchange
		}
		s.Analyses = NewAnalysisRepository(s.MySQL.DB(), exchange, cfg.RabbitMQ.AnalysisRoutingKey)
	}

	if len(initErrors) > 0 {
		log.Warn().Str("errors", strings.Join(initErrors, "; ")).Msg("部分存储组件初始化失败")
	}
	return s, nil
}

func (s *Storage) initObjects(ctx context.Context, cfg *config.Config) error {
	log := logger.Component("storage")
	var minioErr error
	if cfg.Upload.Backend == "minio" {
		s.MinIO, minioErr = NewMinIO(ctx, &cfg.MinIO)
		if minioErr == nil {
			s.Objects = s.MinIO
			return nil
		}
		log.Warn().Err(minioErr).Msg("初始化MinIO失败，回退到本地目录")
	}

	if cfg.Upload.LocalDir == "" {
		return minioErr
	}
	local, err := NewLocalStore(cfg.Upload.LocalDir)
	if err != nil {
		return err
	}
	s.Objects = local
	return minioErr
}

// Close 关闭所有连接
func (s *Storage) Close() {
	log := logger.Component("storage")
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			log.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
