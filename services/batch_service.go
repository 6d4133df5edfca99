package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Gwen-Z/personal-website-ai-sub002/config"
	"github.com/Gwen-Z/personal-website-ai-sub002/models"
)

const (
	// DefaultBatchLimit 单次批处理的默认条数，托管环境有执行时长限制，不宜太大
	DefaultBatchLimit = 3

	// FallbackModelName 兜底结果落库时的模型标识，与真实模型产出区分开
	FallbackModelName = "fallback"

	batchLockKey = "enrich:batch:lock"
	batchLockTTL = 10 * time.Minute
)

// BatchOptions 单次批处理的参数
type BatchOptions struct {
	Limit int
	// FallbackOnError 为true时，模型调用失败的记录用中性兜底结果落库，
	// 而不是记为失败——牺牲保真度换可用性。
	FallbackOnError bool
}

// BatchService 批处理编排器
//
// 每次Run选出尚未处理的原始记录，逐条调用模型提取+规则评分，
// 结果写入ai_processed_data和simple_records两张表。
// 单条失败只影响这一条，下一次Run会重新选中它（没有永久失败状态）。
type BatchService struct {
	db       *gorm.DB
	redis    *redis.Client
	enricher *EnrichmentService
	rubrics  *RubricStore
}

func NewBatchService(db *gorm.DB, redisClient *redis.Client, enricher *EnrichmentService, rubrics *RubricStore) *BatchService {
	return &BatchService{
		db:       db,
		redis:    redisClient,
		enricher: enricher,
		rubrics:  rubrics,
	}
}

// Run 执行一次批处理
//
// 配置缺失返回ErrMissingConfig，选取/建表失败返回批级错误；
// 单条记录的失败只体现在结果列表里，永远不会中断批次。
func (s *BatchService) Run(ctx context.Context, opts BatchOptions) (*models.BatchResponse, error) {
	if s.db == nil || s.enricher == nil || s.enricher.client == nil {
		return nil, ErrMissingConfig
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	// 配置了Redis时用短TTL锁避免两次触发并发处理同一批记录
	if s.redis != nil {
		lockToken := uuid.New().String()
		acquired, err := s.redis.SetNX(ctx, batchLockKey, lockToken, batchLockTTL).Result()
		if err != nil {
			config.Logger.Warnw("获取批处理锁失败，本次不加锁", "error", err)
		} else if !acquired {
			return nil, ErrBatchRunning
		} else {
			defer s.releaseBatchLock(lockToken)
		}
	}

	// 幂等建表
	if err := s.db.AutoMigrate(&models.ProcessedRecord{}); err != nil {
		return nil, fmt.Errorf("初始化处理结果表失败: %w", err)
	}

	// 反连接选出还没有处理结果的原始记录，新日期优先
	var entries []models.RawEntry
	err := s.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM ai_processed_data WHERE ai_processed_data.raw_entry_id = raw_entries.id)").
		Order("date DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("查询待处理记录失败: %w", err)
	}

	if len(entries) == 0 {
		return &models.BatchResponse{
			Success: true,
			Message: "没有需要处理的原始记录",
			Results: []models.BatchItemResult{},
		}, nil
	}

	rubric := s.rubrics.Current()

	response := &models.BatchResponse{
		Success: true,
		Results: make([]models.BatchItemResult, 0, len(entries)),
	}
	for _, entry := range entries {
		item := s.processEntry(ctx, entry, rubric, opts.FallbackOnError)
		if item.Status == models.BatchItemSuccess {
			response.Processed++
		} else {
			response.Failed++
		}
		response.Results = append(response.Results, item)
	}
	response.Message = fmt.Sprintf("处理完成：成功%d条，失败%d条", response.Processed, response.Failed)

	return response, nil
}

// releaseBatchLock 释放批处理锁
// 只释放自己持有的锁：运行时间超过TTL后锁可能已经属于别的批次。
func (s *BatchService) releaseBatchLock(token string) {
	ctx := context.Background()
	current, err := s.redis.Get(ctx, batchLockKey).Result()
	if err != nil || current != token {
		return
	}
	s.redis.Del(ctx, batchLockKey)
}

// processEntry 处理单条原始记录，任何失败只影响这一条
func (s *BatchService) processEntry(ctx context.Context, entry models.RawEntry, rubric models.Rubric, fallbackOnError bool) models.BatchItemResult {
	item := models.BatchItemResult{
		ID:   entry.ID,
		Date: entry.Date,
	}

	modelName := s.enricher.ModelName()
	aiResult, err := s.enricher.Enrich(ctx, entry, rubric)
	if err != nil {
		if !fallbackOnError {
			config.Logger.Errorw("AI提取失败",
				"rawEntryID", entry.ID,
				"date", entry.Date,
				"error", err,
			)
			item.Status = models.BatchItemError
			item.Error = err.Error()
			return item
		}
		config.Logger.Warnw("AI提取失败，使用中性兜底结果",
			"rawEntryID", entry.ID,
			"date", entry.Date,
			"error", err,
		)
		aiResult = FallbackAIResult()
		// 兜底结果不是模型产出，模型标识记为fallback
		modelName = FallbackModelName
	}

	// 心情维度始终以规则评分为准，模型自报的分数只作参考
	mood := ScoreMood(entry.Mood, rubric)

	if err := s.upsertProcessed(ctx, entry, mood, aiResult, modelName); err != nil {
		config.Logger.Errorw("写入处理结果失败", "rawEntryID", entry.ID, "error", err)
		item.Status = models.BatchItemError
		item.Error = fmt.Sprintf("写入处理结果失败: %v", err)
		return item
	}

	if err := s.upsertSimple(ctx, entry.Date, mood, aiResult); err != nil {
		config.Logger.Errorw("写入聚合记录失败", "rawEntryID", entry.ID, "date", entry.Date, "error", err)
		item.Status = models.BatchItemError
		item.Error = fmt.Sprintf("写入聚合记录失败: %v", err)
		return item
	}

	merged := *aiResult
	merged.MoodScore = mood.Score
	item.Status = models.BatchItemSuccess
	item.AIResult = &merged
	return item
}

// upsertProcessed 按raw_entry_id幂等写入处理结果，重复处理覆盖而不是新增
func (s *BatchService) upsertProcessed(ctx context.Context, entry models.RawEntry, mood MoodScore, ai *models.AIResult, modelName string) error {
	record := models.ProcessedRecord{
		RawEntryID:       entry.ID,
		Date:             entry.Date,
		MoodScore:        mood.Score,
		MoodEmoji:        mood.Emoji,
		MoodCategory:     mood.Category,
		MoodDescription:  ai.MoodDescription,
		LifeScore:        ai.LifeScore,
		StudyScore:       ai.StudyScore,
		WorkScore:        ai.WorkScore,
		InspirationScore: ai.InspirationScore,
		Summary:          ai.Summary,
		AIModel:          modelName,
		ProcessedAt:      time.Now(),
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "raw_entry_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"date", "mood_score", "mood_emoji", "mood_category", "mood_description",
			"life_score", "study_score", "work_score", "inspiration_score",
			"summary", "ai_model", "processed_at",
		}),
	}).Create(&record).Error
}

// upsertSimple 按日期更新聚合记录
// 文本字段"新值为空保留旧值"，重跑批处理不会清空已有数据。
func (s *BatchService) upsertSimple(ctx context.Context, date string, mood MoodScore, ai *models.AIResult) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.SimpleRecord
		err := tx.Where("date = ?", date).First(&existing).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			record := models.SimpleRecord{
				Date:                  date,
				MoodScore:             mood.Score,
				MoodEmoji:             mood.Emoji,
				MoodCategory:          mood.Category,
				MoodDescription:       ai.MoodDescription,
				LifeScore:             ai.LifeScore,
				StudyScore:            ai.StudyScore,
				WorkScore:             ai.WorkScore,
				InspirationScore:      ai.InspirationScore,
				Summary:               ai.Summary,
				InspirationTheme:      ai.InspirationTheme,
				InspirationProduct:    ai.InspirationProduct,
				InspirationDifficulty: ai.InspirationDifficulty,
				UpdatedAt:             time.Now(),
			}
			return tx.Create(&record).Error
		}

		existing.MoodScore = mood.Score
		existing.MoodEmoji = mood.Emoji
		existing.MoodCategory = mood.Category
		existing.MoodDescription = mergeText(ai.MoodDescription, existing.MoodDescription)
		existing.LifeScore = ai.LifeScore
		existing.StudyScore = ai.StudyScore
		existing.WorkScore = ai.WorkScore
		existing.InspirationScore = ai.InspirationScore
		existing.Summary = mergeText(ai.Summary, existing.Summary)
		existing.InspirationTheme = mergeText(ai.InspirationTheme, existing.InspirationTheme)
		existing.InspirationProduct = mergeText(ai.InspirationProduct, existing.InspirationProduct)
		existing.InspirationDifficulty = mergeText(ai.InspirationDifficulty, existing.InspirationDifficulty)
		existing.UpdatedAt = time.Now()
		return tx.Save(&existing).Error
	})
}

// mergeText 新值为空则保留旧值
func mergeText(newValue, oldValue string) string {
	if strings.TrimSpace(newValue) == "" {
		return oldValue
	}
	return newValue
}
