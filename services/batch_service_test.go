package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Gwen-Z/personal-website-ai-sub002/models"
)

func seedRawEntries(t *testing.T, db *gorm.DB, entries ...models.RawEntry) {
	t.Helper()
	for i := range entries {
		require.NoError(t, db.Create(&entries[i]).Error)
	}
}

func threeEntries() []models.RawEntry {
	return []models.RawEntry{
		{Date: "2025-06-01", Mood: "今天特别兴奋", Work: "完成联调"},
		{Date: "2025-06-02", Mood: "开心，但是有点压力", Life: "跑步"},
		{Date: "2025-06-03", Mood: "平静充实", Study: "看书"},
	}
}

func newTestBatchService(t *testing.T, db *gorm.DB, respond func(system, human string) (string, error)) *BatchService {
	t.Helper()
	enricher, _ := newFakeEnricher(respond)
	return NewBatchService(db, nil, enricher, newTestRubricStore(t))
}

func TestBatchRunProcessesAllUnprocessedEntries(t *testing.T) {
	db := newTestDB(t)
	seedRawEntries(t, db, threeEntries()...)

	service := newTestBatchService(t, db, func(system, human string) (string, error) {
		return validAIResponse(), nil
	})

	// limit=5但只有3条待处理
	result, err := service.Run(context.Background(), BatchOptions{Limit: 5})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Results, 3)

	// 新日期优先
	assert.Equal(t, "2025-06-03", result.Results[0].Date)
	assert.Equal(t, "2025-06-01", result.Results[2].Date)

	var processedCount int64
	require.NoError(t, db.Model(&models.ProcessedRecord{}).Count(&processedCount).Error)
	assert.EqualValues(t, 3, processedCount)

	var simpleCount int64
	require.NoError(t, db.Model(&models.SimpleRecord{}).Count(&simpleCount).Error)
	assert.EqualValues(t, 3, simpleCount)
}

func TestBatchRunDeterministicScoreOverridesAI(t *testing.T) {
	db := newTestDB(t)
	// 兴奋(+2)，而模型自报mood_score=5
	seedRawEntries(t, db, models.RawEntry{Date: "2025-06-01", Mood: "今天特别兴奋"})

	service := newTestBatchService(t, db, func(system, human string) (string, error) {
		return validAIResponse(), nil
	})

	result, err := service.Run(context.Background(), BatchOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)

	var record models.ProcessedRecord
	require.NoError(t, db.First(&record).Error)
	assert.Equal(t, 2, record.MoodScore)
	assert.Equal(t, "😊", record.MoodEmoji)
	assert.Equal(t, "正向", record.MoodCategory)
	// 模型的文本字段照常落库
	assert.Equal(t, "整体愉快", record.MoodDescription)
	assert.Equal(t, "fake-doubao", record.AIModel)

	var simple models.SimpleRecord
	require.NoError(t, db.Where("date = ?", "2025-06-01").First(&simple).Error)
	assert.Equal(t, 2, simple.MoodScore)
	assert.Equal(t, "😊", simple.MoodEmoji)

	// 响应里的mood_score同样是规则评分
	require.NotNil(t, result.Results[0].AIResult)
	assert.Equal(t, 2, result.Results[0].AIResult.MoodScore)
}

func TestBatchRunIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedRawEntries(t, db, threeEntries()...)

	service := newTestBatchService(t, db, func(system, human string) (string, error) {
		return validAIResponse(), nil
	})

	_, err := service.Run(context.Background(), BatchOptions{Limit: 10})
	require.NoError(t, err)

	// 第二次运行没有待处理记录，不报错也不产生重复行
	second, err := service.Run(context.Background(), BatchOptions{Limit: 10})
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, "没有需要处理的原始记录", second.Message)

	var processedCount, simpleCount int64
	require.NoError(t, db.Model(&models.ProcessedRecord{}).Count(&processedCount).Error)
	require.NoError(t, db.Model(&models.SimpleRecord{}).Count(&simpleCount).Error)
	assert.EqualValues(t, 3, processedCount)
	assert.EqualValues(t, 3, simpleCount)
}

func TestBatchRunReprocessingOverwritesInsteadOfDuplicating(t *testing.T) {
	db := newTestDB(t)
	entry := models.RawEntry{ID: 7, Date: "2025-06-01", Mood: "开心"}
	seedRawEntries(t, db, entry)

	service := newTestBatchService(t, db, func(system, human string) (string, error) {
		return validAIResponse(), nil
	})
	_, err := service.Run(context.Background(), BatchOptions{})
	require.NoError(t, err)

	// 直接对同一条记录再做一次upsert，应覆盖而不是新增
	mood := ScoreMood(entry.Mood, service.rubrics.Current())
	require.NoError(t, service.upsertProcessed(context.Background(), entry, mood, &models.AIResult{
		MoodDescription: "第二次处理",
	}, "fake-doubao"))

	var records []models.ProcessedRecord
	require.NoError(t, db.Where("raw_entry_id = ?", entry.ID).Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, "第二次处理", records[0].MoodDescription)
}

func TestBatchRunRespectsLimit(t *testing.T) {
	db := newTestDB(t)
	seedRawEntries(t, db, threeEntries()...)

	service := newTestBatchService(t, db, func(system, human string) (string, error) {
		return validAIResponse(), nil
	})

	result, err := service.Run(context.Background(), BatchOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)

	// 只处理最新的两天
	var processed []models.ProcessedRecord
	require.NoError(t, db.Order("date").Find(&processed).Error)
	require.Len(t, processed, 2)
	assert.Equal(t, "2025-06-02", processed[0].Date)
	assert.Equal(t, "2025-06-03", processed[1].Date)
}

func TestBatchRunIsolatesPerItemFailures(t *testing.T) {
	db := newTestDB(t)
	seedRawEntries(t, db, threeEntries()...)

	// 2025-06-02那条的模型调用失败
	service := newTestBatchService(t, db, func(system, human string) (string, error) {
		if strings.Contains(human, "2025-06-02") {
			return "", errors.New("connection reset")
		}
		return validAIResponse(), nil
	})

	result, err := service.Run(context.Background(), BatchOptions{Limit: 10})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)

	statusByDate := map[string]string{}
	for _, item := range result.Results {
		statusByDate[item.Date] = item.Status
	}
	assert.Equal(t, models.BatchItemSuccess, statusByDate["2025-06-01"])
	assert.Equal(t, models.BatchItemError, statusByDate["2025-06-02"])
	assert.Equal(t, models.BatchItemSuccess, statusByDate["2025-06-03"])

	// 失败的那条没有留下处理结果，下次运行会重试
	var count int64
	require.NoError(t, db.Model(&models.ProcessedRecord{}).Where("date = ?", "2025-06-02").Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// 修好之后重跑，只会补上失败的那条
	service2 := newTestBatchService(t, db, func(system, human string) (string, error) {
		return validAIResponse(), nil
	})
	retry, err := service2.Run(context.Background(), BatchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Processed)
	assert.Equal(t, "2025-06-02", retry.Results[0].Date)
}

func TestBatchRunFallbackOnError(t *testing.T) {
	db := newTestDB(t)
	seedRawEntries(t, db, models.RawEntry{Date: "2025-06-01", Mood: "开心"})

	service := newTestBatchService(t, db, func(system, human string) (string, error) {
		return "", errors.New("service unavailable")
	})

	result, err := service.Run(context.Background(), BatchOptions{FallbackOnError: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Failed)

	// 兜底结果落库：子维度是中性分，心情维度仍是规则评分
	var record models.ProcessedRecord
	require.NoError(t, db.First(&record).Error)
	assert.Equal(t, 3, record.LifeScore)
	assert.Empty(t, record.Summary)
	assert.Equal(t, 1, record.MoodScore) // 开心(+1)
	// 兜底结果不是模型产出，模型标识要区分开
	assert.Equal(t, FallbackModelName, record.AIModel)
}

func TestBatchRunIsolatesPersistenceFailures(t *testing.T) {
	db := newTestDB(t)
	seedRawEntries(t, db,
		models.RawEntry{Date: "2025-06-01", Mood: "开心"},
		models.RawEntry{Date: "2025-06-02", Mood: "平静"},
	)

	// 聚合表不可写时，批次照常跑完，每条都记为失败
	require.NoError(t, db.Migrator().DropTable(&models.SimpleRecord{}))

	service := newTestBatchService(t, db, func(system, human string) (string, error) {
		return validAIResponse(), nil
	})

	result, err := service.Run(context.Background(), BatchOptions{Limit: 10})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Results, 2)
	for _, item := range result.Results {
		assert.Equal(t, models.BatchItemError, item.Status)
		assert.Contains(t, item.Error, "聚合记录")
	}
}

func TestBatchRunNonBlankingMerge(t *testing.T) {
	db := newTestDB(t)

	// 已有聚合记录带着灵感元数据
	require.NoError(t, db.Create(&models.SimpleRecord{
		Date:             "2025-06-01",
		MoodScore:        1,
		Summary:          "旧总结",
		InspirationTheme: "X",
	}).Error)

	seedRawEntries(t, db, models.RawEntry{Date: "2025-06-01", Mood: "今天特别兴奋"})

	// 模型这次返回空的灵感主题和空总结
	service := newTestBatchService(t, db, func(system, human string) (string, error) {
		return `{
			"mood_score": 0,
			"mood_description": "兴奋",
			"life_score": 2,
			"study_score": 2,
			"work_score": 2,
			"inspiration_score": 1,
			"summary": "",
			"inspiration_theme": "",
			"inspiration_product": "",
			"inspiration_difficulty": ""
		}`, nil
	})

	result, err := service.Run(context.Background(), BatchOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)

	var simple models.SimpleRecord
	require.NoError(t, db.Where("date = ?", "2025-06-01").First(&simple).Error)
	// 空值不覆盖已有文本
	assert.Equal(t, "X", simple.InspirationTheme)
	assert.Equal(t, "旧总结", simple.Summary)
	// 数值和非空文本正常更新
	assert.Equal(t, 2, simple.MoodScore)
	assert.Equal(t, "兴奋", simple.MoodDescription)

	// 日期仍然唯一
	var count int64
	require.NoError(t, db.Model(&models.SimpleRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestBatchRunMissingConfig(t *testing.T) {
	store := newTestRubricStore(t)

	// 没有数据库
	enricher, _ := newFakeEnricher(func(system, human string) (string, error) { return validAIResponse(), nil })
	service := NewBatchService(nil, nil, enricher, store)
	_, err := service.Run(context.Background(), BatchOptions{})
	assert.ErrorIs(t, err, ErrMissingConfig)

	// 没有AI客户端
	service = NewBatchService(newTestDB(t), nil, nil, store)
	_, err = service.Run(context.Background(), BatchOptions{})
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestBatchRunLockSerializesRuns(t *testing.T) {
	db := newTestDB(t)
	seedRawEntries(t, db, models.RawEntry{Date: "2025-06-01", Mood: "开心"})

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	enricher, _ := newFakeEnricher(func(system, human string) (string, error) {
		return validAIResponse(), nil
	})
	service := NewBatchService(db, client, enricher, newTestRubricStore(t))

	// 锁被别的批次持有时直接返回冲突
	require.NoError(t, client.Set(context.Background(), batchLockKey, "other-holder", time.Minute).Err())
	_, err := service.Run(context.Background(), BatchOptions{})
	assert.ErrorIs(t, err, ErrBatchRunning)

	// 释放逻辑只认自己的令牌，不能误删别人的锁
	service.releaseBatchLock("stale-token")
	holder, err := client.Get(context.Background(), batchLockKey).Result()
	require.NoError(t, err)
	assert.Equal(t, "other-holder", holder)

	// 锁空出来后正常运行，结束时清掉自己的锁
	require.NoError(t, client.Del(context.Background(), batchLockKey).Err())
	result, err := service.Run(context.Background(), BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	exists, err := client.Exists(context.Background(), batchLockKey).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 0, exists)
}

func TestBatchRunSameDateEntriesShareAggregate(t *testing.T) {
	db := newTestDB(t)
	seedRawEntries(t, db,
		models.RawEntry{Date: "2025-06-01", Mood: "开心"},
		models.RawEntry{Date: "2025-06-01", Mood: "兴奋"},
	)

	service := newTestBatchService(t, db, func(system, human string) (string, error) {
		return validAIResponse(), nil
	})

	result, err := service.Run(context.Background(), BatchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)

	// 两条原始记录各有一行处理结果，但聚合表按日期只有一行
	var processedCount, simpleCount int64
	require.NoError(t, db.Model(&models.ProcessedRecord{}).Count(&processedCount).Error)
	require.NoError(t, db.Model(&models.SimpleRecord{}).Count(&simpleCount).Error)
	assert.EqualValues(t, 2, processedCount)
	assert.EqualValues(t, 1, simpleCount)
}
