package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gwen-Z/personal-website-ai-sub002/config"
	"github.com/Gwen-Z/personal-website-ai-sub002/models"
	"github.com/Gwen-Z/personal-website-ai-sub002/services"
)

type BatchController struct {
	batchService *services.BatchService
}

func NewBatchController(batchService *services.BatchService) *BatchController {
	return &BatchController{
		batchService: batchService,
	}
}

// ProcessWithDoubao 处理 POST /api/batch-doubao
// 模型调用失败的记录在结果里标记为error，下次批处理会重试。
func (bc *BatchController) ProcessWithDoubao(ctx *gin.Context) {
	bc.run(ctx, false)
}

// ProcessWithFallback 处理 POST /api/batch-process
// 与batch-doubao等价，但模型失败时用中性兜底结果落库，保证流水线能走完。
func (bc *BatchController) ProcessWithFallback(ctx *gin.Context) {
	bc.run(ctx, true)
}

func (bc *BatchController) run(ctx *gin.Context, fallbackOnError bool) {
	var request models.BatchRequest
	// 请求体可以为空，为空时使用默认limit
	if err := ctx.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result, err := bc.batchService.Run(ctx.Request.Context(), services.BatchOptions{
		Limit:           request.Limit,
		FallbackOnError: fallbackOnError,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingConfig):
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error":   "服务配置不完整，请检查数据库和豆包API环境变量",
			})
		case errors.Is(err, services.ErrBatchRunning):
			ctx.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   "已有批处理正在运行，请稍后重试",
			})
		default:
			config.Logger.Errorw("批处理失败", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "批处理失败: " + err.Error(),
			})
		}
		return
	}

	// 单条失败不影响批级状态，只要批处理跑完就返回200
	ctx.JSON(http.StatusOK, result)
}
