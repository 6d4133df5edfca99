package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gwen-Z/personal-website-ai-sub002/config"
	"github.com/Gwen-Z/personal-website-ai-sub002/models"
)

type RecordController struct{}

// ListSimpleRecords 处理 GET /api/simple-records，供图表端读取按日聚合记录
// 支持 from/to（YYYY-MM-DD）和 limit 查询参数，按日期倒序返回。
func (rc *RecordController) ListSimpleRecords(ctx *gin.Context) {
	if config.DB == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "数据库未配置"})
		return
	}

	query := config.DB.Model(&models.SimpleRecord{}).Order("date DESC")
	if from := ctx.Query("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := ctx.Query("to"); to != "" {
		query = query.Where("date <= ?", to)
	}

	limit := 90
	if limitStr := ctx.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的limit参数"})
			return
		}
		limit = parsed
	}

	var records []models.SimpleRecord
	if err := query.Limit(limit).Find(&records).Error; err != nil {
		config.Logger.Errorw("查询聚合记录失败", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "查询聚合记录失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"records": records})
}
