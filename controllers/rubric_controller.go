package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gwen-Z/personal-website-ai-sub002/services"
)

type RubricController struct {
	store *services.RubricStore
}

func NewRubricController(store *services.RubricStore) *RubricController {
	return &RubricController{
		store: store,
	}
}

// GetRubric 处理 GET /api/rubric，返回当前生效的评分规则
func (rc *RubricController) GetRubric(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, rc.store.Current())
}

// ReplaceRubric 处理 PUT /api/rubric，整体替换评分规则
// 历史处理结果不会按新规则重算。
func (rc *RubricController) ReplaceRubric(ctx *gin.Context) {
	raw, err := ctx.GetRawData()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "读取请求体失败: " + err.Error()})
		return
	}

	if err := rc.store.Replace(raw); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "评分规则已更新"})
}
