package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Gwen-Z/personal-website-ai-sub002/config"
	"github.com/Gwen-Z/personal-website-ai-sub002/controllers"
	"github.com/Gwen-Z/personal-website-ai-sub002/middleware"
	"github.com/Gwen-Z/personal-website-ai-sub002/services"
)

func RegisterRoutes(r *gin.Engine, conf config.Config, batchService *services.BatchService, rubricStore *services.RubricStore) {
	batchController := controllers.NewBatchController(batchService)
	rubricController := controllers.NewRubricController(rubricStore)
	recordController := controllers.RecordController{}

	// 公开只读接口
	public := r.Group("/api")
	{
		public.GET("/rubric", rubricController.GetRubric)
		public.GET("/simple-records", recordController.ListSimpleRecords)
	}

	// 批处理触发和规则替换仅限内部调用
	internal := r.Group("/api")
	internal.Use(middleware.InternalAuthMiddleware(conf.InternalAuthToken))
	{
		internal.POST("/batch-doubao", batchController.ProcessWithDoubao)
		internal.POST("/batch-process", batchController.ProcessWithFallback)
		internal.PUT("/rubric", rubricController.ReplaceRubric)
	}

	// 测试路由
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
}
