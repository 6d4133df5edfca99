package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gwen-Z/personal-website-ai-sub002/config"
	"github.com/Gwen-Z/personal-website-ai-sub002/middleware"
	"github.com/Gwen-Z/personal-website-ai-sub002/routes"
	"github.com/Gwen-Z/personal-website-ai-sub002/services"
)

func main() {
	// 初始化日志
	if err := config.InitLogger(); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	defer config.Logger.Sync()

	// 加载配置
	conf, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	// 初始化数据库。配置不完整时跳过，批处理接口会返回503
	if conf.HasDBConfig() {
		if err := config.InitDB(conf); err != nil {
			log.Fatalf("无法初始化数据库: %v", err)
		}
	} else {
		config.Logger.Warnw("数据库配置不完整，批处理接口将不可用")
	}

	// 初始化Redis。Redis只用于批处理锁，连不上不阻塞启动
	if err := config.InitRedis(conf); err != nil {
		config.Logger.Warnw("Redis初始化失败，批处理将不加锁", "error", err)
		config.RedisClient = nil
	}

	// 初始化豆包客户端。配置不完整时跳过，批处理接口会返回503
	var enrichmentService *services.EnrichmentService
	if conf.HasDoubaoConfig() {
		doubaoClient, err := services.NewDoubaoClient(conf.DoubaoAPIKey, conf.DoubaoAPIEndpoint, conf.DoubaoModel)
		if err != nil {
			log.Fatalf("无法初始化豆包客户端: %v", err)
		}
		enrichmentService = services.NewEnrichmentService(doubaoClient, conf.DoubaoMaxTokens)
	} else {
		config.Logger.Warnw("豆包API配置不完整，批处理接口将不可用")
	}

	// 加载评分规则并监听文件变更
	rubricStore := services.NewRubricStore(conf.RubricPath)
	if err := rubricStore.Watch(); err != nil {
		config.Logger.Warnw("评分规则文件监听失败，直接改文件不会自动生效", "error", err)
	}
	defer rubricStore.Close()

	batchService := services.NewBatchService(config.DB, config.RedisClient, enrichmentService, rubricStore)

	// 设置Gin模式
	if conf.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建Gin引擎
	r := gin.New()

	// 设置中间件
	middleware.SetupMiddleware(r)

	// 注册路由
	routes.RegisterRoutes(r, conf, batchService, rubricStore)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:    ":" + conf.ServerPort,
		Handler: r,
	}

	// 在goroutine中启动服务器
	go func() {
		config.Logger.Infow("启动服务器", "port", conf.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以实现优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	config.Logger.Infow("正在关闭服务器...")

	// 创建超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务器关闭失败: %v", err)
	}

	config.Logger.Infow("服务器已关闭")
}
