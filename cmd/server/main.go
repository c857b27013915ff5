package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/slidesmith/backend/config"
	"github.com/slidesmith/backend/internal/deck/assemble"
	"github.com/slidesmith/backend/internal/deck/asset"
	"github.com/slidesmith/backend/internal/eventbus"
	"github.com/slidesmith/backend/internal/handler"
	"github.com/slidesmith/backend/internal/pkg/database"
	"github.com/slidesmith/backend/internal/pkg/imagesearch"
	"github.com/slidesmith/backend/internal/pkg/llm"
	"github.com/slidesmith/backend/internal/repository"
	"github.com/slidesmith/backend/internal/router"
	"github.com/slidesmith/backend/internal/service"
	"github.com/slidesmith/backend/internal/service/orchestrator"
	"github.com/slidesmith/backend/internal/subscriber"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	if err := os.MkdirAll(cfg.Render.OutputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// 初始化数据库
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := service.InitDefaultTemplates(db); err != nil {
		klog.Warningf("初始化预置模板失败: %v", err)
	}

	// 初始化 Repository
	templateRepo := repository.NewTemplateRepository(db)
	presentationRepo := repository.NewPresentationRepository(db)
	slideRepo := repository.NewSlideRepository(db)

	// 外部服务
	chatModel, err := llm.NewChatModel(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize chat model: %v", err)
	}
	images := imagesearch.NewClient(cfg.ImageSearch)
	if !images.Enabled() {
		klog.Warningf("未配置图片搜索 access key，幻灯片将不配图")
	}
	resolver := asset.NewResolver(asset.Options{
		Timeout:     cfg.Render.FetchTimeout,
		MaxBytes:    cfg.Render.MaxImageBytes,
		Concurrency: cfg.Render.FetchConcurrency,
	}, images)

	// 初始化 Service
	drafter := service.NewDrafter(chatModel)
	templateService := service.NewTemplateService(templateRepo)
	presentationService := service.NewPresentationService(presentationRepo, templateRepo, drafter, images, nil)
	slideService := service.NewSlideService(slideRepo, drafter)
	exportService := service.NewExportService(presentationRepo, templateRepo, assemble.New(resolver), cfg.Render.OutputDir)

	// 异步生成队列
	orch, err := orchestrator.New(cfg.Generation.Workers, cfg.Generation.QueueSize, presentationService)
	if err != nil {
		log.Fatalf("Failed to initialize orchestrator: %v", err)
	}
	orch.Start()
	presentationService.SetQueue(orch)

	// 事件总线
	presentationBus := eventbus.NewPresentationEventBus()
	subscriber.NewPresentationEventSubscriber(orch).Register(presentationBus)
	presentationService.SetEventBus(presentationBus)

	// 启动时清理上次未完成的生成任务
	if affected, err := presentationService.CleanupStale(0); err != nil {
		klog.Warningf("清理未完成的生成任务失败: %v", err)
	} else if affected > 0 {
		klog.V(6).Infof("启动时清理了 %d 个未完成的生成任务", affected)
	}

	// 设置路由
	r := router.Setup(cfg, router.Handlers{
		Health:       handler.NewHealthHandler(orch),
		Template:     handler.NewTemplateHandler(templateService, exportService),
		Presentation: handler.NewPresentationHandler(presentationService, exportService),
		Slide:        handler.NewSlideHandler(slideService),
		Stylesheet:   handler.NewStylesheetHandler(),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}
	go func() {
		log.Printf("Server starting on port %s...", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	klog.V(6).Info("服务关闭中...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		klog.Errorf("HTTP 服务关闭失败: %v", err)
	}
	orch.Stop()
}
