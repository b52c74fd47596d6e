package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/handler"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/middleware"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/service"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	BuildID   = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

func main() {
	// 加载配置
	cfg, err := config.New()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := utils.InitLogger(cfg.Server.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	utils.Logger.Info("starting ECG risk engine",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("git_branch", GitBranch))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 临时文件目录
	store, err := service.NewImageStore(&cfg.Upload)
	if err != nil {
		utils.Logger.Fatal("failed to create upload directory", zap.Error(err))
	}
	if cfg.Upload.SweepOnStart {
		n, err := store.Sweep()
		if err != nil {
			utils.Logger.Warn("failed to sweep stale temp files", zap.Error(err))
		} else if n > 0 {
			utils.Logger.Info("removed stale temp files", zap.Int("count", n))
		}
	}

	// 分类器初始化失败时所有请求走 LLM 兜底
	var classifier service.ImageClassifier
	vit, runtime, err := initClassifier(&cfg.Classifier)
	if err != nil {
		utils.Logger.Error("error loading ViT model", zap.Error(err))
	} else {
		defer runtime.Close()
		classifier = vit
		utils.Logger.Info("ViT model loaded", zap.String("model", cfg.Classifier.ModelPath))
	}

	// 生成器初始化失败时请求直接返回 500
	var narrator service.NarrativeGenerator
	if client, err := service.NewLLMClient(ctx, &cfg.Narrator); err != nil {
		utils.Logger.Error("error initializing LLM client", zap.Error(err))
	} else {
		narrator = service.NewNarrator(client, &cfg.Narrator)
		utils.Logger.Info("LLM client initialized", zap.String("client", client.Name()))
	}

	analyzer := service.NewAnalyzer(store, classifier, narrator)

	// 限流：Redis 可用时跨副本共享计数
	var limiter service.Limiter
	if cfg.RateLimit.Enabled {
		local := service.NewLocalLimiter(&cfg.RateLimit)
		limiter = local
		if cfg.Redis.Enabled {
			redisService := service.NewRedisService(&cfg.Redis)
			defer redisService.Close()
			if err := redisService.Ping(ctx); err != nil {
				utils.Logger.Warn("redis connection failed, using local rate limiter", zap.Error(err))
			} else {
				utils.Logger.Info("redis connected successfully", zap.String("addr", cfg.Redis.Addr))
				limiter = service.NewRedisLimiter(redisService, &cfg.RateLimit, local)
			}
		}
	}

	analyzeHandler := handler.NewAnalyzeHandler(cfg, analyzer)

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.MaxMultipartMemory = cfg.Upload.MaxSize

	r.GET("/health", analyzeHandler.Health)
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"build_id":   BuildID,
			"git_commit": GitCommit,
			"git_branch": GitBranch,
		})
	})

	analyze := []gin.HandlerFunc{analyzeHandler.Analyze}
	if limiter != nil {
		analyze = append([]gin.HandlerFunc{middleware.RateLimit(limiter)}, analyze...)
	}
	r.POST("/analyze", analyze...)
	r.POST("/api/analyze", analyze...)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.Logger.Error("server stopped with error", zap.Error(err))
		return
	}
	utils.Logger.Info("server stopped")
}

// initClassifier 加载 ViT 配置与 ONNX 会话池
func initClassifier(cfg *config.ClassifierConfig) (*service.Classifier, *service.ONNXRuntime, error) {
	arch, err := service.LoadViTConfig(cfg.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	runtime, err := service.NewONNXRuntime(cfg, arch)
	if err != nil {
		return nil, nil, err
	}
	return service.NewClassifier(runtime, arch), runtime, nil
}
