package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ows/internal/api"
	"ows/internal/config"
	"ows/internal/model"
	"ows/internal/rbac"
	"ows/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env 文件可选,缺失时忽略
	_ = godotenv.Load()

	// 初始化配置
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	// 初始化logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}
	if repo == nil {
		logrus.Error("no database configured")
		return
	}

	if err := rbac.Seed(context.Background(), repo); err != nil {
		logrus.WithError(err).Warn("failed to seed permission catalog")
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage")
		return
	}

	var permCache rbac.Cache
	if strings.EqualFold(cfg.PermCacheBackend, "redis") {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		permCache = rbac.NewRedisCache(redisClient)
		logger.WithField("addr", cfg.RedisAddr).Info("permission cache backed by redis")
	} else {
		permCache = rbac.NewMemoryCache()
	}
	perms := rbac.NewService(repo, permCache)

	httpHandler, err := api.NewHTTPHandler(cfg, repo, store, perms)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise http handler")
		return
	}

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 添加中间件
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.GET("/status", httpHandler.AuthStatus)
	authGroup.POST("/register", httpHandler.Register)
	authGroup.POST("/login", httpHandler.Login)
	authGroup.GET("/me", httpHandler.AuthMiddleware(), httpHandler.Me)

	protected := apiGroup.Group("")
	protected.Use(httpHandler.AuthMiddleware())

	contents := protected.Group("/contents")
	contents.GET("", httpHandler.RequirePermission("contents.read"), httpHandler.ListContents)
	contents.GET("/:id", httpHandler.RequirePermission("contents.read"), httpHandler.GetContent)
	contents.POST("", httpHandler.RequirePermission("contents.create"), httpHandler.CreateContent)
	contents.PATCH("/:id", httpHandler.RequirePermission("contents.update"), httpHandler.UpdateContent)
	contents.POST("/:id/publish", httpHandler.RequirePermission("contents.publish"), httpHandler.PublishContent)
	contents.DELETE("/:id", httpHandler.RequirePermission("contents.delete"), httpHandler.DeleteContent)

	categories := protected.Group("/categories")
	categories.GET("", httpHandler.RequirePermission("categories.read"), httpHandler.ListCategories)
	categories.POST("", httpHandler.RequirePermission("categories.create"), httpHandler.CreateCategory)
	categories.PATCH("/:id", httpHandler.RequirePermission("categories.update"), httpHandler.UpdateCategory)
	categories.DELETE("/:id", httpHandler.RequirePermission("categories.delete"), httpHandler.DeleteCategory)

	tags := protected.Group("/tags")
	tags.GET("", httpHandler.RequirePermission("tags.read"), httpHandler.ListTags)
	tags.POST("", httpHandler.RequirePermission("tags.create"), httpHandler.CreateTag)
	tags.DELETE("/:id", httpHandler.RequirePermission("tags.delete"), httpHandler.DeleteTag)

	media := protected.Group("/media")
	media.POST("/upload", httpHandler.RequirePermission("media.upload"), httpHandler.UploadMedia)
	media.GET("", httpHandler.RequirePermission("media.read"), httpHandler.ListMediaFiles)
	media.GET("/:id", httpHandler.RequirePermission("media.read"), httpHandler.GetMediaFile)
	media.PATCH("/:id", httpHandler.RequirePermission("media.update"), httpHandler.UpdateMediaFile)
	media.DELETE("/:id", httpHandler.RequirePermission("media.delete"), httpHandler.DeleteMediaFile)
	media.POST("/move", httpHandler.RequirePermission("media.update"), httpHandler.MoveMediaFiles)
	media.POST("/scan", httpHandler.RequirePermission("media.manage"), httpHandler.ScanMedia)

	folders := protected.Group("/media-folders")
	folders.GET("", httpHandler.RequirePermission("media.read"), httpHandler.ListMediaFolders)
	folders.POST("", httpHandler.RequirePermission("media.manage"), httpHandler.CreateMediaFolder)
	folders.PATCH("/:id", httpHandler.RequirePermission("media.manage"), httpHandler.UpdateMediaFolder)
	folders.DELETE("/:id", httpHandler.RequirePermission("media.manage"), httpHandler.DeleteMediaFolder)

	products := protected.Group("/products")
	products.GET("", httpHandler.RequirePermission("products.read"), httpHandler.ListProducts)
	products.GET("/:id", httpHandler.RequirePermission("products.read"), httpHandler.GetProduct)
	products.POST("", httpHandler.RequirePermission("products.create"), httpHandler.CreateProduct)
	products.PATCH("/:id", httpHandler.RequirePermission("products.update"), httpHandler.UpdateProduct)
	products.DELETE("/:id", httpHandler.RequirePermission("products.delete"), httpHandler.DeleteProduct)
	products.PUT("/:id/prices", httpHandler.RequirePermission("products.update"), httpHandler.UpsertProductPrice)
	products.DELETE("/:id/prices/:currency", httpHandler.RequirePermission("products.update"), httpHandler.DeleteProductPrice)

	orders := protected.Group("/orders")
	orders.POST("", httpHandler.RequirePermission("orders.create"), httpHandler.CreateOrder)
	orders.GET("", httpHandler.RequirePermission("orders.read"), httpHandler.ListOrders)
	orders.GET("/:id", httpHandler.RequirePermission("orders.read"), httpHandler.GetOrder)
	orders.GET("/no/:order_no", httpHandler.RequirePermission("orders.read"), httpHandler.GetOrderByNumber)
	orders.PATCH("/:id", httpHandler.RequirePermission("orders.update"), httpHandler.UpdateOrder)

	userAdmin := protected.Group("/users")
	userAdmin.GET("", httpHandler.RequirePermission("users.read"), httpHandler.ListUsers)
	userAdmin.POST("", httpHandler.RequirePermission("users.create"), httpHandler.CreateUser)
	userAdmin.PATCH("/:id", httpHandler.RequirePermission("users.update"), httpHandler.UpdateUser)
	userAdmin.DELETE("/:id", httpHandler.RequireAdmin(), httpHandler.RequirePermission("users.delete"), httpHandler.DeleteUser)
	userAdmin.GET("/:id/roles", httpHandler.RequirePermission("roles.read"), httpHandler.ListUserRoles)
	userAdmin.POST("/:id/roles", httpHandler.RequirePermission("roles.assign"), httpHandler.AssignUserRole)
	userAdmin.DELETE("/:id/roles/:role_code", httpHandler.RequirePermission("roles.assign"), httpHandler.RevokeUserRole)

	roleAdmin := protected.Group("/roles")
	roleAdmin.GET("", httpHandler.RequirePermission("roles.read"), httpHandler.ListRoles)
	roleAdmin.GET("/:id", httpHandler.RequirePermission("roles.read"), httpHandler.GetRole)
	roleAdmin.POST("", httpHandler.RequirePermission("roles.manage"), httpHandler.CreateRole)
	roleAdmin.PATCH("/:id", httpHandler.RequirePermission("roles.manage"), httpHandler.UpdateRole)
	roleAdmin.DELETE("/:id", httpHandler.RequirePermission("roles.manage"), httpHandler.DeleteRole)
	roleAdmin.PUT("/:id/permissions", httpHandler.RequirePermission("roles.manage"), httpHandler.SetRolePermissions)

	protected.GET("/permissions", httpHandler.RequirePermission("roles.read"), httpHandler.ListPermissionCatalog)

	settings := protected.Group("/settings")
	settings.GET("", httpHandler.RequirePermission("settings.read"), httpHandler.ListSettings)
	settings.GET("/:key", httpHandler.RequirePermission("settings.read"), httpHandler.GetSetting)
	settings.PUT("", httpHandler.RequirePermission("settings.manage"), httpHandler.UpsertSetting)
	settings.DELETE("/:key", httpHandler.RequirePermission("settings.manage"), httpHandler.DeleteSetting)

	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/uploads"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logger.WithField("host", serverHost).Info("服务器启动")
	// 创建HTTP服务器
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  900 * time.Second,
		WriteTimeout: 900 * time.Second,
		IdleTimeout:  1200 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("服务器启动失败")
	}
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware 日志记录中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// 处理请求
		c.Next()
		// 记录请求结束
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}
