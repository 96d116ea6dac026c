package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	v1 "pinboard/api/v1"
	"pinboard/config"
	"pinboard/dao"
	"pinboard/internal/logger"
	"pinboard/internal/mailer"
	"pinboard/internal/storage"
	myvalidator "pinboard/internal/validator"
	"pinboard/middleware"
	"pinboard/model"
	"pinboard/service"
)

func main() {
	// 初始化配置
	_ = godotenv.Load()
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "../"
	}
	config.InitConfig(configPath)
	if err := logger.Initialize(config.GlobalConfig.Log.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	config.InitRedis()

	// 初始化数据库
	db, err := gorm.Open(mysql.Open(config.GlobalConfig.MySQL.DSN), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	// 自动迁移
	if err := db.AutoMigrate(&model.User{}); err != nil {
		panic(err)
	}

	// 初始化邮件与头像存储
	welcomeMailer, err := mailer.New(config.GlobalConfig.Mail)
	if err != nil {
		log.Fatalf("Failed to initialize mailer: %v", err)
	}
	avatars := storage.NewS3AvatarStore(config.GlobalConfig.S3)

	// 初始化 DAO 和 Service
	userDAO := dao.NewUserDAO(db)
	accountService := service.NewAccountService(userDAO, config.RedisClient, welcomeMailer)
	accountAPI := v1.NewAccountAPI(accountService, avatars)

	// 初始化路由
	r := gin.Default()
	r.LoadHTMLGlob(configPath + "/templates/*.html")
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 注册自定义校验器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("username", myvalidator.IsUsername); err != nil {
			panic(err)
		}
	}

	// 页面路由
	pages := r.Group("/")
	pages.Use(middleware.CurrentUser(accountService.Session, userDAO))
	{
		pages.GET("/", accountAPI.Home)
		pages.GET("/register", accountAPI.RegisterPage)
		pages.POST("/register", accountAPI.Register)
		pages.GET("/login", accountAPI.LoginPage)
		pages.POST("/login", accountAPI.Login)
		pages.Any("/logout", accountAPI.Logout)
	}

	// 启动服务
	if err := r.Run(config.GlobalConfig.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
