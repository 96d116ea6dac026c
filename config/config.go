package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-redis/redis/v8"
	"gopkg.in/yaml.v3"
)

var ctx = context.Background()

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// SessionConfig controls the login-session cookie and its Redis backing.
type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	Secret     string `yaml:"secret"`
	TTL        int64  `yaml:"ttl"` // seconds
}

// MailConfig configures the SMTP transport for transactional mail.
// From is deliberately configuration, not a literal in code.
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// S3Config configures the object store that holds uploaded avatars.
// Endpoint allows pointing at MinIO in development.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	MySQL   MySQLConfig   `yaml:"mysql"`
	Redis   RedisConfig   `yaml:"redis"`
	Session SessionConfig `yaml:"session"`
	Mail    MailConfig    `yaml:"mail"`
	S3      S3Config      `yaml:"s3"`
	Log     LogConfig     `yaml:"log"`
}

var GlobalConfig *Config
var RedisClient *redis.Client

func InitConfig(path string) {
	data, err := os.ReadFile(path + "/config.yaml")
	if err != nil {
		log.Fatalf("Read config failed: %v", err)
	}
	if err := yaml.Unmarshal(data, &GlobalConfig); err != nil {
		log.Fatalf("Parse config failed: %v", err)
	}
	applyEnvOverrides()
}

func InitRedis() {
	opt := &redis.Options{
		Addr:     GlobalConfig.Redis.Addr,
		Password: GlobalConfig.Redis.Password,
		DB:       GlobalConfig.Redis.DB,
	}
	if GlobalConfig.Redis.TLS {
		opt.TLSConfig = &tls.Config{}
	}
	RedisClient = redis.NewClient(opt)
	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		panic(fmt.Sprintf("Redis connect failed: %v", err))
	}
	fmt.Println("Redis connected!")
}

func applyEnvOverrides() {
	if GlobalConfig == nil {
		return
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		GlobalConfig.MySQL.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		GlobalConfig.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		GlobalConfig.Redis.Password = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		GlobalConfig.Server.Port = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		GlobalConfig.Session.Secret = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			GlobalConfig.Session.TTL = parsed
		}
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		GlobalConfig.Mail.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			GlobalConfig.Mail.Port = parsed
		}
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		GlobalConfig.Mail.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		GlobalConfig.Mail.Password = v
	}
	if v := os.Getenv("MAIL_FROM"); v != "" {
		GlobalConfig.Mail.From = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		GlobalConfig.S3.Endpoint = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		GlobalConfig.S3.Bucket = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		GlobalConfig.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		GlobalConfig.S3.SecretKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		GlobalConfig.Log.Level = v
	}
}
