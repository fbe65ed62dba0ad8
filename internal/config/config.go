package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Business BusinessConfig `mapstructure:"business"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	WorkerID int64  `mapstructure:"worker_id"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogSQL       bool   `mapstructure:"log_sql"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

// DSN 返回 go-sql-driver 格式的连接串，迁移需要 multiStatements
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	Wallet     string `mapstructure:"wallet"`
	Tournament string `mapstructure:"tournament"`
}

// StorageConfig S3 兼容对象存储（Cloudflare R2 / MinIO / S3）
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	MaxUploadBytes  int64  `mapstructure:"max_upload_bytes"`
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	Issuer       string        `mapstructure:"issuer"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	AdminEmails  []string      `mapstructure:"admin_emails"`
	GatewayToken string        `mapstructure:"gateway_token"`
}

// IsAdminEmail 判断邮箱是否在管理员名单中
func (c AuthConfig) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}

type CacheConfig struct {
	Prefix        string        `mapstructure:"prefix"`
	TournamentTTL time.Duration `mapstructure:"tournament_ttl"`
	WalletTTL     time.Duration `mapstructure:"wallet_ttl"`
	ProfileTTL    time.Duration `mapstructure:"profile_ttl"`
	RedeleteDelay time.Duration `mapstructure:"redelete_delay"` // 失效后延迟二次删除
}

type BusinessConfig struct {
	MaxRetryCount     int           `mapstructure:"max_retry_count"`
	OutboxInterval    time.Duration `mapstructure:"outbox_interval"`
	LifecycleInterval time.Duration `mapstructure:"lifecycle_interval"`
	LockRetryInterval time.Duration `mapstructure:"lock_retry_interval"`
	LockMaxRetries    int           `mapstructure:"lock_max_retries"`
	OptimisticRetries int           `mapstructure:"optimistic_retries"`
	DefaultPageSize   int           `mapstructure:"default_page_size"`
	MaxPageSize       int           `mapstructure:"max_page_size"`
	MinWithdrawAmount string        `mapstructure:"min_withdraw_amount"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig 加载配置文件
//
// 顺序：.env（可选）-> YAML -> 环境变量覆盖（FS_MYSQL_HOST 覆盖 mysql.host）
func LoadConfig(configPath string) (*Config, error) {
	// .env 不存在不算错误
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查必填项
func (c *Config) Validate() error {
	if c.MySQL.Host == "" {
		return errors.New("mysql.host 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret 至少 16 个字符")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.enabled 时 kafka.brokers 不能为空")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.worker_id", 1)
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.max_open_conns", 50)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.auto_migrate", true)
	v.SetDefault("redis.port", 6379)
	v.SetDefault("kafka.topic.wallet", "firestrike.wallet")
	v.SetDefault("kafka.topic.tournament", "firestrike.tournament")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.max_upload_bytes", 5<<20)
	v.SetDefault("auth.issuer", "firestrike")
	v.SetDefault("auth.token_ttl", 72*time.Hour)
	v.SetDefault("cache.prefix", "fs")
	v.SetDefault("cache.tournament_ttl", 30*time.Second)
	v.SetDefault("cache.wallet_ttl", 10*time.Second)
	v.SetDefault("cache.profile_ttl", 5*time.Minute)
	v.SetDefault("cache.redelete_delay", 500*time.Millisecond)
	v.SetDefault("business.max_retry_count", 5)
	v.SetDefault("business.outbox_interval", 500*time.Millisecond)
	v.SetDefault("business.lifecycle_interval", time.Minute)
	v.SetDefault("business.lock_retry_interval", 100*time.Millisecond)
	v.SetDefault("business.lock_max_retries", 30)
	v.SetDefault("business.optimistic_retries", 3)
	v.SetDefault("business.default_page_size", 20)
	v.SetDefault("business.max_page_size", 100)
	v.SetDefault("business.min_withdraw_amount", "100")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
