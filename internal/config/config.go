package config

import (
	"fmt"

	"github.com/spf13/viper"

	apperrors "rumor-trust-system/pkg/errors"
)

type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Server     ServerConfig     `mapstructure:"server"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Resolution ResolutionConfig `mapstructure:"resolution"`
	Reputation ReputationConfig `mapstructure:"reputation"`
	Vote       VoteConfig       `mapstructure:"vote"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type ScoringConfig struct {
	// AuditEpsilon 分数变化小于该值且状态未变时不写审计日志
	AuditEpsilon float64 `mapstructure:"audit_epsilon"`
}

type ResolutionConfig struct {
	VerifyThreshold    float64 `mapstructure:"verify_threshold"`
	DebunkThreshold    float64 `mapstructure:"debunk_threshold"`
	SustainedHours     int     `mapstructure:"sustained_hours"`
	InconclusiveDays   int     `mapstructure:"inconclusive_days"`
	SweepCron          string  `mapstructure:"sweep_cron"`
	SweepPageSize      int     `mapstructure:"sweep_page_size"`
	SweepWorkers       int     `mapstructure:"sweep_workers"`
	ConflictMaxRetries int     `mapstructure:"conflict_max_retries"`
}

type ReputationConfig struct {
	InitialPoints int     `mapstructure:"initial_points"`
	StakePerVote  int     `mapstructure:"stake_per_vote"`
	BonusRate     float64 `mapstructure:"bonus_rate"`
}

type VoteConfig struct {
	// Salt 指纹盐值，必须显式配置，无默认值
	// 轮换盐值会使旧指纹失去去重效力，仅在接受该代价时轮换
	Salt string `mapstructure:"salt"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("scoring.audit_epsilon", 0.001)
	v.SetDefault("resolution.verify_threshold", 0.75)
	v.SetDefault("resolution.debunk_threshold", 0.25)
	v.SetDefault("resolution.sustained_hours", 48)
	v.SetDefault("resolution.inconclusive_days", 7)
	v.SetDefault("resolution.sweep_cron", "0 0 * * * *")
	v.SetDefault("resolution.sweep_page_size", 200)
	v.SetDefault("resolution.sweep_workers", 4)
	v.SetDefault("resolution.conflict_max_retries", 3)
	v.SetDefault("reputation.initial_points", 100)
	v.SetDefault("reputation.stake_per_vote", 10)
	v.SetDefault("reputation.bonus_rate", 0.5)
	v.SetDefault("ratelimit.requests_per_minute", 30)
	v.SetDefault("ratelimit.burst", 10)

	// 盐值允许通过环境变量注入，避免写入配置文件
	v.SetEnvPrefix("RUMOR")
	v.BindEnv("vote.salt", "RUMOR_VOTE_SALT")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate 启动期校验，盐值缺失直接失败而不是退回默认值
func (c *Config) Validate() error {
	if c.Vote.Salt == "" {
		return apperrors.New(apperrors.KindConfiguration, "vote.salt is required and has no default", nil)
	}
	if c.Resolution.DebunkThreshold >= c.Resolution.VerifyThreshold {
		return apperrors.New(apperrors.KindConfiguration, "resolution thresholds overlap", nil)
	}
	return nil
}
