package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env      string
	LogLevel string

	Database  DatabaseConfigs
	ApiServer APIServerConfigs
	Redis     RedisConfigs
	Kafka     KafkaConfigs
	Signer    SignerConfigs
	Schedule  ScheduleConfigs
	Roulette  RouletteConfigs
	Cache     CacheConfigs
	WaitReady WaitReadyConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string

	// SqlitePath is used instead of MySQL when Env is "local".
	SqlitePath string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type APIServerConfigs struct {
	Host string
	Port string

	AllowedOrigins []string

	// SchedulerSecret protects the scheduling and reconcile endpoints. It is
	// compared with the X-Scheduler-Secret header.
	SchedulerSecret string
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr     string
	ClientID string
}

type SignerConfigs struct {
	CurrentVersion int
	// Keys maps a signature version to its secret.
	Keys map[int]string
	// KeyringFile is an optional TOML file which overrides Keys.
	KeyringFile string
}

type ScheduleConfigs struct {
	// Timezone is the reference timezone used to evaluate calendar days.
	Timezone string
}

func (s ScheduleConfigs) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}

type RouletteConfigs struct {
	MaxSpinRetries int
}

type CacheConfigs struct {
	SwitchTTL time.Duration
	PrizeTTL  time.Duration
}

type WaitReadyConfigs struct {
	Interval time.Duration
	Deadline time.Duration
}
