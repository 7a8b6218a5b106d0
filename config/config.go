package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alejandrodnm/signalroom/internal/classifier"
	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de signalroom.
type Config struct {
	Input      InputConfig         `yaml:"input"`
	Simulation SimulationConfig    `yaml:"simulation"`
	Classifier classifier.Patterns `yaml:"classifier"`
	Report     ReportConfig        `yaml:"report"`
	Storage    StorageConfig       `yaml:"storage"`
	Telegram   TelegramConfig      `yaml:"telegram"`
	Schedule   ScheduleConfig      `yaml:"schedule"`
	Metrics    MetricsConfig       `yaml:"metrics"`
	Log        LogConfig           `yaml:"log"`
}

// InputConfig controla de dónde se leen los mensajes.
type InputConfig struct {
	Path          string   `yaml:"path" default:"mensagens.csv" validate:"required_unless=Format db"`
	Format        string   `yaml:"format" default:"csv" validate:"oneof=csv textlog db"`
	TimeLayouts   []string `yaml:"time_layouts"` // vacío = domain.DefaultTimeLayouts
	Timezone      string   `yaml:"timezone" default:"UTC"`
	NaiveTimezone string   `yaml:"naive_timezone" default:"UTC"` // timestamps sin offset; la exportación de Telegram escribe UTC
}

// SimulationConfig es el modelo de pago del martingale.
type SimulationConfig struct {
	Stake           float64   `yaml:"stake" default:"10" validate:"gt=0"`
	Payout          float64   `yaml:"payout" default:"0.9" validate:"gt=0"`
	GaleMultipliers []float64 `yaml:"gale_multipliers" default:"[1,2,4]" validate:"len=3,dive,gt=0"`
}

// ReportConfig controla la presentación.
type ReportConfig struct {
	RecentLimit int  `yaml:"recent_limit" default:"50" validate:"gte=1,lte=1000"`
	Table       bool `yaml:"table"` // false = resumen de una línea
}

// StorageConfig controla dónde se persisten los mensajes.
type StorageConfig struct {
	DSN           string `yaml:"dsn" default:"signalroom.db" validate:"required"` // ruta al archivo SQLite, o ":memory:"
	RetentionDays int    `yaml:"retention_days" validate:"gte=0"`                 // 0 = no borrar nunca
}

// TelegramConfig controla el listener en vivo.
type TelegramConfig struct {
	BotToken         string  `yaml:"bot_token"`
	ChatIDs          []int64 `yaml:"chat_ids"`
	ReportChatID     int64   `yaml:"report_chat_id"`
	RepliesPerSecond float64 `yaml:"replies_per_second" default:"1" validate:"gt=0"`
}

// ScheduleConfig controla el reporte programado del modo listen.
type ScheduleConfig struct {
	ReportCron string `yaml:"report_cron" default:"0 0 22 * * *"` // con segundos; vacío = sin reporte
}

// MetricsConfig controla el endpoint de Prometheus.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" default:":9100" validate:"required_if=Enabled true"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

// ErrListenNotConfigured se devuelve si falta configuración de Telegram.
var ErrListenNotConfigured = errors.New("telegram listener not configured")

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// Parse aplica los defaults, decodifica el YAML encima, aplica overrides de
// entorno y valida. Un valor vacío explícito en el YAML se respeta
// (report_cron: "" desactiva el reporte programado).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate comprueba tags y reglas que cruzan campos.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	if _, err := c.NaiveLocation(); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	if _, err := c.PayoutModel(); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	if c.Schedule.ReportCron != "" {
		if _, err := cronParser.Parse(c.Schedule.ReportCron); err != nil {
			return fmt.Errorf("config.Validate: report_cron %q: %w", c.Schedule.ReportCron, err)
		}
	}
	return nil
}

// ValidateListen comprueba lo que el modo listen necesita además de Validate.
func (c *Config) ValidateListen() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("config.ValidateListen: %w: bot_token is empty (set TELEGRAM_BOT_TOKEN)", ErrListenNotConfigured)
	}
	if len(c.Telegram.ChatIDs) == 0 {
		return fmt.Errorf("config.ValidateListen: %w: chat_ids is empty", ErrListenNotConfigured)
	}
	return nil
}

// Location devuelve la zona horaria de la sala.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Input.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Input.Timezone, err)
	}
	return loc, nil
}

// NaiveLocation devuelve la zona en la que se leen los timestamps sin offset.
func (c *Config) NaiveLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Input.NaiveTimezone)
	if err != nil {
		return nil, fmt.Errorf("naive_timezone %q: %w", c.Input.NaiveTimezone, err)
	}
	return loc, nil
}

// PayoutModel construye el modelo de pago de la simulación.
func (c *Config) PayoutModel() (domain.PayoutModel, error) {
	return domain.NewPayoutModel(c.Simulation.Stake, c.Simulation.Payout, c.Simulation.GaleMultipliers)
}

// Retention devuelve la ventana de retención; 0 si no hay.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Storage.RetentionDays) * 24 * time.Hour
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("SIGNALROOM_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}
