package configuration

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/velora-hq/velora-hcm/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		panic(err)
	}
	return c
})

// Use returns the process-wide configuration, loading it on first use.
func Use() *Configuration {
	return singleton()
}

// LoadEnv loads the given env files that exist, in order.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"velora_hcm"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

// LifecycleOptions configures the change-request workflow: rehire cool-off,
// the deferred-apply sweep, and the role sets gating each transition kind.
type LifecycleOptions struct {
	RehireCoolOffDays      int           `env:"REHIRE_COOL_OFF_DAYS" envDefault:"90"`
	SweepEnabled           bool          `env:"LIFECYCLE_SWEEP_ENABLED" envDefault:"true"`
	SweepInterval          time.Duration `env:"LIFECYCLE_SWEEP_INTERVAL" envDefault:"24h"`
	SweepBatchSize         int           `env:"LIFECYCLE_SWEEP_BATCH_SIZE" envDefault:"200"`
	PromotionAuthorRoles   []string      `env:"PROMOTION_AUTHOR_ROLES" envSeparator:"," envDefault:"manager,hr"`
	PromotionApproverRoles []string      `env:"PROMOTION_APPROVER_ROLES" envSeparator:"," envDefault:"hr,admin"`
	RehireAuthorRoles      []string      `env:"REHIRE_AUTHOR_ROLES" envSeparator:"," envDefault:"hr,recruiter"`
	RehireDeciderRoles     []string      `env:"REHIRE_DECIDER_ROLES" envSeparator:"," envDefault:"hr,admin"`
}

func (l *LifecycleOptions) Validate() error {
	if l.RehireCoolOffDays < 0 {
		return fmt.Errorf("REHIRE_COOL_OFF_DAYS must be non-negative, got %d", l.RehireCoolOffDays)
	}
	if l.SweepInterval < time.Minute {
		return fmt.Errorf("LIFECYCLE_SWEEP_INTERVAL must be at least 1m, got %s", l.SweepInterval)
	}
	if l.SweepBatchSize <= 0 {
		return fmt.Errorf("LIFECYCLE_SWEEP_BATCH_SIZE must be positive, got %d", l.SweepBatchSize)
	}
	for name, roles := range map[string][]string{
		"PROMOTION_AUTHOR_ROLES":   l.PromotionAuthorRoles,
		"PROMOTION_APPROVER_ROLES": l.PromotionApproverRoles,
		"REHIRE_AUTHOR_ROLES":      l.RehireAuthorRoles,
		"REHIRE_DECIDER_ROLES":     l.RehireDeciderRoles,
	} {
		if len(roles) == 0 {
			return fmt.Errorf("%s must name at least one role", name)
		}
	}
	return nil
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Database   DatabaseOptions
	Lifecycle  LifecycleOptions
	Prometheus PrometheusOptions

	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":3200"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogPath       string `env:"LOG_PATH" envDefault:""`
	Environment   string `env:"GO_APP_ENV" envDefault:"development"`
	RLSEnforce    string `env:"RLS_ENFORCE" envDefault:"off"`

	logger *logrus.Logger
}

func (c *Configuration) load(envFiles []string) error {
	if _, err := LoadEnv(envFiles); err != nil {
		return err
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	c.Database.Opts = c.Database.ConnectionString()
	if err := c.Lifecycle.Validate(); err != nil {
		return err
	}

	level, err := logrus.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	c.logger = logging.Setup(level, c.LogPath)
	return nil
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}
