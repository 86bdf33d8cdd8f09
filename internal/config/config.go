package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Rules   RulesConfig   `yaml:"rules" mapstructure:"rules"`
	SourceA SourceAConfig `yaml:"source_a" mapstructure:"source_a"`
	SourceB SourceBConfig `yaml:"source_b" mapstructure:"source_b"`
	CRM     CRMConfig     `yaml:"crm" mapstructure:"crm"`
	Policy  PolicyConfig  `yaml:"policy" mapstructure:"policy"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the call imports and the lookup tables read per run.
type InputConfig struct {
	CallsDir  string `yaml:"calls_dir" mapstructure:"calls_dir"`
	CRMExport string `yaml:"crm_export" mapstructure:"crm_export"`
	Timezones string `yaml:"timezones" mapstructure:"timezones"`
}

// OutputConfig configures where import workbooks are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// RulesConfig points at the two dispatch rule documents.
type RulesConfig struct {
	Designations string `yaml:"designations" mapstructure:"designations"`
	Conditions   string `yaml:"conditions" mapstructure:"conditions"`
}

// SourceAConfig configures the flat SQLite contact export.
type SourceAConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Table string `yaml:"table" mapstructure:"table"`
}

// SourceBConfig configures the live contact database. Driver is "postgres"
// (DatabaseURL is a postgres:// url) or "mysql" (DatabaseURL is a
// user:pass@tcp(host:3306)/dbname DSN).
type SourceBConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL     string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns        int32  `yaml:"max_conns" mapstructure:"max_conns"`
	LinkCRMDeals    bool   `yaml:"link_crm_deals" mapstructure:"link_crm_deals"`
	ConnectAttempts int    `yaml:"connect_attempts" mapstructure:"connect_attempts"`
}

// CRMConfig holds Pipedrive API settings used by the refresh command.
type CRMConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	APIToken    string `yaml:"api_token" mapstructure:"api_token"`
	PageSize    int    `yaml:"page_size" mapstructure:"page_size"`
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size"`
	RateLimit   int    `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`

	TrackingFlagFieldID int    `yaml:"tracking_flag_field_id" mapstructure:"tracking_flag_field_id"`
	DealStatusFieldID   int    `yaml:"deal_status_field_id" mapstructure:"deal_status_field_id"`
	TrackingFlagKey     string `yaml:"tracking_flag_key" mapstructure:"tracking_flag_key"`
	DealStatusKey       string `yaml:"deal_status_key" mapstructure:"deal_status_key"`
	UniqueDBIDKey       string `yaml:"unique_db_id_key" mapstructure:"unique_db_id_key"`
	OfferReadyKey       string `yaml:"offer_ready_key" mapstructure:"offer_ready_key"`
	OfferReadySmallKey  string `yaml:"offer_ready_small_key" mapstructure:"offer_ready_small_key"`
}

// PolicyConfig names the people the routing rules assign work to.
type PolicyConfig struct {
	Analyst           string   `yaml:"analyst" mapstructure:"analyst"`
	DealOwner         string   `yaml:"deal_owner" mapstructure:"deal_owner"`
	TrackingFlag      string   `yaml:"tracking_flag" mapstructure:"tracking_flag"`
	JuniorAgent       string   `yaml:"junior_agent" mapstructure:"junior_agent"`
	PlaceholderAgents []string `yaml:"placeholder_agents" mapstructure:"placeholder_agents"`
	LookupResolver    string   `yaml:"lookup_resolver" mapstructure:"lookup_resolver"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the settings required by the given command mode
// ("run", "refresh", "lookup" or "dedupe").
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run":
		if c.SourceB.DatabaseURL == "" {
			errs = append(errs, "source_b.database_url is required")
		}
		switch c.SourceB.Driver {
		case "", "postgres", "mysql":
		default:
			errs = append(errs, fmt.Sprintf("source_b.driver %q must be postgres or mysql", c.SourceB.Driver))
		}
		if c.SourceA.Path == "" {
			errs = append(errs, "source_a.path is required")
		}
		if c.Rules.Designations == "" || c.Rules.Conditions == "" {
			errs = append(errs, "rules.designations and rules.conditions are required")
		}
		if c.Input.CRMExport == "" {
			errs = append(errs, "input.crm_export is required")
		}
	case "refresh":
		if c.CRM.APIToken == "" {
			errs = append(errs, "crm.api_token is required")
		}
		if c.CRM.PageSize < 1 || c.CRM.PageSize > 500 {
			errs = append(errs, "crm.page_size must be between 1 and 500")
		}
		if c.CRM.BatchSize < 1 {
			errs = append(errs, "crm.batch_size must be > 0")
		}
	case "lookup":
		if c.Input.CRMExport == "" {
			errs = append(errs, "input.crm_export is required")
		}
	case "dedupe":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Input.CallsDir == "" {
		errs = append(errs, "input.calls_dir is required")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CALLMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.calls_dir", "data/abandoned_calls")
	v.SetDefault("input.crm_export", "data/pipedrive/pipedrive_data.csv")
	v.SetDefault("input.timezones", "data/tz_file/Time Zones.csv")
	v.SetDefault("output.dir", "output")
	v.SetDefault("rules.designations", "data/conditions_input/user_designation.json")
	v.SetDefault("rules.conditions", "data/conditions_input/conditions_dict.json")
	v.SetDefault("source_a.path", "data/database/bottoms_up")
	v.SetDefault("source_a.table", "bottoms_up")
	v.SetDefault("source_b.driver", "postgres")
	v.SetDefault("source_b.database_url", "")
	v.SetDefault("source_b.max_conns", 4)
	v.SetDefault("source_b.link_crm_deals", false)
	v.SetDefault("source_b.connect_attempts", 3)
	v.SetDefault("crm.base_url", "https://api.pipedrive.com")
	v.SetDefault("crm.api_token", "")
	v.SetDefault("crm.page_size", 500)
	v.SetDefault("crm.batch_size", 5)
	v.SetDefault("crm.rate_limit", 10)
	v.SetDefault("crm.timeout_secs", 30)
	v.SetDefault("crm.tracking_flag_field_id", 12560)
	v.SetDefault("crm.deal_status_field_id", 12496)
	v.SetDefault("crm.tracking_flag_key", "1ed94338f4ab22269018b9b3f37b0967172c0c20")
	v.SetDefault("crm.deal_status_key", "a8b479cb304320c246021ded79cb84243dd67b6f")
	v.SetDefault("crm.unique_db_id_key", "cf55ab58ba9377b340fe91a7886591cac6cafabd")
	v.SetDefault("crm.offer_ready_key", "9303acb9715bc55f1641f24266d13133b05f8c5d")
	v.SetDefault("crm.offer_ready_small_key", "de5b9ae6977eac029ca827c10722948055d982e3")
	v.SetDefault("policy.analyst", "Jannin")
	v.SetDefault("policy.deal_owner", "Stephanie")
	v.SetDefault("policy.tracking_flag", "PA - Joyce")
	v.SetDefault("policy.junior_agent", "Froiland Maniulit")
	v.SetDefault("policy.placeholder_agents", []string{"Anna Grace Tayag", "Jude Gella", "Marketing Team", "Your Number"})
	v.SetDefault("policy.lookup_resolver", "Joyce Marie Gempesaw")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
