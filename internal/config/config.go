package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting the console reads from the environment.
type Config struct {
	APIRoot     string `validate:"required,url"`
	PushRoot    string `validate:"required,url"`
	Username    string
	AccessToken string `validate:"required"`

	AdminPollInterval time.Duration `validate:"gte=0"`
	UserPollInterval  time.Duration `validate:"gte=0"`

	SearchDebounce time.Duration `validate:"gte=0"`
	SearchMinChars int           `validate:"gte=1"`

	ReconnectAttempts int           `validate:"gte=0,lte=20"`
	ReconnectBackoff  time.Duration `validate:"gte=0"`

	ErrorNoticeTTL   time.Duration `validate:"gt=0"`
	SuccessNoticeTTL time.Duration `validate:"gt=0"`

	RedisAddr       string        `validate:"omitempty,hostname_port"`
	HistoryCacheTTL time.Duration `validate:"gte=0"`
	MySQLDSN        string

	StatusHTTPAddr string `validate:"omitempty,hostname_port"`
	StatusGRPCAddr string `validate:"omitempty,hostname_port"`

	LogLevel  string `validate:"oneof=panic fatal error warn warning info debug trace"`
	LogFormat string `validate:"oneof=json text"`
}

func Default() Config {
	return Config{
		APIRoot:           "http://127.0.0.1:8000/api/",
		PushRoot:          "ws://127.0.0.1:8000/",
		AdminPollInterval: 10 * time.Second,
		SearchDebounce:    300 * time.Millisecond,
		SearchMinChars:    2,
		ReconnectBackoff:  time.Second,
		ErrorNoticeTTL:    3 * time.Second,
		SuccessNoticeTTL:  5 * time.Second,
		HistoryCacheTTL:   24 * time.Hour,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Load reads the optional env files (".env" when none are given) into the
// process environment and builds a Config from it. Missing files are fine.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup over Default. It parses but does not
// validate; callers apply flag overrides first and then call Validate.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.str("API_ROOT", &cfg.APIRoot)
	p.str("PUSH_ROOT", &cfg.PushRoot)
	p.str("ORDER_USERNAME", &cfg.Username)
	p.str("ACCESS_TOKEN", &cfg.AccessToken)
	p.duration("ADMIN_POLL_INTERVAL", &cfg.AdminPollInterval)
	p.duration("USER_POLL_INTERVAL", &cfg.UserPollInterval)
	p.duration("SEARCH_DEBOUNCE", &cfg.SearchDebounce)
	p.integer("SEARCH_MIN_CHARS", &cfg.SearchMinChars)
	p.integer("PUSH_RECONNECT_ATTEMPTS", &cfg.ReconnectAttempts)
	p.duration("PUSH_RECONNECT_BACKOFF", &cfg.ReconnectBackoff)
	p.duration("ERROR_NOTICE_TTL", &cfg.ErrorNoticeTTL)
	p.duration("SUCCESS_NOTICE_TTL", &cfg.SuccessNoticeTTL)
	p.str("REDIS_ADDR", &cfg.RedisAddr)
	p.duration("HISTORY_CACHE_TTL", &cfg.HistoryCacheTTL)
	p.str("MYSQL_DSN", &cfg.MySQLDSN)
	p.str("STATUS_HTTP_ADDR", &cfg.StatusHTTPAddr)
	p.str("STATUS_GRPC_ADDR", &cfg.StatusGRPCAddr)
	p.str("LOG_LEVEL", &cfg.LogLevel)
	p.str("LOG_FORMAT", &cfg.LogFormat)

	if len(p.errs) > 0 {
		return Config{}, errors.Join(p.errs...)
	}
	return cfg, nil
}

var validate = validator.New()

func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, ve := range verrs {
		fields = append(fields, ve.Field()+": "+ve.Tag())
	}
	sort.Strings(fields)
	return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}

func (p *parser) integer(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}
