package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backends de datos, bloqueo y caché de códigos.
const (
	BackendHasura   = "hasura"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	HTTP   HTTPConfig
	DB     DBConfig
	Hasura HasuraConfig
	Redis  RedisConfig
	JWT    JWTConfig
	WeChat WeChatConfig
	Auth   AuthConfig
	Store  StoreConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// IsDevelopment indica si se ejecuta en desarrollo.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // orígenes permitidos por CORS; vacío = ninguno
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int32
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HasuraConfig endpoint GraphQL y admin secret.
type HasuraConfig struct {
	Endpoint    string
	AdminSecret string
	Timeout     time.Duration
}

// RedisConfig conexión a Redis y TTL de los bloqueos.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// WeChatConfig credenciales del mini programa.
type WeChatConfig struct {
	AppID     string
	AppSecret string
	BaseURL   string
}

// AuthConfig códigos de verificación, coste bcrypt y administrador inicial.
type AuthConfig struct {
	CodeTTL       time.Duration
	CodeLength    int
	BcryptCost    int
	AdminPhone    string // si no está vacío se asegura una cuenta admin al arrancar
	AdminPassword string
}

// StoreConfig selección de adaptadores.
type StoreConfig struct {
	DataBackend  string // hasura | postgres | memory
	LockBackend  string // redis | memory
	CacheBackend string // redis | memory
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DATA_BACKEND, HASURA_GRAPHQL_ENDPOINT, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "agromarket-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host:           getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:           getInt(v, "HTTP_PORT", 8080),
			AllowedOrigins: getList(v, "CORS_ALLOWED_ORIGINS"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "agromarket"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    int32(getInt(v, "DB_MAX_CONNS", 25)),
		},
		Hasura: HasuraConfig{
			Endpoint:    getString(v, "HASURA_GRAPHQL_ENDPOINT", "http://localhost:8081/v1/graphql"),
			AdminSecret: getString(v, "HASURA_GRAPHQL_ADMIN_SECRET", ""),
			Timeout:     seconds(getInt(v, "HASURA_TIMEOUT_SECONDS", 10)),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
			LockTTL:  seconds(getInt(v, "LOCK_TTL_SECONDS", 30)),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60*24*7),
			Issuer:     getString(v, "JWT_ISSUER", "agromarket-api"),
		},
		WeChat: WeChatConfig{
			AppID:     getString(v, "WX_APP_ID", ""),
			AppSecret: getString(v, "WX_APP_SECRET", ""),
			BaseURL:   getString(v, "WX_BASE_URL", "https://api.weixin.qq.com"),
		},
		Auth: AuthConfig{
			CodeTTL:       seconds(getInt(v, "AUTH_CODE_TTL_SECONDS", 300)),
			CodeLength:    getInt(v, "AUTH_CODE_LENGTH", 4),
			BcryptCost:    getInt(v, "BCRYPT_COST", 10),
			AdminPhone:    getString(v, "ADMIN_BOOTSTRAP_PHONE", ""),
			AdminPassword: getString(v, "ADMIN_BOOTSTRAP_PASSWORD", ""),
		},
		Store: StoreConfig{
			DataBackend:  strings.ToLower(getString(v, "DATA_BACKEND", BackendHasura)),
			LockBackend:  strings.ToLower(getString(v, "LOCK_BACKEND", BackendMemory)),
			CacheBackend: strings.ToLower(getString(v, "CACHE_BACKEND", BackendMemory)),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate comprueba los valores que impedirían arrancar.
func (c *Config) Validate() error {
	switch c.Store.DataBackend {
	case BackendHasura, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("DATA_BACKEND inválido: %q", c.Store.DataBackend)
	}
	for name, b := range map[string]string{"LOCK_BACKEND": c.Store.LockBackend, "CACHE_BACKEND": c.Store.CacheBackend} {
		if b != BackendRedis && b != BackendMemory {
			return fmt.Errorf("%s inválido: %q", name, b)
		}
	}
	if c.JWT.Secret == "" && !c.App.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET es obligatorio fuera de development")
	}
	if c.Auth.AdminPhone != "" && c.Auth.AdminPassword == "" {
		return fmt.Errorf("ADMIN_BOOTSTRAP_PASSWORD es obligatorio si se define ADMIN_BOOTSTRAP_PHONE")
	}
	return nil
}

// String resumen para logs con los secretos enmascarados.
func (c Config) String() string {
	return fmt.Sprintf(
		"env=%s http=%s data=%s lock=%s cache=%s hasura=%s hasura_secret=%s db=%s redis=%s redis_password=%s jwt_secret=%s wx_app_id=%s wx_secret=%s",
		c.App.Env, c.HTTP.Addr(), c.Store.DataBackend, c.Store.LockBackend, c.Store.CacheBackend,
		c.Hasura.Endpoint, mask(c.Hasura.AdminSecret), redactDSN(c.DB.ConnectionString()),
		c.Redis.Addr, mask(c.Redis.Password), mask(c.JWT.Secret), c.WeChat.AppID, mask(c.WeChat.AppSecret),
	)
}

func mask(s string) string {
	if s == "" {
		return "<vacío>"
	}
	return "****"
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "****"
	}
	return u.Redacted()
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

// getList separa por comas y descarta vacíos.
func getList(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v.GetString(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
