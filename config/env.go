package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultLocalDriver   = "sqlite"
	defaultLocalPath     = "designhaven.db"
	defaultPebblePath    = "designhaven.pebble"
	defaultMongoDatabase = "designhaven"
	defaultRedisAddr     = "localhost:6379"
	defaultJWTSecret     = "change-me-in-production"
	defaultAppPort       = "8080"
	defaultAppEnv        = "local"
	defaultAdminName     = "sridharani"
	defaultAdminPassword = "xyz@@21"
	defaultAdminEmail    = "admin@designhaven.com"
	defaultUPIPayee      = "sridharani916@okaxis"
	defaultUPIMerchant   = "DesignHaven"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_PORT":         defaultAppPort,
		"APP_ENV":          defaultAppEnv,
		"MONGO_URI":        "",
		"MONGO_DB":         defaultMongoDatabase,
		"LOCAL_DRIVER":     defaultLocalDriver,
		"LOCAL_PATH":       "",
		"REDIS_ADDR":       defaultRedisAddr,
		"REDIS_PASSWORD":   "",
		"JWT_SECRET":       defaultJWTSecret,
		"ADMIN_NAME":       defaultAdminName,
		"ADMIN_PASSWORD":   defaultAdminPassword,
		"ADMIN_EMAIL":      defaultAdminEmail,
		"UPI_PAYEE":        defaultUPIPayee,
		"UPI_MERCHANT":     defaultUPIMerchant,
		"REFRESH_INTERVAL": "1s",
	}
}

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// ── Remote store ─────────────────────────────────────────────────────────────

// MongoURI returns the remote store connection string. An empty value means
// the remote store is not configured and the service runs local-only.
func MongoURI() string {
	_ = Load()
	return get("MONGO_URI", "")
}

func MongoDatabase() string {
	_ = Load()
	return get("MONGO_DB", defaultMongoDatabase)
}

// ── Local store ──────────────────────────────────────────────────────────────

// LocalDriver selects the local key-value persistence driver.
func LocalDriver() string {
	_ = Load()
	driver := strings.ToLower(get("LOCAL_DRIVER", defaultLocalDriver))
	switch driver {
	case "sqlite", "pebble":
		return driver
	default:
		return defaultLocalDriver
	}
}

// LocalPath returns the on-disk location of the local key-value store.
func LocalPath() string {
	_ = Load()
	if p := get("LOCAL_PATH", ""); p != "" {
		return p
	}
	if LocalDriver() == "pebble" {
		return defaultPebblePath
	}
	return defaultLocalPath
}

// LocalMaxValueBytes caps a single persisted value; oversized writes fail
// with a quota error, mirroring browser storage limits. 0 disables the cap.
func LocalMaxValueBytes() int64 {
	_ = Load()
	n, err := strconv.ParseInt(get("LOCAL_MAX_VALUE_BYTES", "0"), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ── Refresh loop ─────────────────────────────────────────────────────────────

// RefreshInterval is the period of the background reload task.
func RefreshInterval() time.Duration {
	_ = Load()
	d, err := time.ParseDuration(get("REFRESH_INTERVAL", "1s"))
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// ── Auth / payments ──────────────────────────────────────────────────────────

func JWTSecret() string {
	_ = Load()
	return get("JWT_SECRET", defaultJWTSecret)
}

// AdminName is the reserved user name that grants admin access.
func AdminName() string {
	_ = Load()
	return get("ADMIN_NAME", defaultAdminName)
}

// AdminPassword is the owner's credential. The owner account is not in the
// users collection; login checks this value directly.
func AdminPassword() string {
	_ = Load()
	return get("ADMIN_PASSWORD", defaultAdminPassword)
}

// AdminEmail is the address attached to the owner's session.
func AdminEmail() string {
	_ = Load()
	return get("ADMIN_EMAIL", defaultAdminEmail)
}

// UPIPayee is the merchant VPA that payment deep links are addressed to.
func UPIPayee() string {
	_ = Load()
	return get("UPI_PAYEE", defaultUPIPayee)
}

func UPIMerchant() string {
	_ = Load()
	return get("UPI_MERCHANT", defaultUPIMerchant)
}

// ── Redis ────────────────────────────────────────────────────────────────────

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

// ── Storage (uploaded images) ────────────────────────────────────────────────

func StorageDefault() string {
	_ = Load()
	return get("STORAGE_DISK", "local")
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", "storage")
}

func StorageURL() string {
	_ = Load()
	return get("STORAGE_URL", "http://localhost:8080/storage")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		s, ok := val.(string)
		if !ok {
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

// Get reads any config key by name with an optional fallback.
// Keys from .env and app.json are available after config.Load().
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}
