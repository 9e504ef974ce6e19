package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"CapStore/internal/catalog"
)

type Config struct {
	Port         string
	LogLevel     string
	JWTSecret    string
	MetricsToken string

	DatabaseURL     string
	RedisURL        string
	CacheTTL        time.Duration
	StorefrontURL   string
	FetchTimeout    time.Duration
	MissingPrice    catalog.MissingPrice
	QueryLimit      int
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaGroup      string
	CollectionsFile string

	Collections []catalog.Collection
}

// Load reads .env (when present), the environment, and the collections file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port:            getenv("PORT", "8082"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		MetricsToken:    os.Getenv("METRICS_TOKEN"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		StorefrontURL:   os.Getenv("STOREFRONT_URL"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      getenv("KAFKA_TOPIC", "catalog.updated"),
		KafkaGroup:      getenv("KAFKA_CONSUMER_GROUP", "catalog"),
		CollectionsFile: getenv("COLLECTIONS_FILE", "collections.yaml"),
	}

	var err error
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.QueryLimit, err = getInt("QUERY_LIMIT_PER_MIN", 120); err != nil {
		return Config{}, err
	}
	if cfg.MissingPrice, err = ParseMissingPrice(getenv("MISSING_PRICE", "zero")); err != nil {
		return Config{}, err
	}

	if cfg.Collections, err = LoadCollections(cfg.CollectionsFile); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ParseMissingPrice(s string) (catalog.MissingPrice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero":
		return catalog.MissingPriceZero, nil
	case "last":
		return catalog.MissingPriceLast, nil
	}
	return 0, fmt.Errorf("MISSING_PRICE: unknown policy %q", s)
}

type collectionsFile struct {
	Collections []collectionEntry `yaml:"collections"`
}

type collectionEntry struct {
	Name       string   `yaml:"name"`
	Categories []string `yaml:"categories"`
	CatchAll   string   `yaml:"catch_all"`
}

// DefaultCollections are the storefront's camo and kids sections.
func DefaultCollections() []catalog.Collection {
	return []catalog.Collection{
		catalog.MustCollection("camo", catalog.DefaultCatchAll, "camo-collection"),
		catalog.MustCollection("kids", catalog.DefaultCatchAll, "kids-collection"),
	}
}

// LoadCollections reads collection declarations from a YAML file. A missing
// file yields the defaults.
func LoadCollections(path string) ([]catalog.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCollections(), nil
		}
		return nil, fmt.Errorf("read collections: %w", err)
	}
	return ParseCollections(data)
}

func ParseCollections(data []byte) ([]catalog.Collection, error) {
	var f collectionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse collections: %w", err)
	}
	if len(f.Collections) == 0 {
		return DefaultCollections(), nil
	}

	out := make([]catalog.Collection, 0, len(f.Collections))
	for _, e := range f.Collections {
		catchAll := catalog.DefaultCatchAll
		if e.CatchAll != "" {
			catchAll = catalog.KeyOf(e.CatchAll)
		}
		keys := make([]catalog.CategoryKey, 0, len(e.Categories))
		for _, c := range e.Categories {
			keys = append(keys, catalog.KeyOf(c))
		}
		c, err := catalog.NewCollection(e.Name, catchAll, keys...)
		if err != nil {
			return nil, fmt.Errorf("collection %q: %w", e.Name, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func getInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
