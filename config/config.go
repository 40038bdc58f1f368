package config

import (
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DataPath        string
	ModelPath       string
	PredictionsPath string

	TestSize       float64
	RandomSeed     int64
	MaxConcurrency int
	ImportanceTopK int

	ForestTrees           int
	ForestMaxDepth        int
	ForestMinSamplesSplit int

	BoostRounds       int
	BoostMaxDepth     int
	BoostLearningRate float64

	DisabledEstimators []string

	HeuristicPath string

	HTTPAddr    string
	CORSOrigins []string
	LogLevel    string

	RetrainSchedule string

	RecordRuns       bool
	RunHistoryLimit  int
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DataPath:        getEnv("DATA_PATH", "Delhi_v2.csv"),
		ModelPath:       getEnv("MODEL_PATH", "house_price_model.gob"),
		PredictionsPath: getEnv("PREDICTIONS_PATH", "predictions.csv"),

		TestSize:       getEnvFloat("TEST_SIZE", 0.2),
		RandomSeed:     int64(getEnvInt("RANDOM_SEED", 42)),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", runtime.NumCPU()),
		ImportanceTopK: getEnvInt("IMPORTANCE_TOP_K", 20),

		ForestTrees:           getEnvInt("RF_TREES", 100),
		ForestMaxDepth:        getEnvInt("RF_MAX_DEPTH", 20),
		ForestMinSamplesSplit: getEnvInt("RF_MIN_SAMPLES_SPLIT", 5),

		BoostRounds:       getEnvInt("GBT_ROUNDS", 100),
		BoostMaxDepth:     getEnvInt("GBT_MAX_DEPTH", 6),
		BoostLearningRate: getEnvFloat("GBT_LEARNING_RATE", 0.1),

		DisabledEstimators: getEnvList("DISABLED_ESTIMATORS"),

		HeuristicPath: getEnv("HEURISTIC_PATH", ""),

		HTTPAddr:    getEnv("HTTP_ADDR", ":5000"),
		CORSOrigins: getEnvList("CORS_ORIGINS"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		RetrainSchedule: getEnv("RETRAIN_CRON", "0 3 * * *"),

		RecordRuns:       getEnvBool("RECORD_RUNS", false),
		RunHistoryLimit:  getEnvInt("RUN_HISTORY_LIMIT", 10),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "houseprice"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "houseprice123"),
		PostgresDB:       getEnv("POSTGRES_DB", "houseprice_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
