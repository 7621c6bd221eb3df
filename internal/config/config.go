package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores dispatcher service settings.
type Config struct {
	Port      int
	Kafka     Kafka
	Dispatch  Dispatch
	Ticks     Ticks
	Publisher Publisher
}

// Kafka stores message bus connection settings. Empty brokers disable the
// synchronization layer, the service then runs on local state only.
type Kafka struct {
	Brokers []string
	GroupID string
}

// Dispatch stores matching and monitoring tunables.
type Dispatch struct {
	WorkingRangeKm       float64
	MinWorkingRangeKm    float64
	AvgSpeedKmh          float64
	WaitingTimeHours     float64
	ProximityToleranceKm float64
	MissThreshold        int
	NotifyDebounce       time.Duration
}

// Ticks stores the periods of the background jobs.
type Ticks struct {
	Dispatch     time.Duration
	Notification time.Duration
	Cancellation time.Duration
	SpeedRefresh time.Duration
}

// Publisher stores the outbound publish queue settings.
type Publisher struct {
	QueueSize int
	Workers   int
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:      envInt("PORT", defaultPort),
		Kafka:     defaultKafka(),
		Dispatch:  defaultDispatch(),
		Ticks:     defaultTicks(),
		Publisher: defaultPublisher(),
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_GROUP_ID"); v != "" {
		cfg.Kafka.GroupID = v
	}
	cfg.Dispatch.WorkingRangeKm = envFloat("WORKING_RANGE_KM", cfg.Dispatch.WorkingRangeKm)
	cfg.Dispatch.AvgSpeedKmh = envFloat("AVG_COURIER_SPEED_KMH", cfg.Dispatch.AvgSpeedKmh)

	brokers := strings.Join(cfg.Kafka.Brokers, ",")
	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.StringVar(&brokers, "kafka-brokers", brokers, "comma-separated kafka broker list")
	pflag.Parse()
	cfg.Kafka.Brokers = splitList(brokers)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Dispatch.WorkingRangeKm <= 0 {
		return nil, fmt.Errorf("invalid working range: %f", cfg.Dispatch.WorkingRangeKm)
	}
	if cfg.Dispatch.AvgSpeedKmh <= 0 {
		return nil, fmt.Errorf("invalid avg courier speed: %f", cfg.Dispatch.AvgSpeedKmh)
	}
	return cfg, nil
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(name string, def float64) float64 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
