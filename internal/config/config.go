package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	CacheDBPath string
	OutputDir   string

	NominatimBaseURL     string
	PhotonBaseURL        string
	GeocoderUserAgent    string
	GeocoderTimeoutMs    int
	GeocoderRateLimitRPS int
	GeocoderCountryCodes string
	GeocoderCacheEnabled bool

	ProgressEvery int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		CacheDBPath: getEnv("CACHE_DB_PATH", filepath.Join(cwd, "data", "geocode.db")),
		OutputDir:   getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		NominatimBaseURL:     getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		PhotonBaseURL:        getEnv("PHOTON_BASE_URL", "https://photon.komoot.io"),
		GeocoderUserAgent:    getEnv("GEOCODER_USER_AGENT", "icndb-geocoder/1.0"),
		GeocoderTimeoutMs:    getEnvInt("GEOCODER_TIMEOUT_MS", 10000),
		GeocoderRateLimitRPS: getEnvInt("GEOCODER_RATE_LIMIT_RPS", 1),
		GeocoderCountryCodes: getEnv("GEOCODER_COUNTRY_CODES", "au"),
		GeocoderCacheEnabled: getEnvBool("GEOCODER_CACHE", true),

		ProgressEvery: getEnvInt("PROGRESS_EVERY", 100),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
