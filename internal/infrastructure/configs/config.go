package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/lunahex/mimic/internal/infrastructure/env"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	Game        GameConfig        `koanf:"game"`
	Session     SessionConfig     `koanf:"session"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	PerSecond int           `koanf:"per_second"`
	Burst     int           `koanf:"burst"`
	TTL       time.Duration `koanf:"ttl"`
}

// GameConfig carries every timing knob of a match. Windows are policy,
// not protocol, so they all live here rather than in code.
type GameConfig struct {
	CountdownFrom    int           `koanf:"countdown_from"`
	InputTimeoutBase time.Duration `koanf:"input_timeout_base"`
	InputTimeoutStep time.Duration `koanf:"input_timeout_step"`
	InputTimeoutMin  time.Duration `koanf:"input_timeout_min"`
	DisconnectBuffer time.Duration `koanf:"disconnect_buffer"`
	DisconnectGrace  time.Duration `koanf:"disconnect_grace"`
	DeadRoomTTL      time.Duration `koanf:"dead_room_ttl"`
	CleanupInterval  time.Duration `koanf:"cleanup_interval"`
}

// InputTimeout returns the submission window for a round: the base
// window shrinks by one step per round, floored at the minimum.
func (g GameConfig) InputTimeout(round int) time.Duration {
	if round < 1 {
		round = 1
	}

	d := g.InputTimeoutBase - time.Duration(round-1)*g.InputTimeoutStep
	if d < g.InputTimeoutMin {
		return g.InputTimeoutMin
	}

	return d
}

type SessionConfig struct {
	Secret string        `koanf:"secret"`
	MaxAge time.Duration `koanf:"max_age"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	// HTTP defaults
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})

	// Rate limiter defaults
	setDefault(k, "rateLimiter.per_second", 10)
	setDefault(k, "rateLimiter.burst", 20)
	setDefault(k, "rateLimiter.ttl", 5*time.Minute)

	// Game defaults
	setDefault(k, "game.countdown_from", 3)
	setDefault(k, "game.input_timeout_base", 30*time.Second)
	setDefault(k, "game.input_timeout_step", time.Second)
	setDefault(k, "game.input_timeout_min", 10*time.Second)
	setDefault(k, "game.disconnect_buffer", 5*time.Second)
	setDefault(k, "game.disconnect_grace", 60*time.Second)
	setDefault(k, "game.dead_room_ttl", 2*time.Minute)
	setDefault(k, "game.cleanup_interval", 30*time.Second)

	// Session defaults
	setDefault(k, "session.secret", "dev-only-secret")
	setDefault(k, "session.max_age", 12*time.Hour)
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	if perSecond := env.GetInt("RATE_LIMIT_PER_SECOND", 0); perSecond > 0 {
		k.Set("rateLimiter.per_second", perSecond)
	}
	if burst := env.GetInt("RATE_LIMIT_BURST", 0); burst > 0 {
		k.Set("rateLimiter.burst", burst)
	}

	if buffer := env.GetInt("GAME_DISCONNECT_BUFFER_SECONDS", 0); buffer > 0 {
		k.Set("game.disconnect_buffer", time.Duration(buffer)*time.Second)
	}
	if grace := env.GetInt("GAME_DISCONNECT_GRACE_SECONDS", 0); grace > 0 {
		k.Set("game.disconnect_grace", time.Duration(grace)*time.Second)
	}
	if timeout := env.GetInt("GAME_INPUT_TIMEOUT_SECONDS", 0); timeout > 0 {
		k.Set("game.input_timeout_base", time.Duration(timeout)*time.Second)
	}

	if secret := env.GetString("SESSION_SECRET", ""); secret != "" {
		k.Set("session.secret", secret)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
