package config

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "v")
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "42")
	t.Setenv("X_BADINT", "4x")
	t.Setenv("X_DUR", "90s")

	if envStr("X_STR", "d") != "v" || envStr("X_MISSING", "d") != "d" {
		t.Error("envStr")
	}
	if envBool("X_BOOL", true) || !envBool("X_MISSING", true) {
		t.Error("envBool")
	}
	if envInt("X_INT", 1) != 42 || envInt("X_BADINT", 7) != 7 {
		t.Error("envInt")
	}
	if envDur("X_DUR", time.Second) != 90*time.Second {
		t.Error("envDur")
	}
}

func TestRateLimitNormalize(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Errorf("capacity %d", cfg.Capacity)
	}
	if cfg.TTL != 10*time.Second {
		t.Errorf("ttl %s, want five refill intervals", cfg.TTL)
	}

	login := LoadLoginRateLimitConfig()
	if login.Capacity != 5 || login.KeyStrategy != "ip_route" || login.Prefix != "rl:login" {
		t.Errorf("login limiter %+v", login)
	}
}

func TestCacheMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", " get, head ,")
	cfg := LoadCacheConfig()
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || len(cfg.Methods) != 2 {
		t.Errorf("methods %v", cfg.Methods)
	}
}

func TestNewLogger(t *testing.T) {
	for _, enc := range []string{"json", "console"} {
		log, err := NewLogger(LoggerConfig{Level: "nonsense", Encoding: enc})
		if err != nil {
			t.Fatalf("%s: %v", enc, err)
		}
		if !log.Core().Enabled(0) { // info
			t.Errorf("%s: info disabled", enc)
		}
	}
}

func TestAMQPURL(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://x@broker:5672/")
	if got := AMQPURL(); got != "amqp://x@broker:5672/" {
		t.Errorf("AMQPURL = %s", got)
	}
}
