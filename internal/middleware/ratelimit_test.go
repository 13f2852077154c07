package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestLoadRateLimitConfig_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("RATE_LIMIT_GLOBAL_API", "50")
	t.Setenv("RATE_LIMIT_ASSISTANT", "5")
	t.Setenv("RATE_LIMIT_WEBSOCKET", "not-a-number")

	cfg := LoadRateLimitConfig()

	if cfg.GlobalAPIMax != 50 {
		t.Errorf("GlobalAPIMax = %d, want 50", cfg.GlobalAPIMax)
	}
	if cfg.AssistantMax != 5 {
		t.Errorf("AssistantMax = %d, want 5", cfg.AssistantMax)
	}
	if cfg.WebSocketMax != DefaultRateLimitConfig().WebSocketMax {
		t.Errorf("invalid override should keep the default, got %d", cfg.WebSocketMax)
	}
}

func TestLoadRateLimitConfig_Development(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	if cfg := LoadRateLimitConfig(); cfg.GlobalAPIMax != 1000 {
		t.Errorf("development GlobalAPIMax = %d, want 1000", cfg.GlobalAPIMax)
	}
}

func TestAssistantRateLimiter_Blocks(t *testing.T) {
	app := fiber.New()
	app.Use(AssistantRateLimiter(&RateLimitConfig{
		AssistantMax:        2,
		AssistantExpiration: time.Minute,
	}))
	app.Post("/api/assistant", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i, want := range []int{200, 200, 429} {
		resp, err := app.Test(httptest.NewRequest("POST", "/api/assistant", nil))
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if resp.StatusCode != want {
			t.Errorf("request %d: status %d, want %d", i, resp.StatusCode, want)
		}
	}
}
