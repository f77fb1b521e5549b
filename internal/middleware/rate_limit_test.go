package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func TestMutationRateLimitPerAccount(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/accounts/:accountId/deposits", MutationRateLimit(cache, 2), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	post := func(account string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/accounts/"+account+"/deposits", strings.NewReader("{}"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		return resp.StatusCode
	}

	if code := post("acc-1"); code != fiber.StatusCreated {
		t.Fatalf("first call: expected 201, got %d", code)
	}
	if code := post("acc-1"); code != fiber.StatusCreated {
		t.Fatalf("second call: expected 201, got %d", code)
	}
	if code := post("acc-1"); code != fiber.StatusTooManyRequests {
		t.Fatalf("third call: expected 429, got %d", code)
	}

	// A different account has its own window.
	if code := post("acc-2"); code != fiber.StatusCreated {
		t.Fatalf("other account: expected 201, got %d", code)
	}
}

func TestMutationRateLimitWithoutCacheIsNoop(t *testing.T) {
	app := fiber.New()
	app.Post("/accounts/:accountId/deposits", MutationRateLimit(nil, 1), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(fiber.MethodPost, "/accounts/acc-1/deposits", strings.NewReader("{}"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("expected 201 without cache, got %d", resp.StatusCode)
		}
	}
}
