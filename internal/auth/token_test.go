package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 1)

	token, expiresAt, err := tm.GenerateToken("ops-cli", ScopeOps)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if expiresAt.IsZero() {
		t.Fatal("expiry not set")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "ops-cli" || claims.Scope != ScopeOps {
		t.Fatalf("claims = %q/%q, want ops-cli/%s", claims.Subject, claims.Scope, ScopeOps)
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 1).GenerateToken("ops-cli", ScopeOps)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("secret-b", 1).ParseToken(token); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}
}

func TestMiddlewareEnforcesScope(t *testing.T) {
	tm := NewTokenManager("test-secret", 1)
	middleware := NewAuthMiddleware(tm)

	app := fiber.New()
	app.Get("/protected", middleware.Handle, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			t.Error("principal missing from context")
		} else if principal.Subject != "ops-cli" {
			t.Errorf("subject = %q, want ops-cli", principal.Subject)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	opsToken, _, err := tm.GenerateToken("ops-cli", ScopeOps)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	wrongScope, _, err := tm.GenerateToken("ops-cli", "reporting")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid ops token", "Bearer " + opsToken, fiber.StatusOK},
		{"wrong scope", "Bearer " + wrongScope, fiber.StatusInternalServerError},
		{"missing header", "", fiber.StatusInternalServerError},
		{"malformed header", "Token abc", fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			if tc.want == fiber.StatusOK && resp.StatusCode != fiber.StatusOK {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
			if tc.want != fiber.StatusOK && resp.StatusCode == fiber.StatusOK {
				t.Fatalf("unauthenticated request passed with status %d", resp.StatusCode)
			}
		})
	}
}
