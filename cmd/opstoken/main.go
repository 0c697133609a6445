package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/config"
)

// opstoken mints a signed service token for the ops API, using the same
// secret and TTL configuration the sweeper runs with.
func main() {
	subject := flag.String("subject", "ops-cli", "token subject")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.ServiceTokenTTLHours)
	token, expiresAt, err := tokens.GenerateToken(*subject, auth.ScopeOps)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "subject=%s expires=%s\n", *subject, expiresAt.Format(time.RFC3339))
}
