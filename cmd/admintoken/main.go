// Command admintoken mints a bearer token for the admin endpoints and for
// backfilled ballots.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"tierlist-ranking/internal/config"
	jwtpkg "tierlist-ranking/internal/platform/jwt"
)

func main() {
	operator := flag.String("operator", "", "who the token is issued to")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *operator == "" {
		log.Fatal("-operator is required")
	}

	cfg := config.Load()
	tok, err := jwtpkg.NewManager(cfg.JWTSecret, "").Generate(*operator, jwtpkg.RoleAdmin, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(tok)
}
