package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"momo-proxy-backend/internal/config"
	"momo-proxy-backend/internal/security"
)

// tokengen mints partner and operator access tokens, or hashes an ingest
// token for the config file.
func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	companyID := flag.Int("company", 0, "Company ID the token is scoped to")
	partnerCode := flag.String("partner", "", "Partner code")
	roles := flag.String("roles", security.RolePartner, "Comma-separated roles (partner, operator)")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "Token lifetime")
	ingest := flag.String("hash-ingest", "", "Print the bcrypt hash of this ingest token and exit")
	flag.Parse()

	if *ingest != "" {
		hash, err := security.HashIngestToken(*ingest)
		if err != nil {
			log.Fatalf("Failed to hash ingest token: %v", err)
		}
		fmt.Println(hash)
		return
	}

	if *companyID <= 0 {
		log.Fatal("-company is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tm := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)
	token, err := tm.GenerateAccessToken(int32(*companyID), *partnerCode, strings.Split(*roles, ","), *ttl)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	fmt.Println(token)
}
