// Command catalog-token prints an admin JWT for the catalog write API,
// signed with CATALOG_AUTH_SECRET.
package main

import (
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"MiniCatalog/internal/catalog"
	"MiniCatalog/internal/config"
)

func main() {
	subject := flag.String("sub", "admin", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	log := zap.NewExample()

	cfg, err := config.Load(config.DefaultFile, config.DefaultEnvFile)
	if err != nil {
		log.Fatal("load config failed", zap.Error(err))
	}
	if cfg.Auth.Secret == "" {
		log.Fatal("auth.secret is not configured")
	}

	tok, err := catalog.NewTokenMaker(cfg.Auth.Secret).New(*subject, catalog.RoleAdmin, *ttl)
	if err != nil {
		log.Fatal("sign token failed", zap.Error(err))
	}
	fmt.Println(tok)
}
