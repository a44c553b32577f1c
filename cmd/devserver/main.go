// Package main runs the fixture shop backend used for local storefront
// development. All state is in memory and reseeded on restart.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/merchbay/storefront/internal/devserver"
	"github.com/merchbay/storefront/pkg/logger"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	secret := flag.String("secret", "dev-only-secret", "Token signing secret")
	flag.Parse()

	_ = godotenv.Load()

	if v := os.Getenv("DEVSERVER_ADDR"); v != "" {
		*addr = v
	}
	if v := os.Getenv("DEVSERVER_SECRET"); v != "" {
		*secret = v
	}

	log.Printf("Starting fixture backend on %s", *addr)
	log.Printf("  Accounts: admin@merchbay.test / shopper@merchbay.test (password: letmein)")

	srv := devserver.New(*secret, logger.NewDefault("devserver"))
	if err := srv.Router().Run(*addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func init() {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("[devserver] ")
}
