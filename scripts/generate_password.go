// Prints a bcrypt hash for seeding users by hand, using the configured cost and password rules.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/electrostore/ecommerce-backend/internal/config"
	"github.com/electrostore/ecommerce-backend/internal/pkg/auth"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("usage: go run scripts/generate_password.go <password>")
	}

	cost := 12
	if v, err := strconv.Atoi(os.Getenv("BCRYPT_COST")); err == nil {
		cost = v
	}
	passwords := auth.NewPasswordManager(&config.Config{Security: config.SecurityConfig{BcryptCost: cost}})

	password := os.Args[1]
	hash, err := passwords.HashPassword(password)
	if err != nil {
		logrus.WithError(err).Fatal("password rejected")
	}

	if err := passwords.VerifyPassword(password, hash); err != nil {
		logrus.WithError(err).Fatal("hash verification failed")
	}

	fmt.Println(hash)
}
