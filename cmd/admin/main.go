// Command admin runs operational tasks against the database directly:
// the periodic sweep, account deletion, and a quick row-count overview.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"echogo/backend/internal/config"
	"echogo/backend/internal/models"
	"echogo/backend/internal/storage"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// Only the database settings matter here; the server-only secrets
	// stay out of the admin environment.
	db, err := gorm.Open(postgres.Open(config.DatabaseDSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	store := storage.NewService(db, nil, log)
	ctx := context.Background()

	switch os.Args[1] {
	case "cleanup":
		res, err := store.Sweep(ctx)
		if err != nil {
			log.Fatal("sweep", zap.Error(err))
		}
		fmt.Printf("swept: %d expired tokens, %d consumed waves, %d expired waves\n",
			res.ExpiredTokens, res.ConsumedWaves, res.ExpiredWaves)

	case "delete-account":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		userID := os.Args[2]
		if err := store.DeleteAccount(ctx, userID); err != nil {
			log.Fatal("delete account", zap.String("user_id", userID), zap.Error(err))
		}
		fmt.Printf("account %s deleted\n", userID)

	case "stats":
		for _, t := range []struct {
			name  string
			model interface{}
		}{
			{"profiles", &models.Profile{}},
			{"ephemeral_ids", &models.EphemeralID{}},
			{"waves", &models.Wave{}},
			{"matches", &models.Match{}},
			{"push_tokens", &models.PushToken{}},
		} {
			var n int64
			if err := db.WithContext(ctx).Model(t.model).Count(&n).Error; err != nil {
				log.Fatal("count", zap.String("table", t.name), zap.Error(err))
			}
			fmt.Printf("%-14s %d\n", t.name, n)
		}

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: admin <command>

commands:
  cleanup                 delete expired tokens and stale waves
  delete-account <id>     remove an account and everything it owns
  stats                   print table row counts`)
}
