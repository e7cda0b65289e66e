package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/videotube/config"
	"github.com/oksasatya/videotube/internal/domain/entity"
	"github.com/oksasatya/videotube/internal/domain/repository"
	pginfra "github.com/oksasatya/videotube/internal/infrastructure/postgres"
	"github.com/oksasatya/videotube/pkg/helpers"
)

const demoPassword = "password123"

var demoUsers = []entity.User{
	{Username: "alice", Email: "alice@example.com", FullName: "Alice Doe", AvatarURL: "https://placehold.co/128x128?text=A"},
	{Username: "bob", Email: "bob@example.com", FullName: "Bob Roe", AvatarURL: "https://placehold.co/128x128?text=B"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	users := pginfra.NewUserRepository(pool)
	videos := pginfra.NewVideoRepository(pool)
	subs := pginfra.NewSubscriptionRepository(pool)

	hash, err := helpers.HashPasswordWithCost(demoPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	seeded := make([]*entity.User, 0, len(demoUsers))
	for _, d := range demoUsers {
		u := d
		u.PasswordHash = hash
		err := users.Create(ctx, &u)
		if errors.Is(err, repository.ErrDuplicate) {
			existing, gerr := users.GetByUsername(ctx, u.Username)
			if gerr != nil {
				log.Fatalf("failed to load existing user %s: %v", u.Username, gerr)
			}
			seeded = append(seeded, existing)
			fmt.Printf("user exists: id=%s username=%s\n", existing.ID, existing.Username)
			continue
		}
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.Username, err)
		}
		seeded = append(seeded, &u)
		fmt.Printf("seeded user: id=%s username=%s email=%s password=%s\n", u.ID, u.Username, u.Email, demoPassword)
	}
	alice, bob := seeded[0], seeded[1]

	v := &entity.Video{
		VideoFile:   "https://storage.googleapis.com/videotube-demo/intro.mp4",
		Thumbnail:   "https://placehold.co/640x360?text=Intro",
		Title:       "Channel intro",
		Description: "Say hello to the channel",
		Duration:    42.5,
		IsPublished: true,
		OwnerID:     bob.ID,
	}
	if err := videos.Create(ctx, v); err != nil {
		log.Fatalf("failed to seed video: %v", err)
	}
	fmt.Printf("seeded video: id=%s owner=%s\n", v.ID, bob.Username)

	if err := subs.Subscribe(ctx, alice.ID, bob.ID); err != nil {
		log.Fatalf("failed to subscribe: %v", err)
	}
	if err := users.AppendWatchHistory(ctx, alice.ID, v.ID); err != nil {
		log.Fatalf("failed to record watch history: %v", err)
	}
	fmt.Printf("%s subscribed to %s and watched %s\n", alice.Username, bob.Username, v.ID)
}
