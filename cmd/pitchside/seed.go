package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/pitchside/internal/auth"
	"github.com/alecgard/pitchside/internal/config"
	"github.com/alecgard/pitchside/internal/database"
	"github.com/alecgard/pitchside/internal/event"
	"github.com/alecgard/pitchside/internal/notify"
	"github.com/alecgard/pitchside/internal/organization"
	"github.com/alecgard/pitchside/internal/user"
)

const (
	demoUserEmail = "player@pitchside.local"
	demoOrgEmail  = "club@pitchside.local"
	demoPassword  = "pitchside-demo"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo user, organization and events",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

var demoEvents = []event.CreateEventInput{
	{
		PlaceID:     "riverside-park-pitch-1",
		Sport:       event.Sport{TypeID: "football", Name: "Football"},
		Description: "Friendly 5-a-side, bring a light and a dark shirt.",
		SkillLevel:  "INTERMEDIATE",
	},
	{
		PlaceID:     "northgate-courts",
		Sport:       event.Sport{TypeID: "basketball", Name: "Basketball"},
		Description: "Half-court pickup games.",
		SkillLevel:  "BEGINNER",
	},
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	userStore := user.NewStore(pool)
	orgStore := organization.NewStore(pool)

	// Check if seed has already run.
	exists, err := userStore.ExistsByEmail(ctx, demoUserEmail)
	if err != nil {
		return fmt.Errorf("checking existing demo user: %w", err)
	}
	if exists {
		slog.Info("demo data already exists, skipping seed")
		return nil
	}

	u, err := userStore.Create(ctx, user.CreateUserInput{
		Email:    demoUserEmail,
		Password: demoPassword,
		Name:     "Demo Player",
	})
	if err != nil {
		return fmt.Errorf("creating demo user: %w", err)
	}
	slog.Info("created user", "email", u.Email, "id", u.ID)

	org, err := orgStore.Create(ctx, organization.CreateInput{
		Email:       demoOrgEmail,
		Password:    demoPassword,
		Name:        "Riverside Sports Club",
		Description: "Community club running weekly fixtures.",
	})
	if err != nil {
		return fmt.Errorf("creating demo organization: %w", err)
	}
	slog.Info("created organization", "email", org.Email, "id", org.ID)

	// No flush loop runs here; Stop writes the queued notifications.
	outbox := notify.NewOutbox(notify.NewStore(pool), cfg.Notify.BatchSize, cfg.Notify.FlushInterval)
	defer outbox.Stop()
	events := event.NewService(event.NewStore(pool), outbox)

	organizer := auth.Identity{
		Principal: auth.Principal{Subject: u.Email, Role: auth.RoleUser, Authority: string(auth.RoleUser)},
		Profile:   auth.Profile{ID: u.ID, Email: u.Email, Name: u.Name, Role: auth.RoleUser},
	}
	for i, in := range demoEvents {
		in.DateTime = time.Now().Add(time.Duration(i+1) * 72 * time.Hour).Truncate(time.Hour)
		e, err := events.AddEvent(ctx, organizer, in)
		if err != nil {
			return fmt.Errorf("creating demo event %q: %w", in.PlaceID, err)
		}
		slog.Info("created event", "id", e.ID, "sport", e.Sport.Name, "date_time", e.DateTime)
	}

	fmt.Println()
	fmt.Println("=== Demo accounts ===")
	fmt.Printf("User:         %s / %s\n", demoUserEmail, demoPassword)
	fmt.Printf("Organization: %s / %s\n", demoOrgEmail, demoPassword)
	fmt.Println()
	fmt.Println("Log in with: curl -X POST -H 'isUser: true' -d '{\"email\":\"" + demoUserEmail + "\",\"password\":\"" + demoPassword + "\"}' http://localhost:8080/api/v1/auth/login")

	return nil
}
