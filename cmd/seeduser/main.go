// seeduser provisions or updates a user and their usage counter. Identity
// lives upstream in the auth gateway, so this tool is how an operator makes
// a gateway user known to this service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/adapter/repo"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
	"github.com/ChaosClubCo/FlashFusion-sub000/internal/infra"
)

func main() {
	var (
		idFlag    string
		emailFlag string
		planFlag  string
		limitFlag int
	)

	flag.StringVar(&idFlag, "id", "", "user ID (UUID; generated when empty)")
	flag.StringVar(&emailFlag, "email", "", "user email")
	flag.StringVar(&planFlag, "plan", "free", "plan to assign (free, pro, enterprise)")
	flag.IntVar(&limitFlag, "usage-limit", 0, "usage limit override (0 uses the plan default, -1 means unlimited)")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	plan := domain.UserPlan(strings.ToLower(strings.TrimSpace(planFlag)))

	if email == "" {
		exitWithError(errors.New("-email is required"))
	}
	if !domain.ValidPlan(plan) {
		exitWithError(fmt.Errorf("unsupported plan %q", plan))
	}
	if userID == "" {
		userID = uuid.NewString()
	} else if _, err := uuid.Parse(userID); err != nil {
		exitWithError(fmt.Errorf("invalid -id: %w", err))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "seeduser").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	users := repo.NewUserRepository(runner)
	usage := repo.NewUsageRepository(runner)

	user, err := users.Upsert(ctx, &domain.User{ID: userID, Email: email, Plan: plan})
	if err != nil {
		exitWithError(fmt.Errorf("failed to upsert user: %w", err))
	}

	limit := limitFlag
	if limit == 0 {
		limit = defaultLimit(plan)
	}
	counter := &domain.Usage{OwnerID: user.ID, CurrentUsage: 0, UsageLimit: limit}
	if err := usage.Upsert(ctx, counter); err != nil {
		exitWithError(fmt.Errorf("failed to upsert usage counter: %w", err))
	}

	fmt.Printf("User %s (%s) on plan %s\n", user.ID, user.Email, user.Plan)
	if counter.UsageLimit < 0 {
		fmt.Println("usage: unlimited")
	} else {
		fmt.Printf("usage: %d/%d\n", counter.CurrentUsage, counter.UsageLimit)
	}
}

func defaultLimit(plan domain.UserPlan) int {
	switch plan {
	case domain.UserPlanPro:
		return 500
	case domain.UserPlanEnterprise:
		return domain.UnlimitedUsage
	default:
		return 25
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
