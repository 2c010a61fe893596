package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/core/events"
	coreUser "github.com/frahmantamala/it-helpdesk/internal/core/user"
	"github.com/frahmantamala/it-helpdesk/internal/ticket"
	ticketPostgres "github.com/frahmantamala/it-helpdesk/internal/ticket/postgres"
	"github.com/frahmantamala/it-helpdesk/internal/user"
	userPostgres "github.com/frahmantamala/it-helpdesk/internal/user/postgres"
	"github.com/frahmantamala/it-helpdesk/pkg/logger"
)

var seedDemo bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the first IT administrator",
	Long:  `Create the IT administrator described by the seed config section. Running it again is a no-op.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if cfg.Seed.AdminEmail == "" || cfg.Seed.AdminPassword == "" {
			log.Fatal("seed.admin_email and seed.admin_password are required")
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		ctx := context.Background()
		lg := logger.LoggerWrapper()
		// nothing listens during seeding, the bus only satisfies the publisher
		bus := events.NewEventBus(lg)
		users := user.NewService(userPostgres.NewUserRepository(db), bus, cfg.Security.BCryptCost, lg)

		admin, created := seedUser(ctx, users, user.CreateUserDTO{
			Name:       cfg.Seed.AdminName,
			Username:   cfg.Seed.AdminUsername,
			Email:      cfg.Seed.AdminEmail,
			Department: cfg.Seed.AdminDepartment,
			Role:       coreUser.RoleIT.String(),
			Password:   cfg.Seed.AdminPassword,
		})
		if created {
			fmt.Println("Seeded IT admin:", admin.Email)
		} else {
			fmt.Println("IT admin already exists:", cfg.Seed.AdminEmail)
		}

		if !seedDemo {
			return
		}

		demo, created := seedUser(ctx, users, user.CreateUserDTO{
			Name:       "Demo User",
			Username:   "demo",
			Email:      "demo@helpdesk.local",
			Department: "Finance",
			Password:   cfg.Seed.AdminPassword,
		})
		if !created {
			fmt.Println("demo user already exists; skipping demo tickets")
			return
		}

		loc, err := cfg.App.Location()
		if err != nil {
			log.Fatalf("invalid timezone: %v", err)
		}
		tickets := ticket.NewService(ticketPostgres.NewTicketRepository(db), bus, loc, lg)
		for _, dto := range []ticket.CreateTicketDTO{
			{Title: "Printer offline", Description: "The 2nd floor printer does not respond.", Priority: "NORMAL"},
			{Title: "VPN down", Description: "Cannot reach the VPN from home.", Priority: "URGENT"},
		} {
			if _, err := tickets.CreateTicket(ctx, demo.ID, dto); err != nil {
				log.Fatalf("failed to seed ticket %q: %v", dto.Title, err)
			}
		}
		bus.Wait()
		fmt.Println("Seeded demo user and tickets:", demo.Email)
	},
}

// seedUser creates the account unless its username or email is already registered.
func seedUser(ctx context.Context, users *user.Service, dto user.CreateUserDTO) (*coreUser.User, bool) {
	u, err := users.CreateUser(ctx, dto)
	if errors.Is(err, internal.ErrIdentityTaken) {
		return nil, false
	}
	if err != nil {
		log.Fatalf("failed to seed user %s: %v", dto.Email, err)
	}
	return u, true
}

func init() {
	seedCmd.Flags().BoolVar(&seedDemo, "demo", false, "also create a demo user with sample tickets")
}
