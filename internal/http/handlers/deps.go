package handlers

import (
	"time"

	"github.com/jmoiron/sqlx"

	"isdn/internal/events"
	"isdn/internal/repos"
	"isdn/internal/services"
)

// Deps wires repos, services and handlers for one database.
type Deps struct {
	Auth      *services.AuthService
	Missions  *services.MissionService
	Dashboard *services.DashboardService

	AuthHandler      *AuthHandler
	DashboardHandler *DashboardHandler
	OrderHandler     *OrderHandler
	CartHandler      *CartHandler
	MissionHandler   *MissionHandler
	DirectoryHandler *DirectoryHandler
	AuditHandler     *AuditHandler
}

// NewDeps builds the graph. A nil sessions store means the SQL sessions table;
// a nil publisher logs events instead of sending them.
func NewDeps(db *sqlx.DB, sessions services.SessionStore, pub events.Publisher) *Deps {
	if sessions == nil {
		sessions = repos.NewSessionRepo(db)
	}
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	txRepo := repos.NewTransactionRepo(db)
	staffRepo := repos.NewStaffRepo(db)
	partnerRepo := repos.NewPartnerRepo(db)
	driverRepo := repos.NewDriverRepo(db)
	hubRepo := repos.NewHubRepo(db)

	authSvc := services.NewAuthService(userRepo, sessions)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	orderSvc := services.NewOrderService(orderRepo, txRepo, cartRepo, prodRepo, driverRepo, hubRepo, pub)
	missionSvc := services.NewMissionService(repos.NewMissionRepo(db))
	dirSvc := &services.DirectoryService{
		Products: prodRepo, Staff: staffRepo, Partners: partnerRepo,
		Drivers: driverRepo, Hubs: hubRepo, Sessions: sessions,
	}
	dashSvc := &services.DashboardService{
		Orders: orderRepo, Transactions: txRepo, Products: prodRepo, Staff: staffRepo,
		Partners: partnerRepo, Drivers: driverRepo, Hubs: hubRepo,
		Carts: cartSvc, Missions: missionSvc, Now: time.Now,
	}

	return &Deps{
		Auth:      authSvc,
		Missions:  missionSvc,
		Dashboard: dashSvc,

		AuthHandler:      &AuthHandler{Auth: authSvc},
		DashboardHandler: &DashboardHandler{Dash: dashSvc},
		OrderHandler:     &OrderHandler{Orders: orderSvc},
		CartHandler:      &CartHandler{Cart: cartSvc, Orders: orderSvc},
		MissionHandler:   &MissionHandler{Missions: missionSvc},
		DirectoryHandler: &DirectoryHandler{Dir: dirSvc},
		AuditHandler:     &AuditHandler{},
	}
}
