package main // Entry point package

import (
	"context" // context bounds the ledger warm-up queries
	"log"     // Logging library

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/adfleet/material-availability/internal/availability" // availability calculator and aggregator
	"github.com/adfleet/material-availability/internal/booking"      // material selection and reservation coordinator
	"github.com/adfleet/material-availability/internal/catalog"      // cached material/plan reference data
	"github.com/adfleet/material-availability/internal/config"       // Internal config loader
	"github.com/adfleet/material-availability/internal/database"     // MySQL connection helper
	"github.com/adfleet/material-availability/internal/handler"      // HTTP handlers
	"github.com/adfleet/material-availability/internal/ledger"       // in-process slot ledger
	"github.com/adfleet/material-availability/internal/middleware"   // Redis cache and rate limit middleware
	"github.com/adfleet/material-availability/internal/queue"        // RabbitMQ consumer
	"github.com/adfleet/material-availability/internal/repository"   // data access layer
	"github.com/adfleet/material-availability/internal/router"       // Internal router setup
	queue_publisher "github.com/adfleet/material-availability/internal/service"
)

func main() {
	// Load .env when present; in production the variables come from the
	// environment and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open MySQL; the assignments table is the ledger's durable backing.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	materialRepo := repository.NewMaterialRepo(db)
	planRepo := repository.NewPlanRepo(db)
	assignmentRepo := repository.NewAssignmentRepo(db)
	cat := catalog.New(materialRepo, planRepo, cfg.CatalogTTL)

	// Warm the slot ledger: every material's capacity, then every
	// capacity-consuming assignment window.
	slots := ledger.New()
	if err := warmLedger(slots, materialRepo, assignmentRepo); err != nil {
		log.Fatalf("ledger warm-up: %v", err)
	}

	aggregator := availability.NewAggregator(cat, slots)
	coordinator := booking.NewCoordinator(aggregator, cat, slots, assignmentRepo, queue_publisher.Notifier{})

	// Redis backs the response cache and the rate limiter; both degrade
	// to pass-through middleware when the client is nil.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}
	cacheMW := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	ratelimitMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Consume assignment.committed events in the background; the
	// consumer runs its own reconnect loop forever.
	go func() {
		if err := queue.StartAssignmentConsumer(); err != nil {
			log.Printf("assignment consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAvailability(e, handler.NewAvailabilityHandler(aggregator), handler.NewReservationHandler(coordinator), cacheMW, ratelimitMW)
	router.RegisterCatalog(e, handler.NewMaterialHandler(cat, slots, assignmentRepo), handler.NewPlanHandler(cat), handler.NewAssignmentHandler(assignmentRepo, slots))

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}

// warmLedger loads materials and their capacity-consuming assignments
// from MySQL into the in-process ledger.  Run once before the server
// accepts traffic so the first availability read sees real occupancy.
func warmLedger(slots *ledger.SlotLedger, materials *repository.MaterialRepo, assignments *repository.AssignmentRepo) error {
	ctx := context.Background()
	ms, err := materials.List(ctx)
	if err != nil {
		return err
	}
	for _, m := range ms {
		slots.Register(m.ID, m.TotalSlots)
	}
	active, err := assignments.ListCapacityConsuming(ctx)
	if err != nil {
		return err
	}
	byMaterial := make(map[string][]ledger.Entry)
	for _, a := range active {
		byMaterial[a.MaterialID] = append(byMaterial[a.MaterialID], ledger.Entry{
			AssignmentID: a.ID,
			Window:       a.Window,
			Slots:        a.NumberOfDevices,
		})
	}
	for _, m := range ms {
		if entries, ok := byMaterial[m.ID]; ok {
			slots.Replace(m.ID, m.TotalSlots, entries)
		}
	}
	log.Printf("ledger warmed: %d materials, %d active assignments", len(ms), len(active))
	return nil
}
