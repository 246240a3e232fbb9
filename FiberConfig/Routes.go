package FiberConfig

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html"
	"gorm.io/gorm"

	"Kudu/CarTrack"
	"Kudu/Controllers"
	"Kudu/Models"
	"Kudu/Routing"
	"Kudu/TFN"
	"Kudu/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize handlers
	authController := Controllers.NewAuthController(db)
	customerController := Controllers.NewCustomerController(db)
	driverController := Controllers.NewDriverController(db)
	vehicleController := Controllers.NewVehicleController(db)
	invoiceController := Controllers.NewInvoiceController(db)
	loadController := Controllers.NewLoadController(db)
	warehouseController := Controllers.NewWarehouseController(db)
	tripSheetController := Controllers.NewTripSheetController(db)
	logController := Controllers.NewLogController(db)
	tfnHandler := TFN.NewHandler(db)
	carTrackHandler := CarTrack.NewHandler(db)

	// The Google client serves both geocoding and routing. Without an API
	// key routing falls back to the offline great-circle router; geocoding
	// requests will surface the upstream error.
	google := Routing.NewGoogleClient()
	var router Routing.Router = google
	if os.Getenv("GOOGLE_MAPS_API_KEY") == "" {
		router = &Routing.LocalRouter{}
	}
	routingHandler := Routing.NewRoutingHandler(db, google, router)

	// API group
	api := app.Group("/api")

	// Session routes
	api.Post("/register", authController.Register)
	api.Post("/login", authController.Login)
	api.Post("/logout", authController.Logout)
	api.Get("/user", middleware.Verify(0), authController.User)
	api.Post("/fcm-token", middleware.Verify(0), authController.RegisterFCMToken)
	api.Patch("/users/:id/approve", middleware.Verify(4), authController.ApproveUser)

	// Customer routes
	customers := api.Group("/customers", middleware.Verify(1))
	customers.Get("/", customerController.GetCustomers)
	customers.Post("/", middleware.Verify(2), customerController.CreateCustomer)
	customers.Get("/:id", customerController.GetCustomer)
	customers.Put("/:id", middleware.Verify(2), customerController.UpdateCustomer)
	customers.Delete("/:id", middleware.Verify(3), customerController.DeleteCustomer)

	// Driver routes
	drivers := api.Group("/drivers", middleware.Verify(1))
	drivers.Get("/", driverController.GetDrivers)
	drivers.Post("/", middleware.Verify(3), driverController.CreateDriver)
	drivers.Get("/:id", driverController.GetDriver)
	drivers.Put("/:id", middleware.Verify(3), driverController.UpdateDriver)
	drivers.Patch("/:id/deactivate", middleware.Verify(3), driverController.DeactivateDriver)

	// Vehicle routes
	vehicles := api.Group("/vehicles", middleware.Verify(1))
	vehicles.Get("/", vehicleController.GetVehicles)
	vehicles.Get("/positions", vehicleController.GetVehiclePositions)
	vehicles.Post("/", middleware.Verify(3), vehicleController.CreateVehicle)
	vehicles.Get("/:id", vehicleController.GetVehicle)
	vehicles.Put("/:id", middleware.Verify(3), vehicleController.UpdateVehicle)
	vehicles.Delete("/:id", middleware.Verify(3), vehicleController.DeleteVehicle)

	// Invoice routes
	invoices := api.Group("/invoices", middleware.Verify(1))
	invoices.Get("/", invoiceController.GetInvoices)
	invoices.Get("/pending", invoiceController.GetPendingInvoices)
	invoices.Post("/", middleware.Verify(2), invoiceController.CreateInvoice)
	invoices.Get("/:id", invoiceController.GetInvoice)
	invoices.Put("/:id", middleware.Verify(2), invoiceController.UpdateInvoice)
	invoices.Patch("/:id/cancel", middleware.Verify(3), invoiceController.CancelInvoice)

	// Load routes
	loads := api.Group("/loads", middleware.Verify(1))
	loads.Get("/", loadController.GetLoads)
	loads.Get("/on-time-report", loadController.OnTimeReport)
	loads.Post("/", middleware.Verify(3), loadController.CreateLoad)
	loads.Get("/:id", loadController.GetLoad)
	loads.Post("/:id/assign", middleware.Verify(3), loadController.AssignLoad)
	loads.Patch("/:id/status", middleware.Verify(2), loadController.UpdateLoadStatus)

	// Warehouse routes
	warehouses := api.Group("/warehouses", middleware.Verify(1))
	warehouses.Get("/", warehouseController.GetWarehouses)
	warehouses.Post("/", middleware.Verify(3), warehouseController.CreateWarehouse)
	warehouses.Put("/:id", middleware.Verify(3), warehouseController.UpdateWarehouse)
	warehouses.Post("/:id/stock-import", middleware.Verify(2), warehouseController.ImportStock)
	warehouses.Get("/:id/stock", warehouseController.GetStockSnapshot)

	// Routing: the optimization core
	routing := api.Group("/routing", middleware.Verify(2))
	routing.Post("/optimize", routingHandler.OptimizeDeliveries)
	routing.Post("/resolve-address", routingHandler.ResolveAddress)
	routing.Post("/geocode-customers", middleware.Verify(3), routingHandler.GeocodeCustomers)

	// Trip sheet routes
	tripsheets := api.Group("/tripsheets", middleware.Verify(1))
	tripsheets.Get("/", tripSheetController.GetTripSheets)
	tripsheets.Get("/:id", tripSheetController.GetTripSheet)
	tripsheets.Get("/:id/export", tripSheetController.ExportTripSheet)
	app.Get("/tripsheets/:id/print", middleware.Verify(1), tripSheetController.RenderTripSheet)

	// Fuel routes
	fuel := api.Group("/fuel", middleware.Verify(3))
	fuel.Get("/transactions", tfnHandler.GetTransactions)
	fuel.Post("/import", tfnHandler.ImportNow)
	fuel.Get("/vehicles/:id/consumption", tfnHandler.GetVehicleConsumption)
	fuel.Post("/cards", tfnHandler.LinkFuelCard)

	// Tracking routes
	api.Post("/tracking/sync", middleware.Verify(3), carTrackHandler.SyncNow)

	// Logs API routes
	api.Get("/logs", middleware.Verify(4), logController.GetLogs)
	api.Get("/logs/stats", middleware.Verify(4), logController.GetLogStats)
}

func FiberConfig() {
	fmt.Println("Server Up...")
	engine := html.New("./Templates", ".html")
	// Html Template engine
	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupRoutes(app, Models.DB)
	app.Static("/static", "static/")

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	if err := app.Listen(":" + port); err != nil {
		panic(err)
	}
}
