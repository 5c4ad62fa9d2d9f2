package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"honors/config"
	"honors/database"
	honorControllers "honors/controllers/honors"
	templateControllers "honors/controllers/templates"
	uploadControllers "honors/controllers/upload"
	"honors/queue"
	"honors/renderengine"
	honorRoutes "honors/routers/honorRoutes"
	templateRoutes "honors/routers/templateRoutes"
	uploadRoutes "honors/routers/uploadRoutes"
	"honors/storage"
	"honors/utils"
	"honors/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()
	db := database.Database.Db

	store, err := storage.NewS3Store(context.Background(),
		config.AppConfig.AWSBucket, config.AppConfig.AWSRegion, config.AppConfig.AWSEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}

	// Durable queue + asset pipeline
	q := queue.New(db,
		time.Duration(config.AppConfig.JobPollIntervalMs)*time.Millisecond,
		config.AppConfig.JobMaxAttempts)
	engine := renderengine.NewChromiumEngine(config.AppConfig.ChromiumPath)
	assetWorker := worker.NewAssetWorker(db, store, engine,
		time.Duration(config.AppConfig.RenderTimeout)*time.Second)
	worker.Register(q, assetWorker, config.AppConfig.AssetWorkerConcurrency)
	q.Start()

	utils.InitializeExpiryScheduler()

	app := fiber.New(fiber.Config{
		BodyLimit: 6 * 1024 * 1024, // uploads are capped at 5MB
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	honorRoutes.SetupHonorRoutes(app, honorControllers.NewHonorController(db, q, store))
	templateRoutes.SetupTemplateRoutes(app, templateControllers.NewTemplateController(db))
	uploadRoutes.SetupUploadRoutes(app, uploadControllers.NewUploadController(store))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("NexSAA Honors API running")
	})

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		log.Println("Shutting down...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	if err := app.Listen(":" + config.AppConfig.Port); err != nil {
		log.Fatal(err)
	}

	// Listen has returned; drain in-flight render jobs before exiting so a
	// claimed job is not abandoned in running status.
	q.Stop()
	log.Println("Shutdown complete")
}
