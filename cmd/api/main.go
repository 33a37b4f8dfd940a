package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/leadfeed/internal/infra/database"
	"github.com/xavierca1/leadfeed/internal/infra/http/handlers"
	appmiddleware "github.com/xavierca1/leadfeed/internal/infra/http/middleware"
	"github.com/xavierca1/leadfeed/internal/infra/integration/getsales"
	"github.com/xavierca1/leadfeed/internal/infra/mail"
	"github.com/xavierca1/leadfeed/internal/infra/queue"
	"github.com/xavierca1/leadfeed/internal/usecase"
)

func main() {
	godotenv.Load()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer db.Close()

	// 1. Repositories
	leadRepo := database.NewLeadRepository(db)
	messageRepo := database.NewMessageRepository(db)

	// 2. Vendor gateway
	gsClient := getsales.NewClient(os.Getenv("GETSALES_API_KEY"), os.Getenv("GETSALES_BASE_URL"))
	if !gsClient.Configured() {
		log.Println("⚠️ GETSALES_API_KEY not set, conversation sync will no-op")
	}

	// 3. RabbitMQ (optional): webhook ingest enqueues conversation syncs
	var (
		producer queue.SyncJobProducerInterface
		amqpConn *amqp.Connection
	)
	syncUC := usecase.NewSyncConversationsUseCase(leadRepo, messageRepo, gsClient)
	if amqpURL := os.Getenv("RABBITMQ_URL"); amqpURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(amqpURL)
		if err != nil {
			log.Printf("⚠️ RabbitMQ unavailable, sync jobs disabled: %v", err)
		} else {
			defer rabbitMQ.Conn.Close()
			defer rabbitMQ.Ch.Close()
			amqpConn = rabbitMQ.Conn
			producer = queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

			worker := queue.NewWorker(rabbitMQ.Ch, syncUC)
			go worker.Start(queue.QueueName)
		}
	}

	// 4. Mail (optional): operator alert on new leads
	var mailSender usecase.EmailService
	if host := os.Getenv("MAIL_HOST"); host != "" {
		port, _ := strconv.Atoi(os.Getenv("MAIL_PORT"))
		if port == 0 {
			port = 587
		}
		mailSender = mail.NewEmailSender(host, port, os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"))
	}

	// 5. Use cases
	ingestUC := usecase.NewIngestWebhookUseCase(
		leadRepo, messageRepo, producer, mailSender, os.Getenv("LEAD_ALERT_TO"),
	)

	// 6. Handlers
	leadHandler := handlers.NewLeadHandler(leadRepo)
	messageHandler := handlers.NewMessageHandler(messageRepo, leadRepo)
	syncHandler := handlers.NewSyncHandler(syncUC)
	webhookHandler := handlers.NewWebhookHandler(ingestUC, os.Getenv("WEBHOOK_API_KEY"))
	healthHandler := handlers.NewHealthHandler(db, amqpConn, gsClient.Configured())

	// 7. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000", "*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "x-api-key"},
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/leads", leadHandler.HandleList)
	r.Patch("/leads", leadHandler.HandlePatch)
	r.Get("/leads/counts", leadHandler.HandleCounts)
	r.Post("/leads/sync", syncHandler.Handle)

	r.Get("/messages", messageHandler.HandleList)
	r.Post("/messages", messageHandler.HandleCreate)

	r.Post("/webhooks/getsales", webhookHandler.Handle)
	r.Put("/webhooks/getsales", webhookHandler.Handle)
	r.Get("/webhooks/getsales", webhookHandler.HandleVerify)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🔥 Lead feed API listening on :%s", port)
	http.ListenAndServe(":"+port, r)
}
