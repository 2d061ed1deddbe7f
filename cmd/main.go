// cmd/main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/logisa/automation-service/config"
	httphandler "github.com/logisa/automation-service/handler/http"
	"github.com/logisa/automation-service/internal/ai"
	"github.com/logisa/automation-service/internal/genai"
	"github.com/logisa/automation-service/internal/kafka"
	"github.com/logisa/automation-service/internal/mode"
	"github.com/logisa/automation-service/internal/notifications"
	"github.com/logisa/automation-service/internal/providers"
	"github.com/logisa/automation-service/internal/webhook"
	stripewh "github.com/logisa/automation-service/internal/webhook/stripe"
	"github.com/logisa/automation-service/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		shipments store.ShipmentStore
		payments  store.PaymentStore
	)
	if cfg.DB_HOST != "" {
		pg, err := store.NewPostgresStore(cfg.GetDBURL())
		if err != nil {
			log.Fatalf("failed to create store: %v", err)
		}
		defer pg.Close()
		shipments, payments = pg, pg
	} else {
		log.Println("[WARN] DB_HOST not set, using in-memory store")
		mem := store.NewMemoryStore()
		shipments, payments = mem, mem
	}

	// Kafka event producer (optional).
	var producer kafka.Publisher
	if cfg.KAFKA_BROKER != "" {
		p := kafka.NewProducer(cfg.KAFKA_BROKER, cfg.KAFKA_TOPIC)
		defer p.Close()
		producer = p
	}

	// Notification path: queue through RabbitMQ when configured, send
	// inline otherwise.
	router := notifications.NewRouter()
	router.Register(notifications.ChannelTelegram, notifications.NewTelegramSender(cfg.TELEGRAM_BOT_TOKEN))

	var notifier notifications.Notifier = router
	if cfg.RABBITMQ_HOST != "" {
		rabbit, err := notifications.NewClient(cfg.GetRabbitMQURL())
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer rabbit.Close()

		queued, err := notifications.NewQueueNotifier(rabbit)
		if err != nil {
			log.Fatalf("failed to set up notification queue: %v", err)
		}
		notifier = queued

		dispatcher := notifications.NewDispatcher(rabbit, router)
		go func() {
			if err := dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[WARN] notification dispatcher stopped: %v", err)
			}
		}()
	}

	// The automatic pipeline: decision gate behind the mode switch.
	paymentGateway := providers.NewMyfatoraGateway(cfg.MYFATORA_API_KEY, cfg.MYFATORA_API_URL)
	carrierGateway := providers.NewMapitGateway(cfg.MAPIT_API_KEY, cfg.MAPIT_API_URL)
	processor := ai.NewProcessor(shipments, payments, paymentGateway, carrierGateway, producer)

	replies := genai.NewReplyGenerator(cfg.GEMINI_API_KEY, cfg.OPENAI_API_KEY)
	switcher := mode.NewSwitcher(processor, replies)

	// Webhook ingestion.
	ingestion := webhook.NewService(shipments, payments, notifier, producer)

	server := httphandler.NewServer(switcher, ingestion, shipments, ":"+cfg.Port)
	server.RegisterWebhook("/api/providers/mapit/webhook", webhook.NewMapitProcessor(cfg.MAPIT_WEBHOOK_SECRET))
	server.RegisterWebhook("/api/payment/webhook", webhook.NewMyfatoraProcessor(cfg.MYFATORA_WEBHOOK_SECRET))
	if cfg.STRIPE_WEBHOOK_SECRET != "" {
		server.RegisterWebhook("/api/providers/stripe/webhook", stripewh.New(cfg.STRIPE_WEBHOOK_SECRET))
	}

	if err := server.Start(ctx); err != nil {
		log.Fatalf("server failed: %v", err)
	}
	log.Println("automation service stopped")
}
