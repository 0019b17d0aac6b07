package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshiBinit/College-Event-Management/internal/config"
	"github.com/joshiBinit/College-Event-Management/internal/qrclient"
	"github.com/joshiBinit/College-Event-Management/internal/queue"
	"github.com/joshiBinit/College-Event-Management/internal/registry"
	"github.com/joshiBinit/College-Event-Management/internal/store"
)

// Worker consumes registration messages, renders check-in QR images through
// the chart endpoint, and attaches the image URL to the registration.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "events:registrations")
	}

	svc := registry.NewService(
		registry.NewEventRepository(db.Client),
		registry.NewRegistrationRepository(db.Client),
	)
	qr := qrclient.New(cfg.QRServiceURL, cfg.QRSkip)

	if !cfg.QRSkip {
		if err := qr.Health(ctx); err != nil {
			log.Printf("WARNING: QR service not available: %v", err)
			log.Println("Worker will retry rendering when registrations arrive")
		} else {
			log.Println("QR service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != "registration" {
			continue
		}

		id := string(msg.Body)
		log.Printf("processing registration %s", id)

		reg, err := svc.GetRegistration(ctx, id)
		if err != nil {
			// Likely cancelled before we got to it; nothing to render.
			log.Printf("fetch registration %s failed: %v", id, err)
			continue
		}

		imageURL, err := qr.Render(ctx, reg.QRCode)
		if err != nil {
			log.Printf("qr render failed for %s: %v", id, err)
			continue
		}

		if err := svc.AttachQRImage(ctx, id, imageURL); err != nil {
			log.Printf("attach qr image for %s failed: %v", id, err)
			continue
		}
		log.Printf("registration %s check-in image ready", id)

		time.Sleep(10 * time.Millisecond) // Small delay between processing
	}

	log.Println("worker stopped")
}
