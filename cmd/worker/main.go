// Worker consumes security-alert notifications from Kafka and pushes them to the devices of each recipient.
// Set KAFKA_BROKERS, NOTIFY_KAFKA_TOPIC, KAFKA_GROUP_ID, DATABASE_URL and PUSH_GATEWAY_URL.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"school-management/backend/internal/config"
	"school-management/backend/internal/db"
	devicerepo "school-management/backend/internal/device/repository"
	"school-management/backend/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.PushGatewayURL == "" {
		log.Fatal("worker: PUSH_GATEWAY_URL is required")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("worker: DATABASE_URL is required")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("worker: database: %v", err)
	}
	defer conn.Close()

	deliverer := notify.NewDeliverer(devicerepo.NewPostgresRepository(conn), notify.NewPushClient(cfg.PushGatewayAPIKey, cfg.PushGatewayURL))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.NotifyKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	log.Printf("worker: consuming from %s (group %s), pushing to %s", cfg.NotifyKafkaTopic, cfg.KafkaGroupID, cfg.PushGatewayURL)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("worker: stopped")
				return
			}
			log.Printf("worker: kafka read error: %v", err)
			continue
		}

		n, err := notify.DecodeMessage(msg)
		if err != nil {
			log.Printf("worker: dropping malformed message at offset %d: %v", msg.Offset, err)
			continue
		}
		pushCtx, pushCancel := context.WithTimeout(ctx, 10*time.Second)
		sent, err := deliverer.Deliver(pushCtx, n)
		pushCancel()
		if err != nil {
			log.Printf("worker: delivery to account %s failed: %v", n.AccountID, err)
			continue
		}
		if sent == 0 {
			log.Printf("worker: account %s has no reachable devices for %s", n.AccountID, n.Kind)
		}
	}
}
