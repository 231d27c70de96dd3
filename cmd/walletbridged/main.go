package main

import (
	"context"
	"log"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/solrisk/mwabridge/adapters/events"
	"github.com/solrisk/mwabridge/adapters/host"
	"github.com/solrisk/mwabridge/adapters/store"
	"github.com/solrisk/mwabridge/bridge"
	"github.com/solrisk/mwabridge/service"
	"github.com/solrisk/mwabridge/session"
	httptransport "github.com/solrisk/mwabridge/transport/http"
)

func main() {
	// Load .env when present; real env vars win.
	_ = godotenv.Load()

	ctx := context.Background()
	logger := watermill.NewStdLogger(false, false)

	// Redis backs both session persistence and the bridge streams.
	redisURL := getenv("REDIS_URL", "redis://localhost:6379/0")
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		logger,
	)
	if err != nil {
		log.Fatalf("Failed to create Redis publisher: %v", err)
	}

	subscriber, err := redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        redisClient,
			ConsumerGroup: "walletbridge",
		},
		logger,
	)
	if err != nil {
		log.Fatalf("Failed to create Redis subscriber: %v", err)
	}

	emitter := bridge.NewEmitter()
	states := host.NewStateFeed()

	transport, err := host.NewStreamTransport(ctx, host.StreamConfig{
		CallTopic:  getenv("BRIDGE_CALL_TOPIC", host.DefaultCallTopic),
		EventTopic: getenv("BRIDGE_EVENT_TOPIC", host.DefaultEventTopic),
	}, publisher, subscriber, emitter, states, logger)
	if err != nil {
		log.Fatalf("Failed to start bridge transport: %v", err)
	}
	defer transport.Close()

	sessionStore := store.NewRedisStore(redisClient)
	eventPub := events.NewWatermillPublisher(publisher)

	sessions := session.NewManager(sessionStore, eventPub, logger)
	if err := sessions.Hydrate(ctx); err != nil {
		log.Fatalf("Failed to hydrate session: %v", err)
	}
	defer sessions.Teardown()

	watcher := bridge.NewWatcher(states, logger)
	walletService := service.NewWalletService(transport, emitter, sessions, watcher, logger)

	router := httptransport.SetupRouter(walletService)

	addr := getenv("LISTEN_ADDR", ":9000")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
