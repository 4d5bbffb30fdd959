// Command publisher pushes synthetic audit events onto the audit event
// stream, for exercising the rule engine end to end without the ingestion
// API. A fraction of entries can be made malformed to exercise the ack
// discipline for undecodable payloads.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

var eventTypes = []string{"login", "payment", "data_access", "security_scan", "auth_check", "api_request"}

var severities = []string{"debug", "info", "warning", "error", "critical"}

var messages = []string{
	"operation completed",
	"failed password attempt",
	"payment declined by issuer",
	"bulk export requested",
	"token refresh failed",
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address")
	stream := flag.String("stream", "audit:events", "Target stream key")
	count := flag.Int("n", 100, "Number of events to publish")
	interval := flag.Duration("interval", 50*time.Millisecond, "Delay between events")
	malformedRatio := flag.Float64("malformed", 0.05, "Fraction of entries published with a broken payload")
	flag.Parse()

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis at %s: %v", *redisAddr, err)
	}

	log.Printf("Publishing %d events to %s", *count, *stream)

	published, malformed := 0, 0
	for i := 0; i < *count; i++ {
		values := map[string]interface{}{"data": randomEvent(i)}
		if rand.Float64() < *malformedRatio {
			values["data"] = "{not json"
			malformed++
		}

		if err := client.XAdd(ctx, &redis.XAddArgs{Stream: *stream, Values: values}).Err(); err != nil {
			log.Printf("XADD failed: %v", err)
			continue
		}
		published++
		time.Sleep(*interval)
	}

	log.Printf("Done. Published: %d (malformed: %d)", published, malformed)
}

func randomEvent(id int) string {
	return fmt.Sprintf(`{"id": %d, "event_type": %q, "severity": %q, "source": "publisher-%d", "message": %q, "timestamp": %q}`,
		id+1,
		eventTypes[rand.Intn(len(eventTypes))],
		severities[rand.Intn(len(severities))],
		rand.Intn(4),
		messages[rand.Intn(len(messages))],
		time.Now().UTC().Format(time.RFC3339Nano),
	)
}
