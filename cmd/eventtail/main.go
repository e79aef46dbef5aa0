// Command eventtail prints domain events from the configured broker, one JSON
// object per line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stocktalk/internal/cache"
	"stocktalk/internal/config"
	"stocktalk/internal/events"
)

func main() {
	group := flag.String("group", "stocktalk-eventtail", "Kafka consumer group")
	eventType := flag.String("type", "", "Only print events of this type (e.g. post.liked)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	printEvent := func(ev events.Event) {
		if *eventType != "" && ev.Type != *eventType {
			return
		}
		if err := enc.Encode(ev); err != nil {
			log.Printf("write event: %v", err)
		}
	}

	if err := tail(ctx, cfg, *group, printEvent); err != nil {
		log.Fatal(err)
	}
}

func tail(ctx context.Context, cfg *config.Config, group string, onEvent func(events.Event)) error {
	switch cfg.EventsDriver {
	case "redis":
		cache.InitRedis(cfg.RedisURL)
		defer func() { _ = cache.Close() }()
		rdb := cache.GetClient()
		if rdb == nil {
			return fmt.Errorf("redis unavailable at %s", cfg.RedisURL)
		}
		if err := events.NewRedisPublisher(rdb, events.RedisChannel).Subscribe(ctx, onEvent); err != nil {
			return err
		}
		log.Printf("Tailing redis channel %s", events.RedisChannel)
		<-ctx.Done()
		return nil
	case "kafka":
		log.Printf("Tailing kafka topic %s as group %s", cfg.KafkaTopic, group)
		return events.ConsumeKafka(ctx, cfg.KafkaBrokerList(), group, cfg.KafkaTopic, onEvent)
	default:
		return fmt.Errorf("EVENTS_DRIVER %q has nothing to tail; use redis or kafka", cfg.EventsDriver)
	}
}
