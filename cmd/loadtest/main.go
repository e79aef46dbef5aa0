// Package main provides a load testing tool for the posts API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// Metrics tracks the test results
type Metrics struct {
	Requests      int64
	Failures      int64
	PostsCreated  int64
	CommentsAdded int64
	LikesToggled  int64
	ListsFetched  int64
	// TotalLatency is in microseconds
	TotalLatency int64
}

var metrics Metrics

var symbols = []string{"AAPL", "MSFT", "NVDA", "TSLA", "AMZN", "XOM"}

type client struct {
	base  string
	token string
	http  *http.Client
}

func main() {
	host := flag.String("host", "localhost:4000", "API server host")
	email := flag.String("email", "demo@example.com", "Test user email")
	password := flag.String("password", "password123", "Test user password")
	clients := flag.Int("clients", 20, "Number of concurrent clients")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	flag.Parse()

	log.Printf("🚀 Starting API Load Test")
	log.Printf("Target: %s", *host)
	log.Printf("Clients: %d", *clients)
	log.Printf("Duration: %v", *duration)

	base := fmt.Sprintf("http://%s/api", *host)
	httpClient := &http.Client{Timeout: 5 * time.Second}

	token, err := login(httpClient, base, *email, *password)
	if err != nil {
		log.Fatalf("❌ Login failed: %v", err)
	}
	log.Printf("✅ Logged in successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < *clients; i++ {
		c := &client{base: base, token: token, http: httpClient}
		seed := int64(i) + time.Now().UnixNano()
		g.Go(func() error {
			c.run(gctx, rand.New(rand.NewSource(seed))) // #nosec G404 -- load pattern only
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() == context.DeadlineExceeded {
		log.Println("⏱️  Test duration reached")
	} else {
		log.Println("🛑 Interrupted by user")
	}
	printMetrics()
}

func login(hc *http.Client, base, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	resp, err := hc.Post(base+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

// run mixes reads and writes until ctx is done. Each iteration lists posts,
// then either creates a post or comments on and likes a listed one.
func (c *client) run(ctx context.Context, rng *rand.Rand) {
	for ctx.Err() == nil {
		var posts []struct {
			PostID uint `json:"postId"`
		}
		if c.do(ctx, http.MethodGet, "/posts?sortBy=likes", nil, &posts) == nil {
			atomic.AddInt64(&metrics.ListsFetched, 1)
		}

		if len(posts) == 0 || rng.Intn(4) == 0 {
			symbol := symbols[rng.Intn(len(symbols))]
			if c.do(ctx, http.MethodPost, "/posts", map[string]any{
				"stockSymbol": symbol,
				"title":       fmt.Sprintf("%s load test post", symbol),
				"description": "Generated by the load test tool",
				"tags":        []string{"loadtest"},
			}, nil) == nil {
				atomic.AddInt64(&metrics.PostsCreated, 1)
			}
			continue
		}

		postID := posts[rng.Intn(len(posts))].PostID
		if c.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d/comments", postID),
			map[string]string{"comment": "load test comment"}, nil) == nil {
			atomic.AddInt64(&metrics.CommentsAdded, 1)
		}

		// Like then unlike so the run leaves counts where it found them
		likePath := fmt.Sprintf("/posts/%d/like", postID)
		if c.do(ctx, http.MethodPost, likePath, nil, nil) == nil {
			atomic.AddInt64(&metrics.LikesToggled, 1)
			if c.do(ctx, http.MethodDelete, likePath, nil, nil) == nil {
				atomic.AddInt64(&metrics.LikesToggled, 1)
			}
		}
	}
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	atomic.AddInt64(&metrics.Requests, 1)
	atomic.AddInt64(&metrics.TotalLatency, time.Since(start).Microseconds())
	if err != nil {
		if ctx.Err() == nil {
			atomic.AddInt64(&metrics.Failures, 1)
		}
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		atomic.AddInt64(&metrics.Failures, 1)
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func printMetrics() {
	requests := atomic.LoadInt64(&metrics.Requests)
	var avg time.Duration
	if requests > 0 {
		avg = time.Duration(atomic.LoadInt64(&metrics.TotalLatency)/requests) * time.Microsecond
	}

	log.Println("\n📊 Test Results")
	log.Println("===============")
	log.Printf("Requests: %d", requests)
	log.Printf("Failures: %d", atomic.LoadInt64(&metrics.Failures))
	log.Printf("Average Latency: %v", avg)
	log.Printf("Lists Fetched: %d", atomic.LoadInt64(&metrics.ListsFetched))
	log.Printf("Posts Created: %d", atomic.LoadInt64(&metrics.PostsCreated))
	log.Printf("Comments Added: %d", atomic.LoadInt64(&metrics.CommentsAdded))
	log.Printf("Likes Toggled: %d", atomic.LoadInt64(&metrics.LikesToggled))
}
