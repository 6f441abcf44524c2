// cachebench compares expanded user reads straight from the store with reads
// through the Redis entity cache. Three hub users share overlapping friend
// sets so friend records are reused across hubs.
//
// Knobs: USERS (default 20000), REQS (default 9000), REDIS_ADDR (default
// localhost:6379); the store comes from the usual config.
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/social-graph/config"
	"github.com/d60-Lab/social-graph/internal/cache"
	"github.com/d60-Lab/social-graph/internal/metrics"
	"github.com/d60-Lab/social-graph/internal/repository"
	"github.com/d60-Lab/social-graph/internal/service"
	"github.com/d60-Lab/social-graph/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	if must(database.DetectDriver(cfg.Database.URI)) == database.DriverMongo {
		fmt.Fprintln(os.Stderr, "cachebench seeds through gorm; point database.uri at postgres or sqlite")
		os.Exit(2)
	}
	store := repository.NewGormStore(must(database.InitDB(cfg)))
	defer store.Close(ctx)
	mustDo(store.Users.DeleteAll(ctx))
	mustDo(store.Thoughts.DeleteAll(ctx))

	userCount := envInt("USERS", 20000)
	reqCount := envInt("REQS", 9000)

	m := metrics.New()
	plain := service.NewUserService(store.Users, store.Thoughts, m)

	fmt.Println("Setting up test data...")
	hubs := make([]string, 3)
	for i := range hubs {
		u := must(plain.Create(ctx, service.CreateUserInput{
			Username: fmt.Sprintf("hub%d", i+1),
			Email:    fmt.Sprintf("hub%d@example.com", i+1),
		}))
		hubs[i] = u.ID
	}
	ids := make([]string, userCount)
	for i := range ids {
		u := must(plain.Create(ctx, service.CreateUserInput{
			Username: fmt.Sprintf("user_%d", i),
			Email:    fmt.Sprintf("user_%d@example.com", i),
		}))
		ids[i] = u.ID
	}
	// hub1: users [0, n/2), hub2: [n/4, 3n/4), hub3: [3n/8, 7n/8)
	offsets := []int{0, userCount / 4, userCount * 3 / 8}
	for h, off := range offsets {
		for i := 0; i < userCount/2; i++ {
			_ = must(store.Users.AddFriend(ctx, hubs[h], ids[(i+off)%userCount]))
		}
	}
	fmt.Println("Test data ready: 3 hubs with overlapping friend sets")

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis at %s: %v", redisAddr, err))
	}
	mustDo(client.FlushDB(ctx).Err())

	cached := service.NewUserService(
		cache.NewUserRepository(store.Users, client, 10*time.Minute, m),
		cache.NewThoughtRepository(store.Thoughts, client, 10*time.Minute, m),
		m,
	)

	rng := rand.New(rand.NewSource(42))
	reqs := make([]string, reqCount)
	for i := range reqs {
		reqs[i] = hubs[rng.Intn(len(hubs))]
	}

	run := func(name string, svc service.UserService) {
		lats := make([]time.Duration, 0, len(reqs))
		t0 := time.Now()
		for _, id := range reqs {
			st := time.Now()
			_ = must(svc.Get(ctx, id))
			lats = append(lats, time.Since(st))
		}
		total := time.Since(t0)
		fmt.Printf("%-8s total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
			name, total, total/time.Duration(len(reqs)), pct(lats, 0.50), pct(lats, 0.95), pct(lats, 0.99))
	}

	fmt.Printf("driver=%s users=%d reqs=%d\n", store.Driver, userCount, reqCount)
	run("store", plain)
	run("cached", cached)
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}
