// friendbench drives concurrent AddFriend calls at one user and checks that
// the friend set ends up with exactly one entry per distinct friend.
//
// Knobs: N (friends, default 10000), CONC (workers, default 8), DUP (times
// each friend is added, default 2).
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/d60-Lab/social-graph/config"
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

func check(err error) {
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

func openStore(ctx context.Context, cfg *config.Config) *repository.Store {
	if must(database.DetectDriver(cfg.Database.URI)) == database.DriverMongo {
		client, db, err := database.InitMongo(ctx, cfg)
		check(err)
		check(repository.EnsureIndexes(ctx, db))
		return repository.NewMongoStore(client, db)
	}
	return repository.NewGormStore(must(database.InitDB(cfg)))
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	store := openStore(ctx, cfg)
	defer store.Close(ctx)

	m := metrics.New()
	users := service.NewUserService(store.Users, store.Thoughts, m)

	N := envInt("N", 10000)
	CONC := envInt("CONC", 8)
	DUP := envInt("DUP", 2)

	hub := must(users.Create(ctx, service.CreateUserInput{Username: "bench_hub", Email: "hub@bench.io"}))
	friends := make([]string, N)
	seedStart := time.Now()
	for i := range friends {
		u := must(users.Create(ctx, service.CreateUserInput{
			Username: fmt.Sprintf("bench_%d", i),
			Email:    fmt.Sprintf("bench%d@bench.io", i),
		}))
		friends[i] = u.ID
	}
	seedDur := time.Since(seedStart)

	total := N * DUP
	feed := make(chan string, total)
	for d := 0; d < DUP; d++ {
		for _, id := range friends {
			feed <- id
		}
	}
	close(feed)

	workers := CONC
	if workers > total {
		workers = total
	}
	latCh := make(chan time.Duration, total)
	var failures atomic.Int64
	done := make(chan struct{}, workers)
	t0 := time.Now()
	for w := 0; w < workers; w++ {
		go func() {
			for id := range feed {
				st := time.Now()
				if _, err := users.AddFriend(ctx, hub.ID, id); err != nil {
					failures.Add(1)
				}
				latCh <- time.Since(st)
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}
	close(latCh)
	addDur := time.Since(t0)

	lats := make([]time.Duration, 0, total)
	for d := range latCh {
		lats = append(lats, d)
	}

	q0 := time.Now()
	view := must(users.Get(ctx, hub.ID))
	getDur := time.Since(q0)

	pct := func(vs []time.Duration, p float64) time.Duration {
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

	fmt.Printf("driver=%s N=%d CONC=%d DUP=%d\n", store.Driver, N, CONC, DUP)
	fmt.Printf("Seed %d users: %v\n", N+1, seedDur)
	fmt.Printf("AddFriend total: %v, per op: %v, p50: %v, p95: %v, p99: %v, failures: %d\n",
		addDur, addDur/time.Duration(total), pct(lats, 0.50), pct(lats, 0.95), pct(lats, 0.99), failures.Load())
	fmt.Printf("Get expanded user (%d friends): %v\n", len(view.Friends), getDur)
	if view.FriendCount != N {
		fmt.Printf("MISMATCH: friendCount=%d, want %d\n", view.FriendCount, N)
		os.Exit(1)
	}
	fmt.Println("friend set consistent")
}
