// README: Offline benchmark for the matching engine; ranks synthetic worker pools and prints timings.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"laborhub/internal/modules/matching"
	"laborhub/internal/modules/worker"
	"laborhub/internal/types"
)

type benchConfig struct {
	Workers    int
	Iterations int
	Seed       int64
}

func main() {
	cfg := loadConfig()

	rng := rand.New(rand.NewSource(cfg.Seed))
	center := types.Point{Lat: 31.2304, Lng: 121.4737}
	profiles := syntheticProfiles(rng, center, cfg.Workers)
	hired := syntheticHistory(rng, profiles)
	matchCfg := matching.DefaultConfig()

	// Warm up once so the first timed run does not pay allocation setup.
	_ = matching.Rank(center, "cleaning", []string{"deep-clean"}, profiles, hired, matchCfg)

	start := time.Now()
	var ranked int
	for i := 0; i < cfg.Iterations; i++ {
		out := matching.Rank(center, "cleaning", []string{"deep-clean"}, profiles, hired, matchCfg)
		ranked += len(out)
	}
	elapsed := time.Since(start)

	perCall := elapsed / time.Duration(cfg.Iterations)
	fmt.Printf("workers=%d iterations=%d total=%s per-call=%s avg-results=%.1f\n",
		cfg.Workers, cfg.Iterations, elapsed, perCall, float64(ranked)/float64(cfg.Iterations))
}

func loadConfig() benchConfig {
	var cfg benchConfig
	flag.IntVar(&cfg.Workers, "workers", envOrDefaultInt("LABORHUB_BENCH_WORKERS", 5000), "Synthetic worker pool size")
	flag.IntVar(&cfg.Iterations, "iterations", envOrDefaultInt("LABORHUB_BENCH_ITERATIONS", 100), "Ranking iterations")
	flag.Int64Var(&cfg.Seed, "seed", 42, "RNG seed")
	flag.Parse()
	return cfg
}

func syntheticProfiles(rng *rand.Rand, center types.Point, n int) []worker.Profile {
	skills := [][]string{
		{"deep-clean"},
		{"deep-clean", "window-clean"},
		{"window-clean"},
		nil,
	}
	profiles := make([]worker.Profile, 0, n)
	for i := 0; i < n; i++ {
		loc := types.Point{
			Lat: center.Lat + (rng.Float64()-0.5)*0.3,
			Lng: center.Lng + (rng.Float64()-0.5)*0.3,
		}
		status := worker.StatusOnline
		if rng.Float64() < 0.2 {
			status = worker.StatusBusy
		}
		now := time.Now()
		profiles = append(profiles, worker.Profile{
			UserID:            types.ID(fmt.Sprintf("w%06d", i)),
			Name:              fmt.Sprintf("Worker %d", i),
			OnlineStatus:      status,
			AccountStatus:     worker.AccountActive,
			ServiceCategories: []string{"cleaning"},
			Skills:            skills[rng.Intn(len(skills))],
			AverageRating:     3.0 + rng.Float64()*2.0,
			AcceptanceRate:    50 + rng.Float64()*50,
			CompletionRate:    60 + rng.Float64()*40,
			CompletedOrders:   rng.Intn(300),
			LastLocation:      &loc,
			LocationUpdatedAt: &now,
		})
	}
	return profiles
}

func syntheticHistory(rng *rand.Rand, profiles []worker.Profile) map[types.ID]int {
	hired := make(map[types.ID]int)
	for i := range profiles {
		if rng.Float64() < 0.05 {
			hired[profiles[i].UserID] = 1 + rng.Intn(8)
		}
	}
	return hired
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
