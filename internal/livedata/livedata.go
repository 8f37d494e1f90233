// Package livedata acquires network snapshots from public APIs with a
// TTL cache and a static fallback. It is the only part of the system that
// performs network I/O or consults the clock; the engine only ever receives
// the resulting snapshot value.
package livedata

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/21mScot/sitecast/internal/network"
)

// Default endpoints. Overridable for tests.
const (
	defaultPriceURL      = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=usd,gbp"
	defaultDifficultyURL = "https://blockchain.info/q/getdifficulty"
	defaultTipHeightURL  = "https://mempool.space/api/v1/blocks/tip-height"
)

// Service fetches and caches network snapshots. The cached snapshot is
// served until the TTL expires; on fetch failure a stale snapshot is
// preferred over the static fallback.
type Service struct {
	client  *http.Client
	enabled bool
	ttl     time.Duration
	static  network.Snapshot

	priceURL      string
	difficultyURL string
	tipHeightURL  string

	mu     sync.RWMutex
	cached network.Snapshot
	have   bool
}

// NewService builds a live-data service. The static snapshot is served
// whenever live fetching is disabled or has never succeeded; its subsidy is
// also reused for live snapshots, since no public API reports it.
func NewService(enabled bool, ttl time.Duration, static network.Snapshot) *Service {
	static.Source = network.SourceStatic
	if static.FetchedAt.IsZero() {
		static.FetchedAt = time.Now().UTC()
	}
	return &Service{
		client:        &http.Client{Timeout: 10 * time.Second},
		enabled:       enabled,
		ttl:           ttl,
		static:        static,
		priceURL:      defaultPriceURL,
		difficultyURL: defaultDifficultyURL,
		tipHeightURL:  defaultTipHeightURL,
	}
}

// Snapshot returns the current snapshot: cached if fresh, freshly fetched
// if stale, static fallback otherwise. It never returns an error; the
// snapshot's Source tag tells the caller what it got.
func (s *Service) Snapshot() network.Snapshot {
	if !s.enabled {
		return s.static
	}

	s.mu.RLock()
	cached, have := s.cached, s.have
	s.mu.RUnlock()

	if have && time.Since(cached.FetchedAt) < s.ttl {
		return cached
	}

	snap, err := s.Refresh()
	if err != nil {
		log.Printf("Live data fetch failed: %v", err)
		if have {
			return cached // stale beats static
		}
		return s.static
	}
	return snap
}

// Refresh forces a live fetch, updates the cache, and returns the snapshot.
func (s *Service) Refresh() (network.Snapshot, error) {
	priceUSD, priceGBP, err := s.fetchPrice()
	if err != nil {
		return network.Snapshot{}, err
	}
	difficulty, err := s.fetchDifficulty()
	if err != nil {
		return network.Snapshot{}, err
	}

	snap := network.Snapshot{
		Difficulty:      difficulty,
		BlockSubsidyBTC: s.static.BlockSubsidyBTC,
		BTCPriceUSD:     priceUSD,
		FetchedAt:       time.Now().UTC(),
		Source:          network.SourceLive,
	}
	if priceUSD > 0 && priceGBP > 0 {
		snap.USDToGBP = priceGBP / priceUSD
	}

	// Tip height is informational; don't fail the snapshot over it.
	if height, err := s.fetchTipHeight(); err == nil {
		snap.BlockHeight = height
	}

	if err := snap.Validate(); err != nil {
		return network.Snapshot{}, fmt.Errorf("live data produced invalid snapshot: %w", err)
	}

	s.mu.Lock()
	s.cached = snap
	s.have = true
	s.mu.Unlock()

	return snap, nil
}

// fetchPrice fetches the BTC price in USD and GBP from CoinGecko.
func (s *Service) fetchPrice() (usd, gbp float64, err error) {
	resp, err := s.client.Get(s.priceURL)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch from CoinGecko: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("CoinGecko returned status %d", resp.StatusCode)
	}

	var data map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, 0, fmt.Errorf("failed to decode CoinGecko response: %w", err)
	}

	coin, ok := data["bitcoin"]
	if !ok {
		return 0, 0, fmt.Errorf("price not found in CoinGecko response")
	}
	return coin["usd"], coin["gbp"], nil
}

// fetchDifficulty fetches the network difficulty from blockchain.info,
// which returns it as plain text.
func (s *Service) fetchDifficulty() (float64, error) {
	resp, err := s.client.Get(s.difficultyURL)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch difficulty: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("difficulty endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read difficulty response: %w", err)
	}

	difficulty, err := strconv.ParseFloat(strings.TrimSpace(string(body)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse difficulty %q: %w", strings.TrimSpace(string(body)), err)
	}
	return difficulty, nil
}

// fetchTipHeight fetches the latest block height from mempool.space.
func (s *Service) fetchTipHeight() (int64, error) {
	resp, err := s.client.Get(s.tipHeightURL)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch tip height: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("tip height endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read tip height response: %w", err)
	}

	height, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse tip height: %w", err)
	}
	return height, nil
}

// StartRefresher starts a background goroutine that refreshes the snapshot
// periodically and reports each fresh snapshot via onUpdate.
func (s *Service) StartRefresher(interval time.Duration, onUpdate func(network.Snapshot)) {
	if !s.enabled || interval <= 0 {
		return
	}
	go func() {
		// Initial fetch
		if snap, err := s.Refresh(); err != nil {
			log.Printf("Initial live data fetch error: %v", err)
		} else if onUpdate != nil {
			onUpdate(snap)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			snap, err := s.Refresh()
			if err != nil {
				log.Printf("Live data fetch error: %v", err)
				continue
			}
			if onUpdate != nil {
				onUpdate(snap)
			}
		}
	}()
}
