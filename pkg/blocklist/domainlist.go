package blocklist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/flight-search/contentguard/pkg/cache"
)

const (
	domainListCacheKeyPattern = "domainlist:%s"
	defaultFetchConcurrency   = 6
	fetchUserAgent            = "Flight-Search/1.0"
)

// DomainList holds the merged set of blocked hosts fetched from remote
// domain blocklists. Like the rule store it swaps the whole set
// atomically; lookups never see a half-merged list.
type DomainList struct {
	urls     []string
	client   *http.Client
	cache    *cache.Cache
	cacheTTL time.Duration
	logger   *logrus.Logger

	domains atomic.Pointer[domainSet]
}

type domainSet struct {
	hosts     map[string]struct{}
	fetchedAt time.Time
}

func NewDomainList(urls []string, client *http.Client, c *cache.Cache, cacheTTL time.Duration, logger *logrus.Logger) *DomainList {
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	d := &DomainList{
		urls:     urls,
		client:   client,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
	d.domains.Store(&domainSet{hosts: map[string]struct{}{}})
	return d
}

// Refresh fetches every configured list concurrently, merges the results,
// and publishes the merged set. Individual list failures fall back to the
// cached copy; only a total failure of all lists is an error.
func (d *DomainList) Refresh(ctx context.Context) error {
	if len(d.urls) == 0 {
		return nil
	}

	var mu sync.Mutex
	merged := make(map[string]struct{})
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultFetchConcurrency)
	for _, url := range d.urls {
		url := url
		g.Go(func() error {
			hosts, err := d.fetchList(gctx, url)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				d.logger.WithError(err).WithField("url", url).Warn("failed to fetch domain blocklist")
				failed++
				return nil
			}
			for h := range hosts {
				merged[h] = struct{}{}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if failed == len(d.urls) {
		return fmt.Errorf("all %d domain blocklists unavailable", len(d.urls))
	}

	d.domains.Store(&domainSet{hosts: merged, fetchedAt: time.Now()})
	d.logger.WithFields(logrus.Fields{
		"domains": len(merged),
		"lists":   len(d.urls) - failed,
	}).Info("domain blocklists loaded")
	return nil
}

// Start refreshes once and then keeps the set fresh on the given interval
// until ctx is cancelled. The initial refresh error is returned so the
// caller can decide whether to run without domain rules.
func (d *DomainList) Start(ctx context.Context, interval time.Duration) error {
	err := d.Refresh(ctx)
	if interval <= 0 {
		return err
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if rerr := d.Refresh(ctx); rerr != nil {
					d.logger.WithError(rerr).Warn("domain blocklist refresh failed, keeping previous set")
				}
			}
		}
	}()
	return err
}

// Blocked reports whether host or any parent domain of it is on the list.
func (d *DomainList) Blocked(host string) bool {
	if host == "" {
		return false
	}
	set := d.domains.Load()
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	parts := strings.Split(host, ".")
	for i := 0; i < len(parts)-1; i++ {
		if _, ok := set.hosts[strings.Join(parts[i:], ".")]; ok {
			return true
		}
	}
	return false
}

// Size returns the number of blocked domains currently loaded.
func (d *DomainList) Size() int {
	return len(d.domains.Load().hosts)
}

func (d *DomainList) fetchList(ctx context.Context, url string) (map[string]struct{}, error) {
	body, err := d.download(ctx, url)
	if err != nil {
		if cached, cerr := d.cachedList(ctx, url); cerr == nil {
			d.logger.WithField("url", url).Info("using cached domain blocklist")
			return parseDomainLines(strings.NewReader(cached)), nil
		}
		return nil, err
	}

	if d.cache != nil {
		key := fmt.Sprintf(domainListCacheKeyPattern, url)
		if cerr := d.cache.Set(ctx, key, body, d.cacheTTL); cerr != nil {
			d.logger.WithError(cerr).WithField("url", url).Debug("could not cache domain blocklist")
		}
	}
	return parseDomainLines(strings.NewReader(body)), nil
}

func (d *DomainList) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (d *DomainList) cachedList(ctx context.Context, url string) (string, error) {
	if d.cache == nil {
		return "", fmt.Errorf("no cache configured")
	}
	return d.cache.Get(ctx, fmt.Sprintf(domainListCacheKeyPattern, url))
}

func parseDomainLines(r io.Reader) map[string]struct{} {
	hosts := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		hosts[line] = struct{}{}
	}
	return hosts
}
