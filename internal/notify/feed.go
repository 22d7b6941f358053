package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/feeds"

	"etfpulse/internal/cache"
)

const (
	feedTypeRSS  = "rss"
	feedTypeAtom = "atom"
)

type FeedConfig struct {
	Port     string
	FeedSize int
}

// FeedNotifier serves the recent trend summaries as RSS/Atom feeds over
// HTTP. Rendered documents are cached and invalidated when a new summary
// arrives.
type FeedNotifier struct {
	name   string
	config FeedConfig
	items  []*feeds.Item
	mu     sync.RWMutex
	server *http.Server
	cache  *cache.Cache[string, string]
}

func NewFeedNotifier(name string, config FeedConfig) *FeedNotifier {
	if config.Port == "" {
		config.Port = "8080"
	}
	if config.FeedSize == 0 {
		config.FeedSize = 50
	}

	return &FeedNotifier{
		name:   name,
		config: config,
		items:  make([]*feeds.Item, 0, config.FeedSize),
		cache:  cache.New[string, string](cache.Config{TTL: time.Hour}, func(k string) string { return k }),
	}
}

func (f *FeedNotifier) Name() string {
	return f.name
}

func (f *FeedNotifier) Initialize(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed.rss", f.handleFeed(feedTypeRSS))
	mux.HandleFunc("/feed.atom", f.handleFeed(feedTypeAtom))

	f.server = &http.Server{
		Addr:    ":" + f.config.Port,
		Handler: mux,
	}

	go func() {
		slog.Info("feed notifier listening", "notifier", f.name, "port", f.config.Port)
		if err := f.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("feed notifier server error", "notifier", f.name, "error", err)
		}
	}()

	return nil
}

func (f *FeedNotifier) Publish(ctx context.Context, summary *Summary) error {
	item := &feeds.Item{
		Id:          fmt.Sprintf("%s-%s", summary.Workflow, summary.Created.Format(time.RFC3339)),
		Title:       fmt.Sprintf("ETF trend summary — %s (%s)", summary.RunDate, summary.Workflow),
		Description: summary.Prose,
		Link:        &feeds.Link{Href: firstProvenanceURL(summary)},
		Created:     summary.Created,
	}

	f.mu.Lock()
	f.items = append(f.items, item)
	if len(f.items) > f.config.FeedSize {
		f.items = f.items[len(f.items)-f.config.FeedSize:]
	}
	f.mu.Unlock()

	f.cache.InvalidatePattern(f.name + ":")
	return nil
}

func firstProvenanceURL(summary *Summary) string {
	if len(summary.Provenance) > 0 {
		return summary.Provenance[0].URL
	}
	return ""
}

func (f *FeedNotifier) handleFeed(feedType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentType := "application/rss+xml; charset=utf-8"
		if feedType == feedTypeAtom {
			contentType = "application/atom+xml; charset=utf-8"
		}

		key := f.name + ":" + feedType
		if cached, found := f.cache.Get(key); found {
			w.Header().Set("Content-Type", contentType)
			fmt.Fprint(w, cached)
			return
		}

		rendered, err := f.render(feedType)
		if err != nil {
			http.Error(w, "failed to render feed", http.StatusInternalServerError)
			return
		}

		f.cache.Set(key, rendered)
		w.Header().Set("Content-Type", contentType)
		fmt.Fprint(w, rendered)
	}
}

func (f *FeedNotifier) render(feedType string) (string, error) {
	f.mu.RLock()
	items := make([]*feeds.Item, len(f.items))
	copy(items, f.items)
	f.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		return items[i].Created.After(items[j].Created)
	})

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("ETF trend summaries (%s)", f.name),
		Link:        &feeds.Link{Href: "http://localhost:" + f.config.Port + "/"},
		Description: "Trend summaries produced by the etfpulse pipeline",
		Created:     time.Now().UTC(),
		Items:       items,
	}

	if feedType == feedTypeAtom {
		return feed.ToAtom()
	}
	return feed.ToRss()
}

func (f *FeedNotifier) Shutdown(ctx context.Context) error {
	if f.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return f.server.Shutdown(shutdownCtx)
	}
	return nil
}
