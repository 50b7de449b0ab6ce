// Package feedback aggregates observed ad performance: per-request
// upserts keyed by platform, insight summaries, and a cross-request
// top-performers view, with an event stream for live consumers.
package feedback

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anvramos/adforge/internal/model"
)

var (
	ErrInvalidFeedback = errors.New("invalid feedback")
	ErrRequestNotFound = errors.New("request id not found")
	ErrNoFeedback      = errors.New("no feedback recorded")
)

// EventFeedbackRecorded is the type of events published on Record.
const EventFeedbackRecorded = "feedback.recorded"

// Event notifies subscribers of a recorded feedback report.
type Event struct {
	Type     string               `json:"type"`
	Feedback model.FeedbackRecord `json:"feedback"`
}

// Resolver reports whether a request id refers to a known generation.
type Resolver interface {
	Get(requestID string) (model.GenerationRecord, bool)
}

// Aggregator collects feedback records. All state is guarded by a
// single mutex that is never held across a Resolver call.
type Aggregator struct {
	mu       sync.RWMutex
	resolver Resolver
	byKey    map[string]map[string]model.FeedbackRecord
	count    int

	subscribers map[int]chan Event
	nextSubID   int
}

// New creates an aggregator that validates request ids against the
// given resolver.
func New(resolver Resolver) *Aggregator {
	return &Aggregator{
		resolver:    resolver,
		byKey:       make(map[string]map[string]model.FeedbackRecord),
		subscribers: make(map[int]chan Event),
	}
}

// Record validates and upserts one feedback report. A report for an
// already-seen (request id, platform) pair replaces the earlier one.
func (a *Aggregator) Record(rec model.FeedbackRecord) error {
	rec.Platform = strings.ToLower(strings.TrimSpace(rec.Platform))
	if rec.Platform == "" {
		return fmt.Errorf("%w: platform is required", ErrInvalidFeedback)
	}
	for _, rate := range []struct {
		name  string
		value float64
	}{
		{"engagement_rate", rec.EngagementRate},
		{"click_through_rate", rec.ClickThroughRate},
		{"conversion_rate", rec.ConversionRate},
	} {
		if rate.value < 0 || rate.value > 1 {
			return fmt.Errorf("%w: %s %v outside [0,1]", ErrInvalidFeedback, rate.name, rate.value)
		}
	}

	if _, ok := a.resolver.Get(rec.RequestID); !ok {
		return fmt.Errorf("%w: %s", ErrRequestNotFound, rec.RequestID)
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	platforms, ok := a.byKey[rec.RequestID]
	if !ok {
		platforms = make(map[string]model.FeedbackRecord)
		a.byKey[rec.RequestID] = platforms
	}
	if _, exists := platforms[rec.Platform]; !exists {
		a.count++
	}
	platforms[rec.Platform] = rec
	a.publishLocked(Event{Type: EventFeedbackRecorded, Feedback: rec})
	return nil
}

// Insights summarizes the feedback recorded for one request:
// engagement and click-through averages plus the best performing
// platform. Ties on engagement go to the platform listed earliest in
// the original request.
func (a *Aggregator) Insights(requestID string) (model.InsightsSummary, error) {
	var requestOrder []string
	if generation, ok := a.resolver.Get(requestID); ok {
		for _, p := range generation.Request.Platforms {
			requestOrder = append(requestOrder, strings.ToLower(strings.TrimSpace(p)))
		}
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	platforms := a.byKey[requestID]
	if len(platforms) == 0 {
		return model.InsightsSummary{}, fmt.Errorf("%w: %s", ErrNoFeedback, requestID)
	}

	var sumEngagement, sumCTR float64
	for _, rec := range platforms {
		sumEngagement += rec.EngagementRate
		sumCTR += rec.ClickThroughRate
	}
	n := float64(len(platforms))

	best := ""
	bestRate := -1.0
	for _, platform := range orderedPlatforms(platforms, requestOrder) {
		if rate := platforms[platform].EngagementRate; rate > bestRate {
			best = platform
			bestRate = rate
		}
	}

	return model.InsightsSummary{
		AvgEngagementRate:      sumEngagement / n,
		AvgClickThroughRate:    sumCTR / n,
		BestPerformingPlatform: best,
		PlatformsTested:        len(platforms),
	}, nil
}

// orderedPlatforms lists the platforms with feedback, request order
// first, then any others lexically.
func orderedPlatforms(platforms map[string]model.FeedbackRecord, requestOrder []string) []string {
	out := make([]string, 0, len(platforms))
	seen := make(map[string]bool, len(platforms))
	for _, p := range requestOrder {
		if _, ok := platforms[p]; ok && !seen[p] {
			out = append(out, p)
			seen[p] = true
		}
	}
	rest := make([]string, 0, len(platforms))
	for p := range platforms {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// TopPerformers returns the stored feedback records ordered by
// descending engagement rate, most recent first on ties, truncated to
// limit (all records when limit is non-positive). The sequence is
// recomputed from current state each time it is ranged over.
func (a *Aggregator) TopPerformers(limit int) iter.Seq[model.FeedbackRecord] {
	return func(yield func(model.FeedbackRecord) bool) {
		for _, rec := range a.topSnapshot(limit) {
			if !yield(rec) {
				return
			}
		}
	}
}

func (a *Aggregator) topSnapshot(limit int) []model.FeedbackRecord {
	a.mu.RLock()
	all := make([]model.FeedbackRecord, 0, a.count)
	for _, platforms := range a.byKey {
		for _, rec := range platforms {
			all = append(all, rec)
		}
	}
	a.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].EngagementRate != all[j].EngagementRate {
			return all[i].EngagementRate > all[j].EngagementRate
		}
		if !all[i].RecordedAt.Equal(all[j].RecordedAt) {
			return all[i].RecordedAt.After(all[j].RecordedAt)
		}
		if all[i].RequestID != all[j].RequestID {
			return all[i].RequestID < all[j].RequestID
		}
		return all[i].Platform < all[j].Platform
	})

	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

// Count returns the total number of stored feedback records.
func (a *Aggregator) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.count
}

// Subscribe registers a listener for feedback events. The returned
// cancel function closes the channel and removes the listener. Slow
// consumers miss events rather than blocking Record.
func (a *Aggregator) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 256)
	a.mu.Lock()
	a.nextSubID++
	id := a.nextSubID
	a.subscribers[id] = ch
	a.mu.Unlock()

	return ch, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if c, ok := a.subscribers[id]; ok {
			delete(a.subscribers, id)
			close(c)
		}
	}
}

func (a *Aggregator) publishLocked(evt Event) {
	for _, ch := range a.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}
