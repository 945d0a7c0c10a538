package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/flight-search/contentguard/pkg/blocklist"
	"github.com/flight-search/contentguard/pkg/infra/prometheus"
	"github.com/flight-search/contentguard/pkg/policy"
	"github.com/flight-search/contentguard/pkg/scorer"
	"github.com/flight-search/contentguard/pkg/types"
)

const defaultResultConcurrency = 8

// Aggregator is the external multi-engine search layer. The pipeline
// respects its timeout/retry policy and never retries the call itself.
type Aggregator interface {
	Search(ctx context.Context, query, language string) ([]types.ResultItem, error)
}

// UpstreamAggregationError propagates an aggregator failure to the caller
// as a failed search request; the pipeline does not invent results.
type UpstreamAggregationError struct {
	Err error
}

func (e *UpstreamAggregationError) Error() string {
	return fmt.Sprintf("upstream aggregation failed: %v", e.Err)
}

func (e *UpstreamAggregationError) Unwrap() error { return e.Err }

// Config tunes the per-request fan-out.
type Config struct {
	ResultConcurrency int `mapstructure:"result_concurrency"`
}

// Pipeline sequences the safety checks for one request: score the query,
// decide early-block, otherwise score every result independently and
// assemble the filtered response. Invocations run concurrently and share
// only the read-only snapshot reference.
type Pipeline struct {
	store       *blocklist.Store
	domains     *blocklist.DomainList
	scorer      *scorer.Scorer
	router      *policy.Router
	aggregator  Aggregator
	concurrency int
	logger      *logrus.Logger
}

func New(
	store *blocklist.Store,
	domains *blocklist.DomainList,
	sc *scorer.Scorer,
	router *policy.Router,
	aggregator Aggregator,
	cfg Config,
	logger *logrus.Logger,
) *Pipeline {
	concurrency := cfg.ResultConcurrency
	if concurrency <= 0 {
		concurrency = defaultResultConcurrency
	}
	return &Pipeline{
		store:       store,
		domains:     domains,
		scorer:      sc,
		router:      router,
		aggregator:  aggregator,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Execute runs the full pipeline: a blocked query short-circuits before
// the aggregator is ever called, so a disallowed query is never exposed
// to the search engines.
func (p *Pipeline) Execute(ctx context.Context, query, language string) (*types.FilteredResponse, error) {
	return p.run(ctx, query, language, func(ctx context.Context) ([]types.ResultItem, error) {
		results, err := p.aggregator.Search(ctx, query, language)
		if err != nil {
			return nil, &UpstreamAggregationError{Err: err}
		}
		return results, nil
	})
}

// Filter scores a query plus results the aggregation layer already
// fetched. Used by the HTTP boundary; early query block still applies and
// the provided results are then discarded unscored.
func (p *Pipeline) Filter(ctx context.Context, req types.SearchRequest) (*types.FilteredResponse, error) {
	return p.run(ctx, req.Query, req.Language, func(context.Context) ([]types.ResultItem, error) {
		return req.Results, nil
	})
}

func (p *Pipeline) run(
	ctx context.Context,
	query, language string,
	fetch func(context.Context) ([]types.ResultItem, error),
) (*types.FilteredResponse, error) {
	started := time.Now()
	defer func() {
		prometheus.PipelineLatency.Observe(float64(time.Since(started).Milliseconds()))
	}()

	snapshot := p.store.Current()

	queryAssessment := p.scorer.ScoreQuery(ctx, query, language, snapshot)
	queryDecision := p.router.Decide(queryAssessment)

	if queryDecision.Action == types.ActionBlock {
		prometheus.QueriesBlocked.WithLabelValues(queryDecision.Category).Inc()
		p.logger.WithFields(logrus.Fields{
			"score":    queryDecision.Score,
			"category": queryDecision.Category,
			"snapshot": snapshot.Version,
		}).Info("query blocked before aggregation")
		return &types.FilteredResponse{
			QueryDecision: queryDecision,
			Results:       []types.ScoredResult{},
			Category:      queryDecision.Category,
			ResourceRef:   queryDecision.ResourceRef,
		}, nil
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	decisions, err := p.scoreItems(ctx, language, snapshot, items)
	if err != nil {
		// Cancellation discards partial results; nothing is returned.
		return nil, err
	}

	response := &types.FilteredResponse{
		QueryDecision: queryDecision,
		Results:       make([]types.ScoredResult, 0, len(items)),
	}
	for i, item := range items {
		decision := decisions[i]
		if decision.Action == types.ActionBlock {
			response.Dropped++
			prometheus.ResultsDropped.WithLabelValues(dropReason(decision)).Inc()
			continue
		}
		if decision.Action != types.ActionAllow {
			prometheus.ResultsAnnotated.WithLabelValues(string(decision.Action)).Inc()
		}
		response.Results = append(response.Results, types.ScoredResult{Item: item, Decision: decision})
	}

	p.aggregateWorstCase(response)
	return response, nil
}

// scoreItems fans out per-item scoring across bounded workers. Items have
// no cross-item dependency; decisions land at the item's original index
// so the returned order is deterministic regardless of completion order.
func (p *Pipeline) scoreItems(
	ctx context.Context,
	language string,
	snapshot *blocklist.Snapshot,
	items []types.ResultItem,
) ([]types.PolicyDecision, error) {
	decisions := make([]types.PolicyDecision, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range items {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			decisions[i] = p.scoreItem(gctx, language, snapshot, items[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return decisions, nil
}

func (p *Pipeline) scoreItem(
	ctx context.Context,
	language string,
	snapshot *blocklist.Snapshot,
	item types.ResultItem,
) types.PolicyDecision {
	if host := extractHost(item.URL); host != "" && p.domains != nil && p.domains.Blocked(host) {
		p.logger.WithField("host", host).Debug("result suppressed by domain blocklist")
		return types.PolicyDecision{Action: types.ActionBlock, Category: "domain_blocklist", Score: 100}
	}
	if unsafeURL(item.URL) {
		p.logger.Debug("result suppressed by url token screen")
		return types.PolicyDecision{Action: types.ActionBlock, Category: "unsafe_url", Score: 100}
	}

	text := strings.TrimSpace(item.Title + "\n" + item.Snippet + "\n" + item.URL)
	assessment := p.scorer.ScoreResult(ctx, text, language, snapshot)
	return p.router.Decide(assessment)
}

// aggregateWorstCase fills the response-level category and resourceRef
// from the query decision and every surviving item, so a hotline banner
// can be shown even when items were merely warned.
func (p *Pipeline) aggregateWorstCase(response *types.FilteredResponse) {
	bestPrecedence := -1
	bestPriority := -1
	resourcePriority := -1

	consider := func(d types.PolicyDecision) {
		if d.Category != "" {
			priority := p.router.Priority(d.Category)
			if d.Action.Precedence() > bestPrecedence ||
				(d.Action.Precedence() == bestPrecedence && priority > bestPriority) {
				bestPrecedence = d.Action.Precedence()
				bestPriority = priority
				response.Category = d.Category
			}
			if d.ResourceRef != "" && priority > resourcePriority {
				resourcePriority = priority
				response.ResourceRef = d.ResourceRef
			}
		}
	}

	consider(response.QueryDecision)
	for _, r := range response.Results {
		consider(r.Decision)
	}
}

func dropReason(decision types.PolicyDecision) string {
	switch decision.Category {
	case "domain_blocklist", "unsafe_url":
		return decision.Category
	default:
		return "rule_match"
	}
}
