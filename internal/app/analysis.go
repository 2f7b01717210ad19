package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/adapters/observability"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/dispatch"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/llm"
)

type AnalysisOptions struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	FullAnalysis bool   `json:"fullAnalysis"`
}

// ProviderFactory builds a provider for a request. Injected so tests can
// swap in fakes without HTTP.
type ProviderFactory func(provider, model string) (llm.Provider, error)

type AnalysisService struct {
	repo        domain.ReviewRepository
	cache       domain.Cache // layered: memory in front of redis
	disp        *dispatch.Dispatcher
	providers   ProviderFactory
	ttl         time.Duration
	fallbackTTL time.Duration
	chunkSize   int
}

func NewAnalysisService(r domain.ReviewRepository, c domain.Cache, d *dispatch.Dispatcher, pf ProviderFactory, ttl time.Duration) *AnalysisService {
	return &AnalysisService{
		repo:        r,
		cache:       c,
		disp:        d,
		providers:   pf,
		ttl:         ttl,
		fallbackTTL: ttl / 4,
		chunkSize:   200,
	}
}

// Analyze runs the canonical pipeline: cache lookup, dispatch, normalize,
// cache store. The numeric sections are always computed locally; only the
// narrative goes through an LLM, and any LLM failure degrades to the local
// rating-based narrative instead of failing the request.
func (s *AnalysisService) Analyze(ctx context.Context, businessID int64, opts AnalysisOptions) (domain.AnalysisResult, error) {
	b, err := s.repo.GetBusiness(ctx, businessID)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	rs, err := s.repo.ListReviewsSince(ctx, businessID, 0)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	// Content-addressed key: same reviews + same options = same analysis,
	// no matter when it is asked for.
	key := analysisKey(businessID, opts, rs)
	var cached domain.AnalysisResult
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		cached.FromCache = true
		return cached, nil
	}

	res := domain.AnalysisResult{
		SentimentAnalysis:    analytics.SentimentCounts(rs),
		StaffMentions:        analytics.StaffMentions(rs),
		CommonTerms:          analytics.CommonTerms(rs, 20),
		MainThemes:           themeCounts(rs),
		RatingBreakdown:      analytics.CountByRating(rs),
		LanguageDistribution: analytics.LanguageDistribution(rs),
		GeneratedAt:          time.Now().UTC(),
	}

	narrative, provider, model, ok := s.narrative(ctx, b, rs, opts)
	res.OverallAnalysis = narrative
	res.Provider = provider
	res.Model = model

	ttl := s.ttl
	if !ok {
		ttl = s.fallbackTTL // retry the provider sooner
	}
	_ = s.cache.Set(ctx, key, res, int(ttl.Seconds()))
	return res, nil
}

// narrative returns the analysis text plus its provenance. ok is false when
// the local fallback had to stand in for a configured provider.
func (s *AnalysisService) narrative(ctx context.Context, b domain.Business, rs []domain.Review, opts AnalysisOptions) (text, provider, model string, ok bool) {
	fallback := func() (string, string, string, bool) {
		return analytics.BasicAnalysis(b.Name, rs), "local", "", false
	}

	p, err := s.providers(opts.Provider, opts.Model)
	if err != nil {
		log.Warn().Err(err).Str("provider", opts.Provider).Msg("provider unavailable, using local analysis")
		observability.ObserveLLM(opts.Provider, "fallback", 0)
		return fallback()
	}
	if p == nil {
		// No provider configured: local analysis is the intended result,
		// not a degradation.
		t, pr, m, _ := fallback()
		return t, pr, m, true
	}

	m := analytics.Overview(rs)
	chunks := chunkReviews(rs, s.chunkSize)
	parts := make([]string, len(chunks))
	tokens := make([]int, len(chunks))
	models := make([]string, len(chunks))

	var wg sync.WaitGroup
	errs := make([]error, len(chunks))
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []domain.Review) {
			defer wg.Done()
			resp, err := s.disp.Submit(ctx, dispatch.Task{
				Provider: p,
				Request: llm.AnalysisRequest{
					Prompt: llm.BuildPrompt(b.Name, chunk, m, opts.FullAnalysis),
					Model:  opts.Model,
				},
			})
			if err != nil {
				errs[i] = err
				return
			}
			parts[i], tokens[i], models[i] = resp.Text, resp.TokensUsed, resp.Model
		}(i, chunk)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Msg("analysis dispatch failed, using local analysis")
			observability.ObserveLLM(p.Name(), "fallback", 0)
			return fallback()
		}
	}

	total := 0
	for _, t := range tokens {
		total += t
	}
	text = parts[0]
	model = models[0]
	if len(parts) > 1 {
		// Fold the per-chunk narratives into one; if the merge call fails we
		// still have usable parts, so just join them.
		resp, err := s.disp.Submit(ctx, dispatch.Task{
			Provider: p,
			Request:  llm.AnalysisRequest{Prompt: llm.BuildMergePrompt(b.Name, parts), Model: opts.Model},
		})
		if err != nil {
			log.Warn().Err(err).Msg("narrative merge failed, joining chunk analyses")
			text = strings.Join(parts, "\n\n")
		} else {
			text = resp.Text
			model = resp.Model
			total += resp.TokensUsed
		}
	}

	observability.ObserveLLM(p.Name(), "ok", total)
	return text, p.Name(), model, true
}

// themeCounts flattens the mention aggregation into plain term counts.
func themeCounts(rs []domain.Review) []domain.TermCount {
	mentions := analytics.Themes(rs)
	out := make([]domain.TermCount, 0, len(mentions))
	for _, m := range mentions {
		out = append(out, domain.TermCount{Term: m.Name, Count: m.Count})
	}
	return out
}

// analysisKey hashes the review identity set with the request options, so
// any ingest that changes the reviews changes the key.
func analysisKey(businessID int64, opts AnalysisOptions, rs []domain.Review) string {
	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		id := ""
		if r.ReviewURL != nil {
			id = *r.ReviewURL
		}
		if r.PublishedAt != nil {
			id += "@" + r.PublishedAt.Format(time.RFC3339)
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%t|", businessID, strings.ToLower(opts.Provider), opts.Model, opts.FullAnalysis)
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return "analysis:" + hex.EncodeToString(h.Sum(nil))
}

func chunkReviews(rs []domain.Review, size int) [][]domain.Review {
	if size <= 0 {
		size = 200
	}
	if len(rs) == 0 {
		return [][]domain.Review{nil}
	}
	var out [][]domain.Review
	for start := 0; start < len(rs); start += size {
		end := start + size
		if end > len(rs) {
			end = len(rs)
		}
		out = append(out, rs[start:end])
	}
	return out
}
