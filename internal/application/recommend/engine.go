// Package recommend 编排候选检索、向量化与排序
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/kltng/lcsh-validation-api/internal/application/similarity"
	"github.com/kltng/lcsh-validation-api/internal/domain/entity"
	"github.com/kltng/lcsh-validation-api/pkg/logger"
	"github.com/kltng/lcsh-validation-api/pkg/metrics"
)

var tracer = otel.Tracer("recommend")

// Engine 推荐编排器，进程内单例
// upstream 信号量在所有请求之间共享
type Engine struct {
	retriever  Retriever
	cache      CandidateCache
	vectorizer Vectorizer
	opts       Options

	upstream *semaphore.Weighted
	group    singleflight.Group
}

// NewEngine 创建编排器，cache 可为 nil
func NewEngine(retriever Retriever, cache CandidateCache, vectorizer Vectorizer, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		retriever:  retriever,
		cache:      cache,
		vectorizer: vectorizer,
		opts:       opts,
		upstream:   semaphore.NewWeighted(int64(opts.MaxConcurrentUpstream)),
	}
}

// Recommend 逐短语推荐，返回与输入顺序一致的结果
// 单个短语的失败只记录在对应位置；期限到达时已完成的位置照常返回，其余标记为 ErrRequestTimeout
func (e *Engine) Recommend(ctx context.Context, phrases []string) ([]Outcome, error) {
	if err := e.validate(phrases); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "recommend.Recommend",
		trace.WithAttributes(attribute.Int("recommend.terms", len(phrases))))
	defer span.End()

	if e.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.RequestTimeout)
		defer cancel()
	}

	type result struct {
		idx int
		set entity.RecommendationSet
		err error
	}

	out := make([]Outcome, len(phrases))
	for i, p := range phrases {
		out[i].Term = p
	}

	// 缓冲区足够容纳全部结果，放弃等待后 goroutine 也不会阻塞
	results := make(chan result, len(phrases))
	for i, p := range phrases {
		go func(idx int, phrase string) {
			set, err := e.recommendOne(ctx, phrase)
			results <- result{idx: idx, set: set, err: err}
		}(i, p)
	}

	done := make([]bool, len(phrases))
	for pending := len(phrases); pending > 0; pending-- {
		select {
		case r := <-results:
			out[r.idx].Set = r.set
			out[r.idx].Err = r.err
			done[r.idx] = true
		case <-ctx.Done():
			cause := contextError(ctx)
			for i := range out {
				if !done[i] {
					out[i].Err = cause
				}
			}
			pending = 0
		}
	}

	failed := 0
	for _, o := range out {
		observeOutcome(o)
		if !o.OK() {
			failed++
			logger.Warn(ctx, "phrase recommendation failed", "term", o.Term, "error", o.Err.Error())
		}
	}
	span.SetAttributes(attribute.Int("recommend.failed", failed))
	return out, nil
}

func (e *Engine) validate(phrases []string) error {
	if len(phrases) == 0 {
		return fmt.Errorf("%w: terms must not be empty", ErrInvalidInput)
	}
	if len(phrases) > e.opts.MaxTerms {
		return fmt.Errorf("%w: at most %d terms per request", ErrInvalidInput, e.opts.MaxTerms)
	}
	for i, p := range phrases {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: term %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}

// recommendOne 检索 -> 向量化 -> 排序
func (e *Engine) recommendOne(ctx context.Context, phrase string) (entity.RecommendationSet, error) {
	ctx, span := tracer.Start(ctx, "recommend.Phrase",
		trace.WithAttributes(attribute.String("recommend.term", phrase)))
	defer span.End()

	candidates, err := e.candidates(ctx, phrase)
	if err != nil {
		if ctx.Err() != nil {
			err = contextError(ctx)
		}
		span.RecordError(err)
		return nil, err
	}
	if len(candidates) == 0 {
		return entity.RecommendationSet{}, nil
	}

	corpus := make([]string, 0, len(candidates)+1)
	corpus = append(corpus, phrase)
	for _, c := range candidates {
		corpus = append(corpus, c.Label)
	}
	vectors := e.vectorizer.Vectorize(corpus)

	set := similarity.Rank(phrase, vectors[0], vectors[1:], candidates, e.opts.TopK)
	span.SetAttributes(
		attribute.Int("recommend.candidates", len(candidates)),
		attribute.Int("recommend.results", set.Len()),
	)
	if top, ok := set.Top(); ok {
		span.SetAttributes(
			attribute.String("recommend.top_id", top.ID),
			attribute.Float64("recommend.top_score", top.Score),
		)
	}
	return set, nil
}

// candidates 读缓存；未命中时合并相同短语的并发检索并回填
// 未配置缓存时每个短语各自检索
func (e *Engine) candidates(ctx context.Context, phrase string) ([]entity.Candidate, error) {
	if e.cache == nil {
		return e.fetch(ctx, phrase)
	}

	key := CacheKey(phrase)
	backend := e.cache.Name()
	cached, ok, err := e.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookupTotal.WithLabelValues(backend, "error").Inc()
		logger.Warn(ctx, "candidate cache read failed", "error", err.Error())
	case ok:
		metrics.CacheLookupTotal.WithLabelValues(backend, "hit").Inc()
		return cached, nil
	default:
		metrics.CacheLookupTotal.WithLabelValues(backend, "miss").Inc()
	}

	// 共享的检索不随单个请求取消，结果仍会回填缓存
	shared := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (any, error) {
		found, err := e.fetch(shared, phrase)
		if err != nil {
			return nil, err
		}
		if err := e.cache.Set(shared, key, found, e.opts.CacheTTL); err != nil {
			logger.Warn(shared, "candidate cache write failed", "error", err.Error())
		}
		return found, nil
	})

	select {
	case <-ctx.Done():
		return nil, contextError(ctx)
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]entity.Candidate), nil
	}
}

// fetch 在全局出站并发上限内调用检索器，按策略重试
func (e *Engine) fetch(ctx context.Context, phrase string) ([]entity.Candidate, error) {
	var found []entity.Candidate
	err := e.opts.Retry.do(ctx, func(ctx context.Context) error {
		if err := e.upstream.Acquire(ctx, 1); err != nil {
			return contextError(ctx)
		}
		metrics.UpstreamInflight.Inc()
		defer func() {
			metrics.UpstreamInflight.Dec()
			e.upstream.Release(1)
		}()

		var err error
		found, err = e.retriever.Retrieve(ctx, phrase)
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// contextError 将 context 结束原因映射为领域错误
func contextError(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrRequestTimeout
	}
	if err == nil {
		return ErrRequestTimeout
	}
	return err
}

func observeOutcome(o Outcome) {
	switch {
	case errors.Is(o.Err, ErrRequestTimeout):
		metrics.PhraseOutcomeTotal.WithLabelValues("timeout").Inc()
	case o.Err != nil:
		metrics.PhraseOutcomeTotal.WithLabelValues("failed").Inc()
	case o.Set.Len() == 0:
		metrics.PhraseOutcomeTotal.WithLabelValues("empty").Inc()
	default:
		metrics.PhraseOutcomeTotal.WithLabelValues("ok").Inc()
	}
}
