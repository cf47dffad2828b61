// Package classify assigns an aircraft category to a report by walking an
// ordered keyword rule table, with a cached external fallback classifier for
// records no rule matches.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lentoturva/report-etl/internal/cache"
	"github.com/lentoturva/report-etl/internal/domain"
	"github.com/lentoturva/report-etl/internal/observability"
)

const defaultCategory = domain.CategoryOther

// Config carries the tuning knobs of the classifier. The values are
// heuristics inherited from earlier revisions of the ruleset; change them via
// configuration, not code.
type Config struct {
	// BodyWindow bounds how many characters of the body are scanned together
	// with the title.
	BodyWindow int
	// ExclusionRadius is the character distance within which an exclusion
	// term suppresses a keyword match.
	ExclusionRadius int
	// Cooldown is the mandatory delay after every fallback call.
	Cooldown time.Duration
	// RetryBudget bounds fallback attempts on failure or quota exhaustion.
	RetryBudget int
	// InitialBackoff is the first retry delay; it doubles per attempt.
	InitialBackoff time.Duration
}

type compiledKeyword struct {
	re *regexp.Regexp
	// windows match an exclusion term within ExclusionRadius characters on
	// either side of this keyword.
	windows []*regexp.Regexp
}

type compiledRule struct {
	category string
	keywords []compiledKeyword
}

// Classifier walks the rule table in order and consults the fallback
// classifier (when configured) for unmatched records, caching fallback
// results by record id.
type Classifier struct {
	rules      []compiledRule
	vocabulary []string
	fallback   domain.FallbackClassifier
	cache      *cache.ClassificationCache
	cfg        Config
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New compiles the rule table and wires the optional fallback. Pass a nil
// fallback to disable external classification; unmatched records then get the
// default category. Pass a nil clock for real time.
func New(rules []Rule, cfg Config, fallback domain.FallbackClassifier, cc *cache.ClassificationCache, clk clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (*Classifier, error) {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{category: r.Category}
		for _, kw := range r.Keywords {
			kwRe, err := regexp.Compile(kw)
			if err != nil {
				return nil, fmt.Errorf("rule %q keyword %q: %w", r.Category, kw, err)
			}
			ck := compiledKeyword{re: kwRe}
			for _, exc := range r.Exclusions {
				window, err := regexp.Compile(fmt.Sprintf(`%s.{0,%d}%s|%s.{0,%d}%s`,
					exc, cfg.ExclusionRadius, kw, kw, cfg.ExclusionRadius, exc))
				if err != nil {
					return nil, fmt.Errorf("rule %q exclusion %q: %w", r.Category, exc, err)
				}
				ck.windows = append(ck.windows, window)
			}
			cr.keywords = append(cr.keywords, ck)
		}
		compiled = append(compiled, cr)
	}

	return &Classifier{
		rules:      compiled,
		vocabulary: Vocabulary(rules),
		fallback:   fallback,
		cache:      cc,
		cfg:        cfg,
		clock:      clk,
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// Classify returns the category for a record. title and body must already be
// normalized. Never returns an error: every failure path degrades to the
// default category.
func (c *Classifier) Classify(ctx context.Context, id, title, body string) string {
	window := strings.ToLower(title + " " + prefix(body, c.cfg.BodyWindow))

	for _, rule := range c.rules {
		for _, kw := range rule.keywords {
			if !kw.re.MatchString(window) {
				continue
			}
			if suppressed(kw.windows, window) {
				continue
			}
			c.metrics.Classifications.WithLabelValues("rule").Inc()
			return rule.category
		}
	}

	if c.fallback == nil {
		c.metrics.Classifications.WithLabelValues("default").Inc()
		return defaultCategory
	}

	if label, ok := c.cache.Get(id); ok {
		c.metrics.Classifications.WithLabelValues("cache").Inc()
		return label
	}

	return c.classifyWithFallback(ctx, id, window)
}

// suppressed reports whether every viable reading of the keyword sits next to
// an exclusion term.
func suppressed(windows []*regexp.Regexp, text string) bool {
	for _, w := range windows {
		if w.MatchString(text) {
			return true
		}
	}
	return false
}

// classifyWithFallback calls the external classifier with exponential backoff
// on failure. A successful response is validated against the vocabulary,
// cached, and followed by the mandatory cooldown. When every attempt fails
// the default category is returned uncached so a later run can retry.
func (c *Classifier) classifyWithFallback(ctx context.Context, id, excerpt string) string {
	backoff := c.cfg.InitialBackoff

	for attempt := 1; attempt <= c.cfg.RetryBudget; attempt++ {
		start := c.clock.Now()
		label, err := c.fallback.ClassifyText(ctx, excerpt, c.vocabulary)
		c.metrics.FallbackDuration.Observe(c.clock.Since(start).Seconds())

		if err == nil {
			label = c.sanitize(label)
			c.cache.Put(id, label)
			c.metrics.Classifications.WithLabelValues("fallback").Inc()
			c.sleep(ctx, c.cfg.Cooldown)
			return label
		}

		c.logger.Warn("fallback classification failed",
			"record_id", id,
			"attempt", attempt,
			"quota", errors.Is(err, domain.ErrQuotaExhausted),
			"error", err,
		)
		c.metrics.FallbackErrors.Inc()

		if attempt == c.cfg.RetryBudget || ctx.Err() != nil {
			break
		}
		if !c.sleep(ctx, backoff) {
			break
		}
		backoff *= 2
	}

	c.metrics.Classifications.WithLabelValues("default").Inc()
	return defaultCategory
}

// sanitize constrains a fallback response to the closed vocabulary.
func (c *Classifier) sanitize(label string) string {
	label = strings.TrimSpace(label)
	for _, v := range c.vocabulary {
		if strings.EqualFold(label, v) {
			return v
		}
	}
	return defaultCategory
}

// sleep waits for d or until the context is cancelled. Returns false on
// cancellation.
func (c *Classifier) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := c.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

// prefix bounds a string to its first n runes.
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
