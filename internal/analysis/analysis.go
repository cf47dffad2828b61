// Package analysis produces the per-category narrative analyses consumed by
// the dashboard: enriched records are grouped by aircraft type, each group is
// rendered into a Finnish analyst prompt, and the text-generation service
// writes the prose.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lentoturva/report-etl/internal/domain"
)

// allGroup is the synthetic group covering the whole corpus.
const allGroup = "Kaikki"

// lineBudget bounds each report's summary inside a prompt so even the
// all-records prompt stays well inside the model's context window.
const lineBudget = 300

// TextGenerator produces prose from one prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Config carries the generator's pacing and retry settings.
type Config struct {
	// Retries bounds attempts per group on quota exhaustion.
	Retries int
	// InitialBackoff is the first quota-retry delay; it doubles per attempt.
	InitialBackoff time.Duration
	// GroupDelay is the pause between groups.
	GroupDelay time.Duration
}

// Generator runs the grouped analysis pass.
type Generator struct {
	gen    TextGenerator
	cfg    Config
	clock  clockwork.Clock
	logger *slog.Logger
}

// New creates a Generator. Pass a nil clock for real time.
func New(gen TextGenerator, cfg Config, clk clockwork.Clock, logger *slog.Logger) *Generator {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Generator{gen: gen, cfg: cfg, clock: clk, logger: logger}
}

// Run produces one analysis per aircraft-type group plus the all-records
// group. Groups whose generation fails are omitted rather than aborting the
// pass; the keys are "<country>_<group>".
func (g *Generator) Run(ctx context.Context, records []domain.EnrichedRecord) (map[string]string, error) {
	groups := groupByType(records)
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	analyses := make(map[string]string, len(names)+1)
	for i, name := range names {
		g.logger.Info("analyzing group", "group", name, "reports", len(groups[name]), "n", i+1, "of", len(names)+1)

		text, err := g.generateWithBackoff(ctx, BuildPrompt(name, groups[name]))
		if err != nil {
			if ctx.Err() != nil {
				return analyses, fmt.Errorf("analysis interrupted: %w", ctx.Err())
			}
			g.logger.Warn("group analysis failed, skipping", "group", name, "error", err)
			continue
		}
		analyses[domain.Country+"_"+name] = text

		if !g.pause(ctx, g.cfg.GroupDelay) {
			return analyses, fmt.Errorf("analysis interrupted: %w", ctx.Err())
		}
	}

	text, err := g.generateWithBackoff(ctx, BuildPrompt(allGroup, records))
	if err != nil {
		g.logger.Warn("all-records analysis failed, skipping", "error", err)
	} else {
		analyses[domain.Country+"_"+allGroup] = text
	}

	return analyses, nil
}

// generateWithBackoff retries quota errors with exponential backoff; any
// other error fails the group immediately.
func (g *Generator) generateWithBackoff(ctx context.Context, prompt string) (string, error) {
	backoff := g.cfg.InitialBackoff

	for attempt := 1; ; attempt++ {
		text, err := g.gen.GenerateText(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, domain.ErrQuotaExhausted) || attempt >= g.cfg.Retries {
			return "", err
		}
		g.logger.Warn("quota exhausted, backing off", "attempt", attempt, "wait", backoff)
		if !g.pause(ctx, backoff) {
			return "", ctx.Err()
		}
		backoff *= 2
	}
}

func (g *Generator) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := g.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

// groupByType buckets records by aircraft category.
func groupByType(records []domain.EnrichedRecord) map[string][]domain.EnrichedRecord {
	groups := make(map[string][]domain.EnrichedRecord)
	for _, r := range records {
		groups[r.AircraftType] = append(groups[r.AircraftType], r)
	}
	return groups
}

// BuildPrompt renders the analyst prompt for one group. Reports are ordered
// oldest first so the model sees the historical progression; records with an
// unknown year sort to the front.
func BuildPrompt(group string, records []domain.EnrichedRecord) string {
	sorted := make([]domain.EnrichedRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sortDate(sorted[i].Date) < sortDate(sorted[j].Date)
	})

	var lines strings.Builder
	for _, r := range sorted {
		lines.WriteString(fmt.Sprintf("- %s | %s: %s\n", r.Date, r.LocationName, truncate(r.Summary, lineBudget)))
	}

	return fmt.Sprintf(`Toimit Onnettomuustutkintakeskuksen (OTKES) johtavana turvallisuusanalyytikkona.
Tehtäväsi on analysoida alla oleva aineisto.

KOHDERYHMÄ: %s
TAPAUSTEN MÄÄRÄ: %d

AINEISTO (aikajärjestyksessä, vanhin ensin):
%s
LAADI ANALYYSI (Markdown-muodossa) SEURAAVALLA RAKENTEELLA:

### Analyysi: %s (%d tapausta)

**1. Historiallinen kehitys ja trendit**
Kuvaile, miten onnettomuuksien luonne on muuttunut vuosikymmenten aikana.

**2. Keskeiset juurisyyt**
Erittele 2-3 merkittävintä syytä, jotka toistuvat aineistossa vuodesta toiseen.

**3. Turvallisuussuositus**
Anna yksi, koko aineiston perusteella tärkein turvallisuusvinkki tälle ryhmälle.

Kirjoita suomeksi, asiantuntevalla tyylillä. Perusta analyysi vain tähän dataan.`,
		group, len(records), lines.String(), group, len(records))
}

func sortDate(date string) string {
	if date == domain.YearUnknown {
		return "0"
	}
	return date
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
