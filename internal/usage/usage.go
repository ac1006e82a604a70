// Package usage tracks token usage and cost across completions and enforces
// daily/monthly cloud-spend budgets.
package usage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nexuscore/agentcore/internal/filelock"
)

// Usage holds token counts for a single completion.
type Usage struct {
	InputTokens      int64 `json:"input_tokens"`
	OutputTokens     int64 `json:"output_tokens"`
	CacheReadTokens  int64 `json:"cache_read_tokens,omitempty"`
	CacheWriteTokens int64 `json:"cache_write_tokens,omitempty"`
}

// Total returns the total token count.
func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens + u.CacheReadTokens + u.CacheWriteTokens
}

// Cost is a per-million-token price table for one model.
type Cost struct {
	Input      float64 `json:"input" yaml:"input"`
	Output     float64 `json:"output" yaml:"output"`
	CacheRead  float64 `json:"cache_read" yaml:"cache_read"`
	CacheWrite float64 `json:"cache_write" yaml:"cache_write"`
}

// Estimate computes cost = (prompt_tokens*price_in + completion_tokens*price_out
// + cache_read*price_cache_read + cache_write*price_cache_write) / 1e6.
func (c Cost) Estimate(u Usage) float64 {
	total := float64(u.InputTokens)*c.Input +
		float64(u.OutputTokens)*c.Output +
		float64(u.CacheReadTokens)*c.CacheRead +
		float64(u.CacheWriteTokens)*c.CacheWrite
	return total / 1_000_000
}

// Record is one append-only ledger entry: one completion's usage and cost.
type Record struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Skill     string    `json:"skill,omitempty"`
	Usage     Usage     `json:"usage"`
	CostUSD   float64   `json:"cost_usd"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary is the usage_summary() response shape.
type Summary struct {
	DailyLimitUSD float64 `json:"daily_limit_usd"`
	SpentTodayUSD float64 `json:"spent_today_usd"`
	RemainingUSD  float64 `json:"remaining_usd"`
	CanUseCloud   bool    `json:"can_use_cloud"`
}

const defaultEstimatedTokens = 4096

// Config configures the Tracker.
type Config struct {
	// DailyLimitUSD and MonthlyLimitUSD are the cloud spend caps. Zero
	// means unlimited.
	DailyLimitUSD   float64
	MonthlyLimitUSD float64

	// Dir is the directory usage-YYYY-MM-DD.jsonl ledger files are
	// appended to. Empty disables persistence (in-memory only).
	Dir string

	// DefaultInputPricePerMillion prices estimated_cost_at_input_rate when the
	// caller does not supply a model-specific price.
	DefaultInputPricePerMillion float64
}

// Tracker is a thread-safe, durable ledger of completions plus a
// budget-remaining query. Records are never deleted or mutated: every
// Record call both appends in memory and, if Dir is set, appends a line to
// that day's JSONL file under an exclusive file lock. The spend and
// remaining-budget queries keep no running total: each call sums the
// in-memory records, so its cost grows linearly with the ledger.
type Tracker struct {
	mu      sync.RWMutex
	cfg     Config
	records []Record // append-only; never trimmed, so spent_today/monthly sums stay exact
}

// NewTracker creates a Tracker. If cfg.Dir is non-empty it is created if
// missing.
func NewTracker(cfg Config) (*Tracker, error) {
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("usage: creating ledger dir: %w", err)
		}
	}
	return &Tracker{cfg: cfg}, nil
}

// Record appends a usage record. Thread-safe. The record's own Timestamp
// (defaulting to now if zero) is the basis for every date-based aggregation
// below, never the reader's wall clock.
func (t *Tracker) Record(r Record) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	r.Timestamp = r.Timestamp.UTC()

	t.mu.Lock()
	t.records = append(t.records, r)
	t.mu.Unlock()

	if t.cfg.Dir == "" {
		return nil
	}
	return t.appendLedgerLine(r)
}

func (t *Tracker) appendLedgerLine(r Record) error {
	path := filepath.Join(t.cfg.Dir, fmt.Sprintf("usage-%s.jsonl", r.Timestamp.Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("usage: opening ledger file: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("usage: marshaling record: %w", err)
	}

	return filelock.WithLock(f, func() error {
		w := bufio.NewWriter(f)
		if _, err := w.Write(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		return w.Flush()
	})
}

// SpentToday returns the cloud spend (CostUSD > 0 records) whose timestamp
// falls on the same UTC calendar day as now.
func (t *Tracker) SpentToday(now time.Time) float64 {
	return t.sumCostSince(sameDay(now.UTC()))
}

// RemainingToday returns DailyLimitUSD - SpentToday, floored at 0. Zero
// limit means unlimited (returns +Inf).
func (t *Tracker) RemainingToday(now time.Time) float64 {
	if t.cfg.DailyLimitUSD <= 0 {
		return math.Inf(1)
	}
	remaining := t.cfg.DailyLimitUSD - t.SpentToday(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MonthlyCloudSpend returns cloud spend for now's UTC calendar month.
func (t *Tracker) MonthlyCloudSpend(now time.Time) float64 {
	return t.sumCostSince(sameMonth(now.UTC()))
}

// CanUseCloud reports whether RemainingToday covers the estimated cost of
// estimatedTokens prompt tokens at priceInPerMillion and, when
// MonthlyLimitUSD is set, whether the rest of the monthly cap covers it
// too. estimatedTokens defaults to 4096 when <= 0.
func (t *Tracker) CanUseCloud(estimatedTokens int, priceInPerMillion float64) bool {
	if estimatedTokens <= 0 {
		estimatedTokens = defaultEstimatedTokens
	}
	if priceInPerMillion <= 0 {
		priceInPerMillion = t.cfg.DefaultInputPricePerMillion
	}
	estimatedCost := float64(estimatedTokens) * priceInPerMillion / 1_000_000
	now := time.Now()
	if t.cfg.MonthlyLimitUSD > 0 && t.cfg.MonthlyLimitUSD-t.MonthlyCloudSpend(now) < estimatedCost {
		return false
	}
	return t.RemainingToday(now) >= estimatedCost
}

// UsageSummary returns {daily_limit, spent_today, remaining, can_use_cloud}.
func (t *Tracker) UsageSummary() Summary {
	now := time.Now()
	return Summary{
		DailyLimitUSD: t.cfg.DailyLimitUSD,
		SpentTodayUSD: t.SpentToday(now),
		RemainingUSD:  t.RemainingToday(now),
		CanUseCloud:   t.CanUseCloud(defaultEstimatedTokens, t.cfg.DefaultInputPricePerMillion),
	}
}

// Records returns a copy of the in-memory ledger, most-recent last.
func (t *Tracker) Records() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

func (t *Tracker) sumCostSince(matches func(time.Time) bool) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var total float64
	for _, r := range t.records {
		if matches(r.Timestamp) {
			total += r.CostUSD
		}
	}
	return total
}

func sameDay(ref time.Time) func(time.Time) bool {
	y, m, d := ref.Date()
	return func(ts time.Time) bool {
		ty, tm, td := ts.Date()
		return ty == y && tm == m && td == d
	}
}

func sameMonth(ref time.Time) func(time.Time) bool {
	y, m, _ := ref.Date()
	return func(ts time.Time) bool {
		ty, tm, _ := ts.Date()
		return ty == y && tm == m
	}
}

// FormatTokenCount formats a token count for display (e.g. "12.3k").
func FormatTokenCount(count int64) string {
	switch {
	case count <= 0:
		return "0"
	case count >= 1_000_000:
		return fmt.Sprintf("%.1fm", float64(count)/1_000_000)
	case count >= 10_000:
		return fmt.Sprintf("%dk", count/1_000)
	case count >= 1_000:
		return fmt.Sprintf("%.1fk", float64(count)/1_000)
	default:
		return fmt.Sprintf("%d", count)
	}
}

// FormatUSD formats a dollar amount for display.
func FormatUSD(amount float64) string {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "$0.00"
	}
	if amount >= 0.01 {
		return fmt.Sprintf("$%.2f", amount)
	}
	return fmt.Sprintf("$%.4f", amount)
}
