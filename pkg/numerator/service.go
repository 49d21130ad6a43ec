// Package numerator issues sequential human-readable document numbers
// (S-2026-000001) from the sys_sequences table.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// DefaultPadWidth is the minimum width of the numeric part.
const DefaultPadWidth = 6

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc returns the querier bound to ctx: the open transaction when
// there is one.
type QuerierFunc func(ctx context.Context) Querier

// Config holds numbering configuration.
type Config struct {
	// PadWidth is the minimum number width (default 6)
	PadWidth int
	// ResetPeriod: "year" or "never"
	ResetPeriod string
}

// DefaultConfig returns yearly numbering with six digits.
func DefaultConfig() Config {
	return Config{PadWidth: DefaultPadWidth, ResetPeriod: "year"}
}

// Service provides document numbering functionality.
// Numbers are taken inside the caller's transaction, so a rolled back
// document gives its number back.
type Service struct {
	querier QuerierFunc
	cfg     Config
}

// New creates a numerator.
func New(querier QuerierFunc, cfg Config) *Service {
	if cfg.PadWidth <= 0 {
		cfg.PadWidth = DefaultPadWidth
	}
	return &Service{querier: querier, cfg: cfg}
}

// Next returns the next number for prefix in the period of at.
func (s *Service) Next(ctx context.Context, prefix string, at time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	year := 0
	if s.cfg.ResetPeriod != "never" {
		year = at.Year()
	}

	var num int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (sequence_type, year, current_val)
		VALUES ($1, $2, 1)
		ON CONFLICT (sequence_type, year) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, prefix, year).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", prefix, err)
	}
	return s.Format(prefix, at, num), nil
}

// Format renders a number under this service's configuration.
func (s *Service) Format(prefix string, at time.Time, num int64) string {
	if s.cfg.ResetPeriod == "never" {
		return fmt.Sprintf("%s-%0*d", prefix, s.cfg.PadWidth, num)
	}
	return fmt.Sprintf("%s-%04d-%0*d", prefix, at.Year(), s.cfg.PadWidth, num)
}

// Format renders PREFIX-YEAR-NNNNNN.
func Format(prefix string, year int, num int64) string {
	return fmt.Sprintf("%s-%04d-%0*d", prefix, year, DefaultPadWidth, num)
}

// ParseNumber extracts numeric part from formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	i := strings.LastIndexByte(formatted, '-')
	if i < 0 {
		return -1
	}
	num, err := strconv.ParseInt(formatted[i+1:], 10, 64)
	if err != nil {
		return -1
	}
	return num
}
