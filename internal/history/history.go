// Package history keeps the ordered analysis history of each session. The
// store is owned by the API layer; the analysis core never reads it.
package history

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"menushock/internal/models"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
)

// Record is one stored analysis
type Record struct {
	Seq                uint      `gorm:"primary_key" json:"-"`
	ID                 string    `gorm:"type:varchar(36);unique_index" json:"id"`
	SessionID          string    `gorm:"type:varchar(64);index" json:"session_id"`
	Query              string    `gorm:"type:text" json:"query,omitempty"`
	EventType          string    `json:"event_type"`
	IngredientID       string    `json:"ingredient_id"`
	RiskTier           string    `json:"risk_tier"`
	AffectedDishes     int       `json:"affected_dishes"`
	TotalMonthlyImpact string    `json:"total_monthly_impact"`
	ResultJSON         string    `gorm:"type:text" json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}

func (Record) TableName() string { return "analysis_history" }

// Entry is a record with its decoded result
type Entry struct {
	Record
	Result *models.AnalysisResult `json:"result"`
}

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore migrates the history table
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Record{}).Error; err != nil {
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// NewSessionID returns a fresh random session id
func NewSessionID() string {
	return uuid.NewString()
}

// Append adds a result to the end of the session's history
func (s *Store) Append(ctx context.Context, sessionID, query string, result *models.AnalysisResult) (*Record, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	rec := &Record{
		ID:                 uuid.NewString(),
		SessionID:          sessionID,
		Query:              query,
		EventType:          string(result.Event.Type),
		IngredientID:       result.Event.IngredientID,
		RiskTier:           string(result.Risk.Tier),
		AffectedDishes:     len(result.AffectedDishes),
		TotalMonthlyImpact: result.TotalMonthlyImpact.StringFixed(2),
		ResultJSON:         string(data),
		CreatedAt:          s.now().UTC(),
	}
	if err := s.db.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	return rec, nil
}

// List returns the session's history, oldest first
func (s *Store) List(ctx context.Context, sessionID string) ([]Entry, error) {
	var records []Record
	if err := s.db.Where("session_id = ?", sessionID).Order("seq asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		var result models.AnalysisResult
		if err := json.Unmarshal([]byte(r.ResultJSON), &result); err != nil {
			return nil, fmt.Errorf("decode history record %s: %w", r.ID, err)
		}
		entries = append(entries, Entry{Record: r, Result: &result})
	}
	return entries, nil
}

// Clear deletes the session's history and reports how many records went
func (s *Store) Clear(ctx context.Context, sessionID string) (int64, error) {
	res := s.db.Where("session_id = ?", sessionID).Delete(&Record{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear history: %w", res.Error)
	}
	return res.RowsAffected, nil
}

var csvHeader = []string{"Timestamp", "Query", "Event", "Risk", "Affected Dishes", "Monthly Impact", "Top Substitute", "Summary"}

// ExportCSV writes the session's history as CSV
func (s *Store) ExportCSV(ctx context.Context, sessionID string, w io.Writer) error {
	entries, err := s.List(ctx, sessionID)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		top := ""
		if len(e.Result.Recommendations) > 0 {
			top = e.Result.Recommendations[0].SubstituteID
		}
		event := e.EventType + " " + e.IngredientID
		if ev, err := e.Result.Event.Event(); err == nil {
			event = models.Describe(ev)
		}
		row := []string{
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Query,
			event,
			e.RiskTier,
			fmt.Sprint(e.AffectedDishes),
			e.TotalMonthlyImpact,
			top,
			strings.Join(e.Result.Rationale, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
