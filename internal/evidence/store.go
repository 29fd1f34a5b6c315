package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"cybershield/internal/logger"
)

// Entry is one append-only audit record mirroring an incident
type Entry struct {
	Timestamp       time.Time `json:"timestamp"`
	UserID          int64     `json:"user_id"`
	MessageID       *int64    `json:"message_id"`
	Severity        string    `json:"severity"`
	DetectedContent string    `json:"detected_content"`
	AIAnalysis      string    `json:"ai_analysis"`
	Context         string    `json:"context"`
}

// ReportSummary aggregates the entries matched by a report
type ReportSummary struct {
	TotalIncidents int            `json:"total_incidents"`
	BySeverity     map[string]int `json:"by_severity"`
	ByUser         map[int64]int  `json:"by_user"`
}

// Report is the result of scanning the evidence log with filters applied
type Report struct {
	ReportID  string        `json:"report_id"`
	Summary   ReportSummary `json:"summary"`
	Incidents []*Entry      `json:"incidents"`
}

// Store appends incident evidence to JSON files, one file per incident.
// Files are never updated or deleted.
type Store struct {
	dir string
	seq uint64
}

// NewStore creates the evidence directory if needed and returns a Store
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create evidence directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// LogIncident appends one evidence entry and returns the file path.
// The filename carries a per-process sequence number on top of the second
// timestamp so two entries for the same user in the same second never
// collide or overwrite each other.
func (s *Store) LogIncident(entry *Entry) (string, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	seq := atomic.AddUint64(&s.seq, 1)
	filename := fmt.Sprintf("incident_%d_%s_%06d.json",
		entry.UserID, entry.Timestamp.Format("20060102_150405"), seq)
	path := filepath.Join(s.dir, filename)

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", err
	}

	// O_EXCL guards against silently replacing a prior entry
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create evidence file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("failed to write evidence file: %w", err)
	}

	return path, nil
}

// GenerateReport scans all evidence entries, applies the optional user and
// date range filters (both bounds inclusive), and returns entries sorted by
// timestamp descending with summary counts.
func (s *Store) GenerateReport(userID *int64, start, end *time.Time) (*Report, error) {
	pattern := filepath.Join(s.dir, "incident_*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	var entries []*Entry
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warningf("Error reading evidence file %s: %v", file, err)
			continue
		}

		entry := &Entry{}
		if err := json.Unmarshal(data, entry); err != nil {
			logger.Warningf("Error decoding evidence file %s: %v", file, err)
			continue
		}

		if userID != nil && entry.UserID != *userID {
			continue
		}
		if start != nil && entry.Timestamp.Before(*start) {
			continue
		}
		if end != nil && entry.Timestamp.After(*end) {
			continue
		}

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	report := &Report{
		ReportID: uuid.NewString(),
		Summary: ReportSummary{
			TotalIncidents: len(entries),
			BySeverity:     make(map[string]int),
			ByUser:         make(map[int64]int),
		},
		Incidents: entries,
	}
	for _, entry := range entries {
		report.Summary.BySeverity[entry.Severity]++
		report.Summary.ByUser[entry.UserID]++
	}

	return report, nil
}
