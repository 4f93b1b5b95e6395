package session

import "time"

// Metadata summarises one session. It is written once, after the last chunk.
type Metadata struct {
	SessionID             string        `json:"session_id"`
	GeneratedAt           time.Time     `json:"generated_at"`
	Style                 string        `json:"style"`
	Topic                 string        `json:"topic,omitempty"`
	TargetDurationMinutes float64       `json:"target_duration_minutes"`
	WPMUsed               float64       `json:"wpm_used"`
	ChunkCount            int           `json:"chunk_count"`
	Provider              string        `json:"provider,omitempty"`
	Model                 string        `json:"model,omitempty"`
	Chunks                []ChunkRecord `json:"chunks"`
	Totals                Totals        `json:"totals"`
}

// ChunkRecord describes one generated chunk.
type ChunkRecord struct {
	File                     string    `json:"file"`
	TargetMinutes            float64   `json:"target_minutes"`
	TargetWordCount          int       `json:"target_word_count"`
	ActualWordCount          int       `json:"actual_word_count"`
	EstimatedDurationMinutes float64   `json:"estimated_duration_minutes"`
	StartedAt                time.Time `json:"started_at"`
	FinishedAt               time.Time `json:"finished_at"`
}

// Totals aggregates the chunk records.
type Totals struct {
	TotalWords                    int     `json:"total_words"`
	EstimatedTotalDurationMinutes float64 `json:"estimated_total_duration_minutes"`
}

// Finalize fills ChunkCount and Totals from Chunks using WPMUsed.
func (m *Metadata) Finalize() {
	m.ChunkCount = len(m.Chunks)
	total := 0
	for _, c := range m.Chunks {
		total += c.ActualWordCount
	}
	m.Totals = Totals{
		TotalWords:                    total,
		EstimatedTotalDurationMinutes: EstimateMinutes(total, m.WPMUsed),
	}
}
