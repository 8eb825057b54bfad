package model

import "time"

// ReviewState is the review lifecycle state of a video
type ReviewState string

const (
	StatePending  ReviewState = "pending"
	StateApproved ReviewState = "approved"
	StateRejected ReviewState = "rejected"
	StateFailed   ReviewState = "failed"
)

// Valid reports whether s is a known review state
func (s ReviewState) Valid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected, StateFailed:
		return true
	}
	return false
}

// Video represents an archived video and its review status
type Video struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Channel     string      `json:"channel"`
	PublishedAt time.Time   `json:"published_at"`
	Duration    float64     `json:"duration"`
	State       ReviewState `json:"state"`
	ErrorReason *string     `json:"error_reason,omitempty"`
	FetchedAt   time.Time   `json:"fetched_at"`
}

// Segment is one transcript line of a video, identified by (VideoID, Seq)
type Segment struct {
	VideoID string  `json:"video_id"`
	Seq     int     `json:"seq"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// RawLine is a transcript line as delivered by the supplier, before validation
type RawLine struct {
	Start float64
	End   float64
	Text  string
}

// RawTranscript is a supplier fetch result: video metadata plus its lines
type RawTranscript struct {
	Title       string
	Channel     string
	PublishedAt time.Time
	Duration    float64
	Lines       []RawLine
}

// Posting is one inverted-index entry: a token's occurrence in a segment
type Posting struct {
	Token    string
	VideoID  string
	Seq      int
	TermFreq int
}

// Match is one search hit: a segment of an approved video with its score
type Match struct {
	Video   *Video   `json:"video"`
	Segment *Segment `json:"segment"`
	Score   float64  `json:"score"`
	Snippet string   `json:"snippet"`
}

// SearchFilters narrows search results by video metadata. Nil or zero
// fields are not applied.
type SearchFilters struct {
	Channel         string
	PublishedAfter  *time.Time
	PublishedBefore *time.Time
	MinDuration     float64
	MaxDuration     float64
}
