package entity

import "github.com/google/uuid"

// SlideExtractionMessage is the inbound message from the slides.extraction queue.
type SlideExtractionMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	UserID    string    `json:"user_id"`
	VideoKey  string    `json:"video_key"`
	FileSize  int64     `json:"file_size"`
	UserEmail string    `json:"user_email"`
}

// SlideStatusMessage is the outbound message published to the slides.status queue.
type SlideStatusMessage struct {
	JobID          uuid.UUID `json:"job_id"`
	UserID         string    `json:"user_id"`
	Status         JobStatus `json:"status"`
	VideoKey       string    `json:"video_key"`
	ResultKey      string    `json:"result_key,omitempty"`
	SlideCount     int       `json:"slide_count,omitempty"`
	DuplicateCount int       `json:"duplicate_count,omitempty"`
	Duration       float64   `json:"duration_seconds,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Attempt        int       `json:"attempt"`
	MaxAttempts    int       `json:"max_attempts"`
}
