package models

import "time"

// users table
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Settings     Settings  `json:"settings"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// reading_items table
type ReadingItem struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Author      string    `json:"author" db:"author"`
	Topic       string    `json:"topic" db:"topic"`
	School      string    `json:"school" db:"school"`
	TotalPages  int       `json:"totalPages" db:"total_pages"`
	CurrentPage int       `json:"currentPage" db:"current_page"`
	Revision    int64     `json:"revision" db:"revision"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// reading_logs table. Date is a local calendar day formatted as 2006-01-02.
type ReadingLog struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"user" db:"user_id"`
	ReadingItemID    string    `json:"readingItem" db:"reading_item_id"`
	Date             string    `json:"date" db:"date"`
	PagesRead        int       `json:"pagesRead" db:"pages_read"`
	CurrentPageAfter int       `json:"currentPageAfter" db:"current_page_after"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// notes table
type Note struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user" db:"user_id"`
	BookTitle string    `json:"bookTitle" db:"book_title"`
	Author    string    `json:"author" db:"author"`
	Note      string    `json:"note" db:"note"`
	Tags      []string  `json:"tags"`
	Date      time.Time `json:"date" db:"date"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ProgressEvent is pushed to TCP monitors and websocket clients after a
// page update has been committed. JustCompleted marks the update that moved
// the item to completed.
type ProgressEvent struct {
	UserID        string `json:"user_id"`
	ItemID        string `json:"item_id"`
	Title         string `json:"title"`
	PagesRead     int    `json:"pages_read"`
	CurrentPage   int    `json:"current_page"`
	TotalPages    int    `json:"total_pages"`
	Status        string `json:"status"`
	JustCompleted bool   `json:"just_completed,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// BookCandidate is one normalized recommendation.
type BookCandidate struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
	Description string  `json:"description"`
	TotalPages  int     `json:"totalPages"`
}

type PlanBook struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	Difficulty string `json:"difficulty"`
	TotalPages int    `json:"totalPages"`
}

type PlanSubtopic struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Books       []PlanBook `json:"books"`
}

type ReadingPlan struct {
	Topic         string         `json:"topic"`
	EstimatedTime string         `json:"estimatedTime"`
	Difficulty    string         `json:"difficulty"`
	Subtopics     []PlanSubtopic `json:"subtopics"`
}
