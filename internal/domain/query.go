package domain

import "time"

// QueryStatus is the lifecycle state of a legal-aid query. It is owned by
// the query entity on the platform side; the chat core reads it and advances
// it monotonically forward. "closed" is terminal.
type QueryStatus string

const (
	StatusPending    QueryStatus = "pending"
	StatusInProgress QueryStatus = "in progress"
	StatusAnswered   QueryStatus = "answered"
	StatusClosed     QueryStatus = "closed"
)

var statusRank = map[QueryStatus]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusAnswered:   2,
	StatusClosed:     3,
}

// CanTransition reports whether moving from one status to another is a
// forward transition. Same-status writes are allowed (idempotent updates).
func CanTransition(from, to QueryStatus) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}

type QueryUrgency string

const (
	UrgencyLow      QueryUrgency = "Low"
	UrgencyMedium   QueryUrgency = "Medium"
	UrgencyHigh     QueryUrgency = "High"
	UrgencyCritical QueryUrgency = "Critical"
)

type QueryCategory string

const (
	CategoryLegalAid        QueryCategory = "Legal aid"
	CategoryStartup         QueryCategory = "startup"
	CategoryADR             QueryCategory = "ADR"
	CategoryPropertyDispute QueryCategory = "property dispute"
	CategoryMiscellaneous   QueryCategory = "miscellaneous"
)

// FileMetadata describes a document attached to a query. Storage lives
// behind the platform API; the client only ever sees the URL.
type FileMetadata struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Mimetype string `json:"mimetype"`
	Size     int64  `json:"size"`
}

// Submitter is the client who raised the query.
type Submitter struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Query is a legal-aid support request. Exactly one conversation exists per
// query; the query's status and the conversation's message history are two
// views of the same support thread.
type Query struct {
	ID            string        `json:"_id"`
	Subject       string        `json:"subject"`
	Question      string        `json:"question"`
	FullName      string        `json:"fullName"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Age           int           `json:"age"`
	Gender        string        `json:"gender"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	Location      string        `json:"location"`
	IssueCategory QueryCategory `json:"issueCategory"`
	UrgencyLevel  QueryUrgency  `json:"urgencyLevel"`
	Status        QueryStatus   `json:"status"`
	Answer        string        `json:"answer,omitempty"`
	Document      *FileMetadata `json:"document,omitempty"`
	Submitter     Submitter     `json:"userId"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
