// Package domain defines the persisted entities of the check bot: tracked
// channels, their videos, mention comments, and the fact-check requests
// derived from them.
package domain

import "time"

// Bucket determines how often a video is rescanned for new mention comments.
type Bucket string

const (
	// BucketHot is for videos younger than a week, rescanned every few minutes.
	BucketHot Bucket = "hot"
	// BucketMedium is for videos younger than a month, rescanned hourly.
	BucketMedium Bucket = "medium"
	// BucketCold is for older videos, rescanned daily.
	BucketCold Bucket = "cold"
	// BucketFrozen is terminal: the video's channel was removed from the
	// tracked list and scanning has stopped for good.
	BucketFrozen Bucket = "frozen"
)

// Channel is a tracked YouTube channel. Channels are created on first sight
// in the external channel list and frozen (never deleted) when removed from it.
type Channel struct {
	ID            string
	IsActive      bool
	LastCheckedAt *time.Time // watermark for video discovery, nil before first pass
}

// Video is a discovered upload of a tracked channel.
type Video struct {
	ID            string
	ChannelID     string
	Title         string
	PublishedAt   time.Time
	Bucket        Bucket
	LastScannedAt *time.Time // watermark for comment discovery, nil before first scan
}

// Comment is a reply-level comment mentioning the bot. Immutable once stored.
type Comment struct {
	ID           string
	ParentID     string
	VideoID      string
	AuthorHandle string
	Text         string
	PublishedAt  time.Time
}

// RequestState is the lifecycle state of a fact-check request.
type RequestState string

const (
	RequestPending  RequestState = "pending"
	RequestApproved RequestState = "approved"
	RequestAnswered RequestState = "answered"
	RequestRejected RequestState = "rejected"
)

// Request is one fact-check unit parsed from a comment: one mentioned handle,
// one fact text to verify. A comment with several mentions yields several
// requests; a comment is "pending" exactly while no request references it.
type Request struct {
	ID        string
	CommentID string
	Handle    string
	Text      string
	State     RequestState
	Relevance *string // justification, set once on approve or reject
	Answer    *string // published reply text, set once on answer
}
