package model

import "time"

// Message is one post on a message board.
type Message struct {
	ID           string    `json:"id" bson:"_id"`
	Board        string    `json:"board" bson:"board"`
	AuthorID     string    `json:"authorId" bson:"authorId"`
	AuthorHandle string    `json:"authorHandle" bson:"authorHandle"`
	Body         string    `json:"body" bson:"body"`
	PostedAt     time.Time `json:"postedAt" bson:"postedAt"`
}
