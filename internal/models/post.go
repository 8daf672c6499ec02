package models

import "time"

// Account identifies the blog account a post is published under.
// Password is optional; the credentialed engine requires it, the
// interactive engine ignores it.
type Account struct {
	ID       string `json:"id" validate:"required"`
	Password string `json:"password,omitempty"`
}

// PostRequest is the payload accepted by POST /api/jobs.
type PostRequest struct {
	Account  Account  `json:"account" validate:"required"`
	Title    string   `json:"title" validate:"required,max=200"`
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty" validate:"max=30"`
}

// PostResult is the outcome of a successful publish.
type PostResult struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message"`
	Title         string    `json:"title"`
	Category      string    `json:"category,omitempty"`
	ContentLength int       `json:"content_length"`
	PostURL       string    `json:"post_url,omitempty"`
	PostedAt      time.Time `json:"posted_at"`
	Engine        string    `json:"automation_engine"`
}
