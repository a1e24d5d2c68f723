package models

import (
	"io"
	"time"
)

// PageMeta mirrors the pagination block returned by the list endpoint.
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// NewPageMeta computes the last page for total rows at perPage.
func NewPageMeta(page, perPage int, total int64) PageMeta {
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return PageMeta{CurrentPage: page, LastPage: lastPage, PerPage: perPage, Total: total}
}

// RobotPage is one page of robots plus its meta block.
type RobotPage struct {
	Data []Robot  `json:"data"`
	Meta PageMeta `json:"meta"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Download is the resolved attachment handed to the transport for streaming.
type Download struct {
	Name     string
	MimeType string
	Size     int64
	Content  io.ReadCloser
}

// Robot lifecycle event names.
const (
	EventRobotCreated = "created"
	EventRobotUpdated = "updated"
	EventRobotDeleted = "deleted"
)

// RobotEvent is published after a robot write commits.
type RobotEvent struct {
	Event   string    `json:"event"`
	RobotID uint      `json:"robot_id"`
	UserID  uint      `json:"user_id"`
	Version int       `json:"version"`
	At      time.Time `json:"at"`
}
