package domain

import "time"

type Identity struct {
	Username  string
	Token     string
	ExpiresAt time.Time // zero when the token carries no expiry
}

type NoticeLevel string

const (
	NoticeError   NoticeLevel = "error"
	NoticeSuccess NoticeLevel = "success"
)

type Notice struct {
	Level     NoticeLevel
	Text      string
	ExpiresAt time.Time
}
