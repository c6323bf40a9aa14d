package models

import "time"

type Player struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Players   []Player  `json:"players"`
	LogoURL   *string   `json:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
