package models

type DashboardStats struct {
	UsersTotal       int `json:"users_total"`
	TeamsTotal       int `json:"teams_total"`
	TournamentsTotal int `json:"tournaments_total"`
	MatchesPending   int `json:"matches_pending"`
	MatchesLive      int `json:"matches_live"`
	MatchesFinished  int `json:"matches_finished"`
}
