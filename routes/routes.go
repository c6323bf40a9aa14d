package routes

import (
	"log/slog"

	_ "github.com/Dosada05/hockey-madness/docs"
	"github.com/Dosada05/hockey-madness/guard"
	"github.com/Dosada05/hockey-madness/handlers"
	"github.com/Dosada05/hockey-madness/middleware"
	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/session"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Deps collects everything the router mounts.
type Deps struct {
	Logger         *slog.Logger
	Registry       *session.Registry
	Guard          *guard.Guard
	Authenticator  middleware.Authenticator
	AllowedOrigins []string
	SecureCookies  bool

	Auth        *handlers.AuthHandler
	Navigation  *handlers.NavigationHandler
	Pages       *handlers.PageHandler
	Matches     *handlers.MatchHandler
	Teams       *handlers.TeamHandler
	Boosters    *handlers.BoosterHandler
	Tournaments *handlers.TournamentHandler
	Admin       *handlers.AdminUserHandler
	Dashboard   *handlers.DashboardHandler
	Preferences *handlers.PreferencesHandler
	WebSocket   *handlers.WebSocketHandler
	Health      *handlers.HealthHandler
}

func SetupRoutes(r chi.Router, d Deps) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chiMiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Accept-Language"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", d.Health.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Вебсокеты табло доступны без сессии
	r.Get("/ws/matches/{matchID}", d.WebSocket.ServeMatch)
	r.Get("/ws/scoreboard", d.WebSocket.ServeScoreboard)

	requireAuth := middleware.RequireAuth(d.Authenticator, d.Logger)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.ClientSession(d.Registry, d.SecureCookies))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signin", d.Auth.SignIn)
			r.Post("/signup", d.Auth.SignUp)
			r.Post("/signout", d.Auth.SignOut)
			r.Get("/session", d.Auth.Session)
			r.With(requireAuth).Post("/refresh", d.Auth.Refresh)
		})
		r.With(requireAuth).Get("/me", d.Auth.Me)

		r.Get("/navigate", d.Navigation.Navigate)
		r.Get("/routes", d.Navigation.Routes)

		r.Get("/preferences", d.Preferences.GetPreferences)
		r.Put("/preferences", d.Preferences.UpdatePreferences)
		r.Get("/themes", d.Preferences.ListThemes)

		// Публичное чтение для табло
		r.Route("/matches", func(r chi.Router) {
			r.Get("/", d.Matches.ListMatches)
			r.Get("/live", d.Matches.LiveMatches)
			r.Get("/{matchID}", d.Matches.GetMatch)
		})
		r.Get("/teams", d.Teams.ListTeams)
		r.Get("/teams/{teamID}", d.Teams.GetTeamByID)
		r.Get("/boosters", d.Boosters.ListBoosters)
		r.Get("/boosters/{boosterID}", d.Boosters.GetBooster)
		r.Get("/tournaments", d.Tournaments.ListHandler)
		r.Get("/tournaments/{tournamentID}", d.Tournaments.GetByIDHandler)
		r.Route("/divisions/{divisionID}", func(r chi.Router) {
			r.Get("/", d.Tournaments.GetDivisionHandler)
			r.Get("/matches", d.Tournaments.DivisionMatchesHandler)
			r.Get("/standings", d.Tournaments.StandingsHandler)
		})

		// Управление только для администраторов
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(adminOnly)

			r.Get("/dashboard", d.Dashboard.Stats)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", d.Admin.ListUsers)
				r.Post("/", d.Admin.CreateUser)
				r.Put("/{id}/access", d.Admin.UpdateAccess)
				r.Delete("/{id}", d.Admin.DeleteUser)
			})

			r.Route("/matches", func(r chi.Router) {
				r.Post("/", d.Matches.CreateMatch)
				r.Route("/{matchID}", func(r chi.Router) {
					r.Patch("/", d.Matches.UpdateMatch)
					r.Delete("/", d.Matches.DeleteMatch)
					for _, action := range []string{"start", "pause", "resume", "finish"} {
						r.Post("/"+action, d.Matches.ChangeStatus(action))
					}
					r.Post("/goals", d.Matches.Goal)
					r.Post("/penalty-corners", d.Matches.PenaltyCorner)
					r.Post("/cards", d.Matches.IssueCard)
					r.Post("/boosters", d.Matches.ActivateBooster)
					r.Post("/maddie", d.Matches.ActivateMaddie)
					r.Put("/time", d.Matches.SetTimeLeft)
				})
			})

			r.Route("/teams", func(r chi.Router) {
				r.Post("/", d.Teams.CreateTeam)
				r.Put("/{teamID}", d.Teams.UpdateTeam)
				r.Delete("/{teamID}", d.Teams.DeleteTeam)
			})

			r.Route("/boosters", func(r chi.Router) {
				r.Post("/", d.Boosters.CreateBooster)
				r.Put("/{boosterID}", d.Boosters.UpdateBooster)
				r.Delete("/{boosterID}", d.Boosters.DeleteBooster)
			})

			r.Route("/tournaments", func(r chi.Router) {
				r.Post("/", d.Tournaments.CreateHandler)
				r.Put("/{tournamentID}/status", d.Tournaments.UpdateStatusHandler)
				r.Delete("/{tournamentID}", d.Tournaments.DeleteHandler)
				r.Post("/{tournamentID}/divisions", d.Tournaments.CreateDivisionHandler)
			})

			r.Route("/divisions/{divisionID}", func(r chi.Router) {
				r.Put("/teams", d.Tournaments.AssignTeamsHandler)
				r.Post("/schedule", d.Tournaments.ScheduleHandler)
				r.Delete("/", d.Tournaments.DeleteDivisionHandler)
			})
		})
	})

	// Страницы SPA: каждая навигация проходит через guard
	r.Group(func(r chi.Router) {
		r.Use(middleware.ClientSession(d.Registry, d.SecureCookies))
		r.Use(middleware.Navigation(d.Guard, d.Logger))
		r.Handle("/*", d.Pages)
	})
}
