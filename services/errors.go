package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrInvalidRole             = errors.New("invalid role")
	ErrMatchInvalidTransition  = errors.New("invalid match status transition")
	ErrMatchNotRunning         = errors.New("match is not in progress")
	ErrMatchFinished           = errors.New("match is already finished")
	ErrMatchSameTeams          = errors.New("a match needs two different teams")
	ErrInvalidSide             = errors.New("team must be \"a\" or \"b\"")
	ErrInvalidCardType         = errors.New("invalid card type")
	ErrBoosterKindMismatch     = errors.New("booster kind does not match the requested activation")
	ErrTournamentInvalidStatus = errors.New("invalid tournament status provided")
	ErrUnsupportedLocale       = errors.New("unsupported locale")
	ErrUnknownTheme            = errors.New("unknown theme")
	ErrScheduleNeedsTeams      = errors.New("division needs at least two teams to be scheduled")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrTeamNameConflict     = errors.New("team name is already in use")
	ErrDivisionNameConflict = errors.New("division name already exists in this tournament")
	ErrScheduleExists       = errors.New("division already has matches")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrAuthInvalidToken       = errors.New("invalid or expired token")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrBoosterNotFound    = errors.New("booster not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrDivisionNotFound   = errors.New("division not found")
)
