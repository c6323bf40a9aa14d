package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/hockey-madness/repositories"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct прогоняет теги validate и оборачивает результат в ErrValidationFailed.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fieldError(fe))
		}
		return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(fields, "; "))
	}
	return fmt.Errorf("%w: %v", ErrValidationFailed, err)
}

func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисного слоя.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrUserEmailConflict):
		return ErrUserEmailConflict
	case errors.Is(err, repositories.ErrUserTeamInvalid):
		return fmt.Errorf("%w: assigned team does not exist", ErrValidationFailed)
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchDivisionInvalid):
		return ErrDivisionNotFound
	case errors.Is(err, repositories.ErrBoosterNotFound):
		return ErrBoosterNotFound
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrDivisionNotFound):
		return ErrDivisionNotFound
	case errors.Is(err, repositories.ErrDivisionNameConflict):
		return ErrDivisionNameConflict
	case errors.Is(err, repositories.ErrDivisionTeamInvalid):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrDivisionTournamentNotSet):
		return ErrTournamentNotFound
	default:
		return err
	}
}
