package services

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/retro-games/games-api/models"
)

// ValidationKind names the reason a request input was rejected.
type ValidationKind string

const (
	KindNotANumber           ValidationKind = "not_a_number"
	KindNonPositive          ValidationKind = "non_positive"
	KindMissingRequiredField ValidationKind = "missing_required_field"
	KindRequiredFieldBlanked ValidationKind = "required_field_blanked"
	KindRatingOutOfRange     ValidationKind = "rating_out_of_range"
	KindEmptyBody            ValidationKind = "empty_body"
	KindInvalidField         ValidationKind = "invalid_field"
)

// ValidationError is returned for client input that breaks the request contract.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets callers match any validation failure with errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func newValidationError(kind ValidationKind, field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationKind reports whether err carries a ValidationError of the given kind.
func IsValidationKind(err error, kind ValidationKind) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr) && vErr.Kind == kind
}

// ParseID parses a path identifier into a positive integer.
func ParseID(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	id, err := strconv.Atoi(trimmed)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			if strings.HasPrefix(trimmed, "-") {
				return 0, newValidationError(KindNonPositive, "id", "id must be a positive number")
			}
			return 0, newValidationError(KindInvalidField, "id", "id %s is too large", trimmed)
		}
		return 0, newValidationError(KindNotANumber, "id", "id must be a number, got %q", raw)
	}
	if id <= 0 {
		return 0, newValidationError(KindNonPositive, "id", "id must be a positive number")
	}
	return id, nil
}

// CreateGameInput is the POST /games payload.
type CreateGameInput struct {
	Name        *string  `json:"name"`
	ReleaseDate *string  `json:"release_date"`
	PlayersNum  *int     `json:"players_num"`
	CoverURL    *string  `json:"cover_url"`
	Rating      *float64 `json:"rating"`
	PublisherID *int     `json:"id_publisher"`
}

// gameValues holds the value rules shared by create and update payloads.
type gameValues struct {
	Name        *string  `json:"name" validate:"omitnil,notblank"`
	ReleaseDate *string  `json:"release_date" validate:"omitnil,datetime=2006-01-02"`
	PlayersNum  *int     `json:"players_num" validate:"omitnil,gte=0"`
	CoverURL    *string  `json:"cover_url"`
	Rating      *float64 `json:"rating" validate:"omitnil,gte=0,lte=10"`
	PublisherID *int     `json:"id_publisher" validate:"omitnil,gt=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateCreate checks a creation payload and returns the game to insert.
func ValidateCreate(input CreateGameInput) (*models.Game, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, newValidationError(KindMissingRequiredField, "name", "name is required")
	}

	values := gameValues{
		Name:        input.Name,
		ReleaseDate: input.ReleaseDate,
		PlayersNum:  input.PlayersNum,
		CoverURL:    input.CoverURL,
		Rating:      input.Rating,
		PublisherID: input.PublisherID,
	}
	if err := checkValues(values, KindMissingRequiredField); err != nil {
		return nil, err
	}

	return &models.Game{
		Name:        *input.Name,
		ReleaseDate: input.ReleaseDate,
		PlayersNum:  input.PlayersNum,
		CoverURL:    input.CoverURL,
		Rating:      input.Rating,
		PublisherID: input.PublisherID,
	}, nil
}

// ValidateUpdate checks a partial update. An update with no fields fails with
// KindEmptyBody, which callers treat as a no-op rather than an error.
func ValidateUpdate(update models.GameUpdate) (models.GameUpdate, error) {
	if update.IsEmpty() {
		return update, newValidationError(KindEmptyBody, "", "update body has no fields")
	}

	if update.Name.Set {
		if update.Name.Null || strings.TrimSpace(update.Name.Value) == "" {
			return update, newValidationError(KindRequiredFieldBlanked, "name", "name cannot be blank")
		}
	}

	values := gameValues{
		Name:        update.Name.Ptr(),
		ReleaseDate: update.ReleaseDate.Ptr(),
		PlayersNum:  update.PlayersNum.Ptr(),
		CoverURL:    update.CoverURL.Ptr(),
		Rating:      update.Rating.Ptr(),
		PublisherID: update.PublisherID.Ptr(),
	}
	if err := checkValues(values, KindRequiredFieldBlanked); err != nil {
		return update, err
	}
	return update, nil
}

func checkValues(values gameValues, nameKind ValidationKind) error {
	err := validate.Struct(values)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate game payload: %w", err)
	}

	fe := fieldErrs[0]
	switch fe.Field() {
	case "name":
		return newValidationError(nameKind, "name", "name cannot be blank")
	case "rating":
		return newValidationError(KindRatingOutOfRange, "rating", "rating must be a number between 0 and 10")
	case "release_date":
		return newValidationError(KindInvalidField, "release_date", "release_date must be a date in YYYY-MM-DD format")
	case "players_num":
		return newValidationError(KindInvalidField, "players_num", "players_num must not be negative")
	case "id_publisher":
		return newValidationError(KindInvalidField, "id_publisher", "id_publisher must be a positive number")
	default:
		return newValidationError(KindInvalidField, fe.Field(), "%s failed %q validation", fe.Field(), fe.Tag())
	}
}
