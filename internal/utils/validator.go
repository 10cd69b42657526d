package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/prepwise/scoring-service/internal/errors"
	"github.com/prepwise/scoring-service/internal/models"
)

// Validator wraps go-playground/validator with the service's custom rules
// and converts raw field errors into the shared ValidationErrors type.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate checks a request struct and returns ValidationErrors on failure.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// Custom validation functions

func ValidateSubject(fl validator.FieldLevel) bool {
	validSubjects := []models.Subject{
		models.SubjectPhysics,
		models.SubjectChemistry,
		models.SubjectMathematics,
		models.SubjectBiology,
		models.SubjectEnglish,
		models.SubjectGeneral,
	}

	value := fl.Field().String()
	for _, validSubject := range validSubjects {
		if string(validSubject) == value {
			return true
		}
	}
	return false
}

func ValidateDifficultyLevel(fl validator.FieldLevel) bool {
	validLevels := []models.DifficultyLevel{
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
	}

	value := fl.Field().String()
	for _, validLevel := range validLevels {
		if string(validLevel) == value {
			return true
		}
	}
	return false
}

func ValidateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleStudent,
		models.RoleTutor,
		models.RoleAdmin,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

func ValidateCriterionOperator(fl validator.FieldLevel) bool {
	validOperators := []models.CriterionOperator{
		models.OperatorGte,
		models.OperatorLte,
		models.OperatorEq,
		models.OperatorBetween,
	}

	value := fl.Field().String()
	for _, validOperator := range validOperators {
		if string(validOperator) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("subject", ValidateSubject)
	validate.RegisterValidation("difficulty_level", ValidateDifficultyLevel)
	validate.RegisterValidation("user_role", ValidateUserRole)
	validate.RegisterValidation("criterion_operator", ValidateCriterionOperator)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
