package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

var (
	// Validate - singleton экземпляр валидатора для переиспользования
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Регистрируем кастомные валидаторы
	_ = Validate.RegisterValidation("uuid_gofrs", validateUUID)
}

// validateUUID проверяет, что строка является валидным UUID
func validateUUID(fl validator.FieldLevel) bool {
	_, err := uuid.FromString(fl.Field().String())
	return err == nil
}
