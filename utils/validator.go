package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// В сообщениях используем имена полей из json-тегов, а не имена полей Go
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// ValidateStruct проверяет структуру запроса по validate-тегам.
// Все нарушения собираются в одно сообщение, чтобы клиент получил
// полный список проблем за один запрос.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fieldMessage(fieldErr))
	}

	return errors.New(strings.Join(messages, ", "))
}

// fieldMessage переводит ошибку валидации одного поля в понятное сообщение
func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("поле '%s' обязательно", field)
	case "email":
		return fmt.Sprintf("поле '%s' должно быть корректным email", field)
	case "min":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("поле '%s' должно содержать не менее %s элементов", field, fe.Param())
		}
		return fmt.Sprintf("поле '%s' должно быть не меньше %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return fmt.Sprintf("поле '%s' должно содержать не более %s элементов", field, fe.Param())
		}
		return fmt.Sprintf("поле '%s' должно быть не больше %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("поле '%s' должно быть не меньше %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("поле '%s' должно быть не больше %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("поле '%s' должно быть одним из: %s", field, fe.Param())
	case "e164":
		return fmt.Sprintf("поле '%s' должно быть телефоном в международном формате", field)
	default:
		return fmt.Sprintf("поле '%s' не прошло проверку '%s'", field, fe.Tag())
	}
}
