package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/wardrobe/internal/model"
)

// newValidator registers the enum tags used by model.ItemFields and model.ItemPatch.
func newValidator(opts Options) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return strings.ToLower(f.Name)
	})

	for tag, set := range opts.enums() {
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return set.Contains(fl.Field().String())
		})
		if err != nil {
			panic(fmt.Sprintf("catalog: registering %s validation: %v", tag, err))
		}
	}
	return v
}

// validateForm turns validation failures into an ErrInvalidInput error
// listing each offending field.
func (s *Service) validateForm(form any) error {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	enums := s.opts.enums()
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "min":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			if set, ok := enums[fe.Tag()]; ok {
				msgs = append(msgs, fmt.Sprintf("%s must be one of %s", fe.Field(), strings.Join(set, ", ")))
			} else {
				msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
			}
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func (o Options) enums() map[string]model.Enum {
	return map[string]model.Enum{
		"category": o.Categories,
		"color":    o.Colors,
		"wardrobe": o.Wardrobes,
	}
}
