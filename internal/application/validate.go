package application

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateInput runs struct tag validation and reports the first failures as
// a single ValidationError.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError("%v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return domain.NewValidationError("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

func requireActor(actor domain.Identity) error {
	if !actor.Authenticated() {
		return domain.NewAuthorizationError("")
	}
	if actor.User.AnonymizedAt != nil {
		return domain.NewAuthorizationError("account has been deleted")
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
