package storefront

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matheusmosca/blueprint-storefront/internal/apperrors"
	"github.com/matheusmosca/blueprint-storefront/internal/resolver"
)

// Submission is a buyer's order request.
type Submission struct {
	BuyerDiscordNick string                   `json:"buyerDiscordNick" validate:"required,max=64"`
	Offer            string                   `json:"offer" validate:"required,max=500"`
	Notes            string                   `json:"notes,omitempty" validate:"max=1000"`
	Items            []resolver.RequestedItem `json:"items" validate:"required,min=1,max=50,dive"`
}

func (s Submission) normalized() Submission {
	out := Submission{
		BuyerDiscordNick: strings.TrimSpace(s.BuyerDiscordNick),
		Offer:            strings.TrimSpace(s.Offer),
		Notes:            strings.TrimSpace(s.Notes),
	}
	if len(s.Items) == 0 {
		return out
	}
	out.Items = make([]resolver.RequestedItem, len(s.Items))
	for i, item := range s.Items {
		out.Items[i] = resolver.RequestedItem{
			ItemID:   strings.TrimSpace(item.ItemID),
			ItemName: strings.TrimSpace(item.ItemName),
			Quantity: item.Quantity,
		}
	}
	return out
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError turns the first validator failure into a readable message.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Validation("invalid submission: %v", err)
	}
	fe := fieldErrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		switch fe.Kind() {
		case reflect.String:
			msg = fmt.Sprintf("%s must be %s %s characters", field, bound, fe.Param())
		case reflect.Slice:
			msg = fmt.Sprintf("%s must contain %s %s entries", field, bound, fe.Param())
		default:
			msg = fmt.Sprintf("%s must be %s %s", field, bound, fe.Param())
		}
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return apperrors.Validation("%s", msg).WithMetadata(map[string]string{"field": field})
}
