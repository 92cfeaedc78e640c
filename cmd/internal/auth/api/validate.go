package authapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"sessiond/cmd/security/password"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkRegister returns an error code and message for the first rule the
// request breaks, or ok=true.
func checkRegister(req *registerRequest, policy password.Config) (code, msg string, ok bool) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if code, msg, ok := checkStruct(req); !ok {
		return code, msg, false
	}
	if err := policy.Validate(req.Password); err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return "invalid_request", "password is too long", false
		}
		return "invalid_password", fmt.Sprintf("password must be at least %d characters", policy.Policy.MinLength), false
	}
	return "", "", true
}

func checkLogin(req *loginRequest) (code, msg string, ok bool) {
	req.Email = strings.TrimSpace(req.Email)
	return checkStruct(req)
}

func checkStruct(v any) (code, msg string, ok bool) {
	err := validate.Struct(v)
	if err == nil {
		return "", "", true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid_request", "invalid request", false
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return "invalid_request", field + " is required", false
	case "email":
		return "invalid_email", "email is not a valid address", false
	case "max":
		return "invalid_request", field + " is too long", false
	default:
		return "invalid_request", field + " is invalid", false
	}
}
