package auth

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/angelmondragon/marketplace-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-storefront/pkg/errors"
	"github.com/angelmondragon/marketplace-storefront/pkg/types"
	"github.com/go-playground/validator/v10"
)

// Signup is one of BuyerSignup, SellerSignup or DriverSignup, selected by
// the "role" field of the request body.
type Signup interface {
	Role() enums.UserRole
	Email() string
	isSignup()
}

// SignupBase holds the fields every role submits.
type SignupBase struct {
	FirstName       string `json:"firstName" validate:"required,max=80"`
	LastName        string `json:"lastName" validate:"required,max=80"`
	EmailAddress    string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,e164"`
	AcceptTerms     bool   `json:"acceptTerms" validate:"eq=true"`
}

func (b SignupBase) Email() string { return b.EmailAddress }

type BuyerSignup struct {
	SignupBase
}

type SellerSignup struct {
	SignupBase
	BusinessName string        `json:"businessName" validate:"required,max=120"`
	BusinessType string        `json:"businessType" validate:"required,oneof=individual company"`
	TaxID        string        `json:"taxId,omitempty" validate:"omitempty,alphanum,min=6,max=20"`
	Address      types.Address `json:"address"`
}

type DriverSignup struct {
	SignupBase
	VehicleType   string `json:"vehicleType" validate:"required,oneof=bicycle motorcycle car van truck"`
	LicenseNumber string `json:"licenseNumber" validate:"required,max=40"`
	LicensePlate  string `json:"licensePlate,omitempty" validate:"required_unless=VehicleType bicycle,max=15"`
}

func (BuyerSignup) Role() enums.UserRole  { return enums.UserRoleBuyer }
func (SellerSignup) Role() enums.UserRole { return enums.UserRoleSeller }
func (DriverSignup) Role() enums.UserRole { return enums.UserRoleDriver }

func (BuyerSignup) isSignup()  {}
func (SellerSignup) isSignup() {}
func (DriverSignup) isSignup() {}

var signupValidate = newSignupValidator()

func newSignupValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// DecodeSignup reads the discriminator, decodes the matching variant and
// runs that variant's validation.
func DecodeSignup(raw []byte) (Signup, error) {
	var head struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}
	role, err := enums.ParseUserRole(strings.ToLower(strings.TrimSpace(head.Role)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please choose buyer, seller or driver").
			WithDetails(map[string]string{"role": "must be one of buyer seller driver"})
	}

	var signup Signup
	switch role {
	case enums.UserRoleBuyer:
		var v BuyerSignup
		err = json.Unmarshal(raw, &v)
		signup = v
	case enums.UserRoleSeller:
		var v SellerSignup
		err = json.Unmarshal(raw, &v)
		signup = v
	case enums.UserRoleDriver:
		var v DriverSignup
		err = json.Unmarshal(raw, &v)
		signup = v
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}
	if err := ValidateSignup(signup); err != nil {
		return nil, err
	}
	return signup, nil
}

// ValidateSignup applies the variant's validation contract.
func ValidateSignup(signup Signup) error {
	if signup == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "signup is required")
	}
	err := signupValidate.Struct(signup)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Field()] = fieldMessage(fe)
	}
	first := errs[0]
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s %s", first.Field(), fieldMessage(first))).WithDetails(details)
}

// registerPayload flattens a variant into the upstream register body with the role attached.
func registerPayload(signup Signup) (map[string]any, error) {
	encoded, err := json.Marshal(signup)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{}
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return nil, err
	}
	delete(payload, "confirmPassword")
	payload["email"] = strings.ToLower(strings.TrimSpace(signup.Email()))
	payload["role"] = signup.Role()
	return payload, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless":
		return "is required"
	case "email":
		return "must be a valid email"
	case "eqfield":
		return "must match password"
	case "eq":
		return "must be accepted"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "e164":
		return "must be an international phone number"
	}
	return "is invalid"
}
