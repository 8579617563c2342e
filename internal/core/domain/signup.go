package domain

// SignupRequest is one of CustomerSignup or FarmerSignup.
type SignupRequest interface {
	Role() Role
	Credentials() SignupBase
	isSignupRequest()
}

// SignupBase holds the fields every signup variant carries.
type SignupBase struct {
	DisplayName string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,strongpassword"`
}

// CustomerSignup registers a buyer.
type CustomerSignup struct {
	SignupBase
}

func (CustomerSignup) Role() Role {
	return RoleCustomer
}

func (s CustomerSignup) Credentials() SignupBase {
	return s.SignupBase
}

func (CustomerSignup) isSignupRequest() {}

// FarmerSignup registers a seller; farms need a location and a contact number.
type FarmerSignup struct {
	SignupBase
	Location string `json:"location" validate:"required,min=2"`
	Phone    string `json:"phone" validate:"required,phone"`
}

func (FarmerSignup) Role() Role {
	return RoleFarmer
}

func (s FarmerSignup) Credentials() SignupBase {
	return s.SignupBase
}

func (FarmerSignup) isSignupRequest() {}

// UnwrapSignup returns req as a value variant. It reports false for nil,
// including a nil *CustomerSignup or *FarmerSignup.
func UnwrapSignup(req SignupRequest) (SignupRequest, bool) {
	switch r := req.(type) {
	case CustomerSignup:
		return r, true
	case FarmerSignup:
		return r, true
	case *CustomerSignup:
		if r != nil {
			return *r, true
		}
	case *FarmerSignup:
		if r != nil {
			return *r, true
		}
	}
	return nil, false
}
