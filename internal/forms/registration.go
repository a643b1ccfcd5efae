package forms

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agmortgage/agbank/internal/calc"
	"github.com/agmortgage/agbank/internal/model"
)

// RegistrationSteps is the number of steps in the registration flow.
const RegistrationSteps = 4

// Registration is the sign-up form: the profile plus a password typed twice.
type Registration struct {
	model.Profile   `yaml:",inline"`
	Password        string `yaml:"password"`
	ConfirmPassword string `yaml:"confirm_password"`
}

// RegisterRequest is the body of POST /auth/register. The confirmation
// field never leaves the client.
type RegisterRequest struct {
	model.Profile
	Password string `json:"password"`
}

// LoadRegistration reads a registration profile from a YAML file.
func LoadRegistration(path string) (*Registration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	var r Registration
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	return &r, nil
}

// ValidateStep checks one step of the flow:
// 1 personal details and password, 2 address, 3 employment, 4 verification.
func (r *Registration) ValidateStep(step int) error {
	switch step {
	case 1:
		if anyBlank(r.Email, r.FirstName, r.LastName, r.PhoneNumber, r.DateOfBirth) {
			return invalid("personal", "Please fill in all required fields")
		}
		if r.Password == "" || r.ConfirmPassword == "" {
			return invalid("password", "Please create a password")
		}
		if err := calc.ValidatePassword(r.Password); err != nil {
			return invalid("password", "%s", err.Error())
		}
		if r.Password != r.ConfirmPassword {
			return invalid("confirmPassword", "Passwords do not match")
		}
	case 2:
		if anyBlank(r.Address.Street, r.Address.City, r.Address.State) {
			return invalid("address", "Please complete address information")
		}
	case 3:
		if anyBlank(r.Occupation, r.Employer) || !r.MonthlyIncome.IsPositive() {
			return invalid("employment", "Please complete employment information")
		}
	case 4:
		if anyBlank(r.NextOfKin.Name, r.NextOfKin.Relationship, r.NextOfKin.PhoneNumber, r.BankVerificationNumber) {
			return invalid("verification", "Please complete all verification fields")
		}
	default:
		return invalid("step", "Unknown registration step %d", step)
	}
	return nil
}

// Validate runs every step in order.
func (r *Registration) Validate() error {
	for step := 1; step <= RegistrationSteps; step++ {
		if err := r.ValidateStep(step); err != nil {
			return err
		}
	}
	return nil
}

// Request builds the backend payload, dropping the confirmation.
func (r *Registration) Request() RegisterRequest {
	return RegisterRequest{Profile: r.Profile, Password: r.Password}
}
