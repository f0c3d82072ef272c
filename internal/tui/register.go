package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/gemora/internal/auth"
)

// RegisterAnswers collects the wizard input. Image fields hold file paths.
type RegisterAnswers struct {
	Name            string
	Email           string
	ContactNumber   string
	Password        string
	ConfirmPassword string

	IDFrontPath string
	IDBackPath  string
	SelfiePath  string
}

// Form converts the answers into a registration form, loading any images.
func (a *RegisterAnswers) Form() (*auth.RegisterForm, error) {
	form := &auth.RegisterForm{
		Name:            strings.TrimSpace(a.Name),
		Email:           strings.TrimSpace(a.Email),
		ContactNumber:   strings.TrimSpace(a.ContactNumber),
		Password:        a.Password,
		ConfirmPassword: a.ConfirmPassword,
	}
	for _, img := range []struct {
		path string
		dst  **auth.Image
	}{
		{a.IDFrontPath, &form.IDFrontImage},
		{a.IDBackPath, &form.IDBackImage},
		{a.SelfiePath, &form.SelfieImage},
	} {
		path := strings.TrimSpace(img.path)
		if path == "" {
			continue
		}
		loaded, err := auth.LoadImage(path)
		if err != nil {
			return nil, err
		}
		*img.dst = loaded
	}
	return form, nil
}

// fieldError runs the form validation and reports only failures of field.
func (a *RegisterAnswers) fieldError(field string) error {
	form, err := a.Form()
	if err != nil {
		return nil
	}
	err = form.Validate()
	var verr *auth.ValidationError
	if asValidation(err, &verr) && verr.Field == field {
		return fmt.Errorf("%s", verr.Message)
	}
	return nil
}

func imageCheck(field string) func(string) error {
	return func(path string) error {
		path = strings.TrimSpace(path)
		if path == "" {
			return nil
		}
		img, err := auth.LoadImage(path)
		if err != nil {
			return err
		}
		var verr *auth.ValidationError
		if asValidation(auth.ValidateImage(field, img), &verr) {
			return fmt.Errorf("%s", verr.Message)
		}
		return nil
	}
}

// RunRegisterWizard walks the user through account details and identity
// images. Pre-filled answers are shown as defaults.
func RunRegisterWizard(a *RegisterAnswers) error {
	account := huh.NewGroup(
		huh.NewInput().Title("Full name").Value(&a.Name).
			Validate(func(string) error { return a.fieldError("name") }),
		huh.NewInput().Title("Email").Value(&a.Email).
			Validate(func(string) error { return a.fieldError("email") }),
		huh.NewInput().Title("Contact number").Placeholder("0771234567").Value(&a.ContactNumber).
			Validate(func(string) error { return a.fieldError("contactNumber") }),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&a.Password).
			Validate(func(string) error { return a.fieldError("password") }),
		huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&a.ConfirmPassword).
			Validate(func(string) error { return a.fieldError("confirmPassword") }),
	).Title("Account")

	identity := huh.NewGroup(
		huh.NewInput().Title("ID front image").Description("Optional, up to 5MB").
			Value(&a.IDFrontPath).Validate(imageCheck("idFrontImage")),
		huh.NewInput().Title("ID back image").Description("Optional, up to 5MB").
			Value(&a.IDBackPath).Validate(imageCheck("idBackImage")),
		huh.NewInput().Title("Selfie").Description("Optional, up to 5MB").
			Value(&a.SelfiePath).Validate(imageCheck("selfieImage")),
	).Title("Identity verification")

	err := huh.NewForm(account, identity).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	if err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

func asValidation(err error, target **auth.ValidationError) bool {
	return err != nil && errors.As(err, target)
}
