package auth

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/gemora/internal/errors"
)

// MaxImageSize is the largest identity image accepted at registration.
const MaxImageSize = 5 * 1024 * 1024

var (
	loginEmailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	registerEmailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	contactPattern       = regexp.MustCompile(`^\d{10}$`)
)

// ValidateLogin checks the login form before any request is made.
func ValidateLogin(email, password string) error {
	if email == "" || password == "" {
		return invalid("", errors.ErrCodeValidationRequired, "Please fill in all fields")
	}
	if !loginEmailPattern.MatchString(email) {
		return invalid("email", errors.ErrCodeValidationEmail, "Please enter a valid email address")
	}
	return nil
}

// Image is an identity document or selfie attached to a registration.
type Image struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Size returns the image size in bytes.
func (i *Image) Size() int64 {
	return int64(len(i.Data))
}

// LoadImage reads path and derives its content type from the extension,
// falling back to sniffing the content.
func LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NewFileNotFoundError(path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &Image{FileName: filepath.Base(path), ContentType: contentType, Data: data}, nil
}

// ValidateImage enforces the size and type limits for uploaded images.
func ValidateImage(field string, img *Image) error {
	if img == nil {
		return nil
	}
	if img.Size() > MaxImageSize {
		return invalid(field, errors.ErrCodeValidationFileSize, "File size must be less than 5MB")
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return invalid(field, errors.ErrCodeValidationFileType, "Only image files are allowed")
	}
	return nil
}

// RegisterForm is the account registration input.
type RegisterForm struct {
	Name            string
	Email           string
	ContactNumber   string
	Password        string
	ConfirmPassword string

	IDFrontImage *Image
	IDBackImage  *Image
	SelfieImage  *Image
}

// Validate returns the first problem with the form, checked in field order.
func (f *RegisterForm) Validate() error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return invalid("name", errors.ErrCodeValidationRequired, "Name is required")
	case strings.TrimSpace(f.Email) == "":
		return invalid("email", errors.ErrCodeValidationRequired, "Email is required")
	case !registerEmailPattern.MatchString(f.Email):
		return invalid("email", errors.ErrCodeValidationEmail, "Email is invalid")
	case strings.TrimSpace(f.ContactNumber) == "":
		return invalid("contactNumber", errors.ErrCodeValidationRequired, "Contact number is required")
	case !contactPattern.MatchString(f.ContactNumber):
		return invalid("contactNumber", errors.ErrCodeValidationContact, "Contact number must be 10 digits")
	case f.Password == "":
		return invalid("password", errors.ErrCodeValidationRequired, "Password is required")
	case len(f.Password) < 6:
		return invalid("password", errors.ErrCodeValidationPassword, "Password must be at least 6 characters")
	case f.ConfirmPassword == "":
		return invalid("confirmPassword", errors.ErrCodeValidationRequired, "Please confirm your password")
	case f.ConfirmPassword != f.Password:
		return invalid("confirmPassword", errors.ErrCodeValidationPasswordRepeat, "Passwords do not match")
	}

	for _, img := range f.images() {
		if err := ValidateImage(img.field, img.image); err != nil {
			return err
		}
	}
	return nil
}

type namedImage struct {
	field string
	image *Image
}

func (f *RegisterForm) images() []namedImage {
	return []namedImage{
		{"idFrontImage", f.IDFrontImage},
		{"idBackImage", f.IDBackImage},
		{"selfieImage", f.SelfieImage},
	}
}
