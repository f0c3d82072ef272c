package portal

import (
	"context"
	"io"

	"github.com/felixgeelhaar/gemora/internal/gateway"
)

// Profile is the signed-in user's own account API.
type Profile struct {
	client *gateway.Client
}

// Get returns the caller's profile.
func (p *Profile) Get(ctx context.Context) (*User, error) {
	resp, err := p.client.Get(ctx, "/users/profile", nil)
	return fetch[*User]("profile.get", resp, err, MsgFetchProfile)
}

// Update changes the caller's profile.
func (p *Profile) Update(ctx context.Context, upd ProfileUpdate) (*User, error) {
	resp, err := p.client.Put(ctx, "/users/profile", upd, nil)
	return fetch[*User]("profile.update", resp, err, MsgUpdateProfile)
}

// UploadAvatar sends a new avatar image as the multipart field "avatar".
func (p *Profile) UploadAvatar(ctx context.Context, fileName, contentType string, content io.Reader, onProgress gateway.ProgressFunc) (*User, error) {
	resp, err := p.client.Upload(ctx, "/users/avatar", gateway.Form{
		Files: []gateway.FormFile{{
			Field:       "avatar",
			FileName:    fileName,
			ContentType: contentType,
			Content:     content,
		}},
	}, &gateway.RequestOptions{OnProgress: onProgress})
	return fetch[*User]("profile.avatar", resp, err, MsgUploadAvatar)
}

// ChangePassword replaces the caller's password.
func (p *Profile) ChangePassword(ctx context.Context, current, next string) error {
	_, err := p.client.Post(ctx, "/users/change-password", PasswordChange{
		CurrentPassword: current,
		NewPassword:     next,
	}, nil)
	if err != nil {
		return failure("profile.password", err, MsgChangePassword)
	}
	return nil
}
