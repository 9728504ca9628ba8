package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/browse"
	"github.com/starford/raido/internal/themes"
)

// BrowseResponse is the directory listing payload (aliased from the domain layer).
type BrowseResponse = browse.Listing

// FileResponse is the Markdown file payload (aliased from the domain layer).
type FileResponse = browse.MarkdownFile

// CSRFTokenResponse carries the per-session anti-forgery token.
type CSRFTokenResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// ThemeListResponse wraps the theme listing.
type ThemeListResponse struct {
	Themes []themes.Theme `json:"themes"`
}

// SaveThemeRequest is the body for creating or updating a theme.
type SaveThemeRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CSS         string `json:"css"`
}

// Validate checks the request shape. ID sanitization happens later in the
// theme store; here only presence and coarse sizes are enforced.
func (r SaveThemeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.CSS, validation.Required),
		validation.Field(&r.Name, validation.Length(0, 256)),
		validation.Field(&r.Description, validation.Length(0, 1024)),
	)
}

// SaveThemeResponse confirms a stored theme.
type SaveThemeResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}
