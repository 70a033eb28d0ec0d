package models

// Profile carries the displayable identity for a user and the site-admin
// role used by the admin endpoints.
type Profile struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	SiteAdmin   bool   `json:"site_admin"`
}
