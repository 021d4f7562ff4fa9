package models

// Profile is the performer resume rendered to PDF
type Profile struct {
	UserID         string   `json:"user_id"`
	Name           string   `json:"name"`
	Email          string   `json:"email,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Website        string   `json:"website,omitempty"`
	Bio            string   `json:"bio,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	CastingHistory []Credit `json:"casting_history,omitempty"` // verified through cast memberships
	Credits        []Credit `json:"credits,omitempty"`         // entered by hand
}

type Credit struct {
	Show     string `json:"show"`
	Role     string `json:"role"`
	Company  string `json:"company,omitempty"`
	Year     string `json:"year,omitempty"`
	Verified bool   `json:"verified"`
}
