package models

// Entity Directory records. The messaging server only reads these tables;
// ownership and CRUD live in the platform's entity services.

// UserProfile is the slice of a platform user the messaging server needs.
type UserProfile struct {
	UserID string `dynamodbav:"userId" json:"userId"` // ✅ Partition Key
	Name   string `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Avatar string `dynamodbav:"avatar,omitempty" json:"avatar,omitempty"`
	Email  string `dynamodbav:"email,omitempty" json:"email,omitempty"`
}

// Team is a student team with a flat member set.
type Team struct {
	TeamID  string   `dynamodbav:"teamId" json:"teamId"` // ✅ Partition Key
	Name    string   `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Avatar  string   `dynamodbav:"avatar,omitempty" json:"avatar,omitempty"`
	Members []string `dynamodbav:"members,stringset,omitempty" json:"members,omitempty"`
}

// Project is a platform project; its working group doubles as the audience
// for project messages.
type Project struct {
	ProjectID string   `dynamodbav:"projectId" json:"projectId"` // ✅ Partition Key
	Name      string   `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Avatar    string   `dynamodbav:"avatar,omitempty" json:"avatar,omitempty"`
	Members   []string `dynamodbav:"members,stringset,omitempty" json:"members,omitempty"`
}

// Session maps an issued bearer token to its user. Token issuance happens
// in the platform's auth service; this server only resolves tokens.
type Session struct {
	Token     string `dynamodbav:"token" json:"token"` // ✅ Partition Key
	UserID    string `dynamodbav:"userId" json:"userId"`
	ExpiresAt string `dynamodbav:"expiresAt" json:"expiresAt"` // RFC3339
}

// RecipientHandle is the resolved identity of a message address: who it is,
// how to display it, and who may read it.
type RecipientHandle struct {
	ID      string
	Kind    RecipientType
	Name    string
	Avatar  string
	Members []string // nil for user recipients
}

// Directory table names
const (
	UsersTable    = "Users"
	TeamsTable    = "Teams"
	ProjectsTable = "Projects"
	SessionsTable = "Sessions"
)
