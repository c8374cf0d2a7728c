package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"projecthub_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Directory answers identity and membership questions against the
// platform's entity tables. The messaging services depend on this interface
// only; entity CRUD lives elsewhere.
type Directory interface {
	GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	GetSession(ctx context.Context, token string) (*models.Session, error)
	// Resolve returns the typed handle for a known recipient kind.
	Resolve(ctx context.Context, kind models.RecipientType, id string) (*models.RecipientHandle, error)
	// ResolveAny probes user, then team, then project for an untyped id.
	ResolveAny(ctx context.Context, id string) (*models.RecipientHandle, error)
	// IsMember reports membership of userID in a team/project. A missing
	// entity reads as "not a member" so callers fail closed.
	IsMember(ctx context.Context, userID string, kind models.RecipientType, entityID string) (bool, error)
	TeamsFor(ctx context.Context, userID string) ([]models.Team, error)
	ProjectsFor(ctx context.Context, userID string) ([]models.Project, error)
}

// DynamoDirectory reads the Users, Teams, Projects and Sessions tables.
type DynamoDirectory struct {
	Dynamo *DynamoService
}

// GetUserProfile fetches a user record by id.
func (d *DynamoDirectory) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}

	item, err := d.Dynamo.GetItem(ctx, models.UsersTable, key)
	if errors.Is(err, ErrItemNotFound) {
		return nil, ErrRecipientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse user profile: %w", err)
	}
	return &profile, nil
}

// GetSession resolves a bearer token. Expired sessions read as missing.
func (d *DynamoDirectory) GetSession(ctx context.Context, token string) (*models.Session, error) {
	key := map[string]types.AttributeValue{
		"token": &types.AttributeValueMemberS{Value: token},
	}

	item, err := d.Dynamo.GetItem(ctx, models.SessionsTable, key)
	if errors.Is(err, ErrItemNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	var session models.Session
	if err := attributevalue.UnmarshalMap(item, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}

	if session.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, session.ExpiresAt)
		if err != nil || time.Now().After(expiresAt) {
			return nil, ErrSessionNotFound
		}
	}
	return &session, nil
}

func (d *DynamoDirectory) getTeam(ctx context.Context, teamID string) (*models.Team, error) {
	key := map[string]types.AttributeValue{
		"teamId": &types.AttributeValueMemberS{Value: teamID},
	}
	item, err := d.Dynamo.GetItem(ctx, models.TeamsTable, key)
	if err != nil {
		return nil, err
	}
	var team models.Team
	if err := attributevalue.UnmarshalMap(item, &team); err != nil {
		return nil, fmt.Errorf("failed to parse team: %w", err)
	}
	return &team, nil
}

func (d *DynamoDirectory) getProject(ctx context.Context, projectID string) (*models.Project, error) {
	key := map[string]types.AttributeValue{
		"projectId": &types.AttributeValueMemberS{Value: projectID},
	}
	item, err := d.Dynamo.GetItem(ctx, models.ProjectsTable, key)
	if err != nil {
		return nil, err
	}
	var project models.Project
	if err := attributevalue.UnmarshalMap(item, &project); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}
	return &project, nil
}

// Resolve maps (kind, id) to a display/membership handle with one explicit
// dispatch per recipient kind.
func (d *DynamoDirectory) Resolve(ctx context.Context, kind models.RecipientType, id string) (*models.RecipientHandle, error) {
	switch kind {
	case models.RecipientUser:
		profile, err := d.GetUserProfile(ctx, id)
		if err != nil {
			return nil, err
		}
		return &models.RecipientHandle{ID: profile.UserID, Kind: models.RecipientUser, Name: profile.Name, Avatar: profile.Avatar}, nil

	case models.RecipientTeam:
		team, err := d.getTeam(ctx, id)
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrRecipientNotFound
		}
		if err != nil {
			return nil, err
		}
		return &models.RecipientHandle{ID: team.TeamID, Kind: models.RecipientTeam, Name: team.Name, Avatar: team.Avatar, Members: team.Members}, nil

	case models.RecipientProject:
		project, err := d.getProject(ctx, id)
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrRecipientNotFound
		}
		if err != nil {
			return nil, err
		}
		return &models.RecipientHandle{ID: project.ProjectID, Kind: models.RecipientProject, Name: project.Name, Avatar: project.Avatar, Members: project.Members}, nil
	}

	return nil, ErrInvalidRecipient
}

// ResolveAny probes the three kinds in user, then team, then project
// order. Untyped recipient ids on the thread routes go through here.
func (d *DynamoDirectory) ResolveAny(ctx context.Context, id string) (*models.RecipientHandle, error) {
	for _, kind := range []models.RecipientType{models.RecipientUser, models.RecipientTeam, models.RecipientProject} {
		handle, err := d.Resolve(ctx, kind, id)
		if errors.Is(err, ErrRecipientNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return handle, nil
	}
	return nil, ErrRecipientNotFound
}

// IsMember checks membership at call time. Membership is never frozen at
// send time: leaving an entity loses history, joining gains it.
func (d *DynamoDirectory) IsMember(ctx context.Context, userID string, kind models.RecipientType, entityID string) (bool, error) {
	handle, err := d.Resolve(ctx, kind, entityID)
	if errors.Is(err, ErrRecipientNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, member := range handle.Members {
		if member == userID {
			return true, nil
		}
	}
	return false, nil
}

// TeamsFor lists the teams the user currently belongs to.
func (d *DynamoDirectory) TeamsFor(ctx context.Context, userID string) ([]models.Team, error) {
	filter := "contains(#members, :userId)"
	expressionValues := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
	}
	expressionNames := map[string]string{"#members": "members"}

	var teams []models.Team
	if err := d.Dynamo.ScanWithFilter(ctx, models.TeamsTable, filter, expressionValues, expressionNames, &teams); err != nil {
		return nil, fmt.Errorf("failed to list teams for user: %w", err)
	}
	return teams, nil
}

// ProjectsFor lists the projects the user currently belongs to.
func (d *DynamoDirectory) ProjectsFor(ctx context.Context, userID string) ([]models.Project, error) {
	filter := "contains(#members, :userId)"
	expressionValues := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
	}
	expressionNames := map[string]string{"#members": "members"}

	var projects []models.Project
	if err := d.Dynamo.ScanWithFilter(ctx, models.ProjectsTable, filter, expressionValues, expressionNames, &projects); err != nil {
		return nil, fmt.Errorf("failed to list projects for user: %w", err)
	}
	return projects, nil
}
