package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	displayName string
	password    string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		displayName: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		password:    "testpassword123",
	}
}

// WithDisplayName sets the display name
func (b *UserBuilder) WithDisplayName(name string) *UserBuilder {
	b.displayName = name
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build stores the user and returns it with the raw password
func (b *UserBuilder) Build(t *testing.T, users repository.UserRepository) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		DisplayName:  b.displayName,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// BuildAndAuthenticate registers the user via the API and returns the user and access token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	reqBody := map[string]string{
		"displayName": b.displayName,
		"password":    b.password,
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	userID, _ := uuid.Parse(authResp.User.ID)
	user := &domain.User{
		ID:          userID,
		DisplayName: authResp.User.DisplayName,
	}

	return user, authResp.AccessToken
}

// RoomBuilder creates test rooms with a builder pattern
type RoomBuilder struct {
	host    *domain.User
	members []*domain.User
	title   string
	ready   bool
}

// NewRoomBuilder creates a new RoomBuilder with default values
func NewRoomBuilder() *RoomBuilder {
	return &RoomBuilder{title: "Test Room"}
}

// WithHost sets the room host, who is also the first member
func (b *RoomBuilder) WithHost(user *domain.User) *RoomBuilder {
	b.host = user
	return b
}

// WithMembers adds members after the host, in join order
func (b *RoomBuilder) WithMembers(users ...*domain.User) *RoomBuilder {
	b.members = append(b.members, users...)
	return b
}

// WithTitle sets the room title
func (b *RoomBuilder) WithTitle(title string) *RoomBuilder {
	b.title = title
	return b
}

// AllReady marks every member ready
func (b *RoomBuilder) AllReady() *RoomBuilder {
	b.ready = true
	return b
}

// Build stores the room and its members and returns the loaded room
func (b *RoomBuilder) Build(t *testing.T, repos *repository.Repositories) *domain.Room {
	t.Helper()
	ctx := context.Background()

	host := b.host
	if host == nil {
		host, _ = NewUserBuilder().Build(t, repos.User)
	}

	room := &domain.Room{
		ID:        uuid.New(),
		ShortCode: uuid.New().String()[:6],
		Title:     b.title,
		HostID:    host.ID,
		CreatedAt: time.Now(),
	}
	if err := repos.Room.Create(ctx, room); err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	joined := time.Now()
	for i, user := range append([]*domain.User{host}, b.members...) {
		member := &domain.RoomMember{
			ID:       uuid.New(),
			RoomID:   room.ID,
			UserID:   user.ID,
			IsReady:  b.ready,
			JoinedAt: joined.Add(time.Duration(i) * time.Millisecond),
		}
		if err := repos.RoomMember.Create(ctx, member); err != nil {
			t.Fatalf("failed to add room member: %v", err)
		}
	}

	loaded, err := repos.Room.GetByID(ctx, room.ID)
	if err != nil {
		t.Fatalf("failed to load room: %v", err)
	}
	return loaded
}

// BuildUsers creates n users
func BuildUsers(t *testing.T, users repository.UserRepository, n int) []*domain.User {
	t.Helper()
	out := make([]*domain.User, n)
	for i := range out {
		out[i], _ = NewUserBuilder().WithDisplayName(fmt.Sprintf("player_%d_%s", i, uuid.New().String()[:4])).Build(t, users)
	}
	return out
}

// TestCatalog is a small card set: two cause-of-death and two crime-scene
// cards, eight other information cards with six facts each, and forty
// measure and clue cards.
func TestCatalog() *domain.CardCatalog {
	catalog := &domain.CardCatalog{}
	add := func(id, category string) {
		facts := make([]string, 6)
		for i := range facts {
			facts[i] = fmt.Sprintf("%s fact %d", id, i)
		}
		catalog.InformationCards = append(catalog.InformationCards, &domain.InformationCard{
			ID:       id,
			Name:     id,
			Category: category,
			Facts:    facts,
		})
	}
	for i := 0; i < 2; i++ {
		add(fmt.Sprintf("cause-%d", i), domain.CategoryCauseOfDeath)
		add(fmt.Sprintf("scene-%d", i), domain.CategoryCrimeScene)
	}
	for i := 0; i < 8; i++ {
		add(fmt.Sprintf("info-%d", i), "other")
	}
	for i := 0; i < 40; i++ {
		catalog.MeasureCards = append(catalog.MeasureCards, &domain.MeasureCard{Name: fmt.Sprintf("measure-%d", i)})
		catalog.ClueCards = append(catalog.ClueCards, &domain.ClueCard{Name: fmt.Sprintf("clue-%d", i)})
	}
	return catalog
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}
