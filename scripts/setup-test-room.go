package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"time"
)

var apiBase = "http://localhost:8080/api/v1"

type User struct {
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
	Token       string `json:"token"`
	UserID      string `json:"userId"`
}

type Room struct {
	ID        string `json:"id"`
	ShortCode string `json:"shortCode"`
}

type RegisterResponse struct {
	User struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
	AccessToken string `json:"accessToken"`
}

func registerUser(displayName, password string) (*User, error) {
	body, _ := json.Marshal(map[string]string{
		"displayName": displayName,
		"password":    password,
	})

	resp, err := http.Post(apiBase+"/auth/register", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("registration failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result RegisterResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	return &User{
		DisplayName: result.User.DisplayName,
		Password:    password,
		Token:       result.AccessToken,
		UserID:      result.User.ID,
	}, nil
}

func authedPost(path, token string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewBuffer(b)
	}
	req, _ := http.NewRequest("POST", apiBase+path, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return http.DefaultClient.Do(req)
}

func createRoom(token string) (*Room, error) {
	resp, err := authedPost("/rooms", token, map[string]string{"title": "Test table"})
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create room failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	var room Room
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}
	return &room, nil
}

func joinRoom(token, roomID string) error {
	resp, err := authedPost("/rooms/"+roomID+"/join", token, nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("join room failed (%d): %s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

func generateUsername(index int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	random := make([]byte, 4)
	for i := range random {
		random[i] = letters[rand.IntN(len(letters))]
	}
	return fmt.Sprintf("test_%d_%d_%s", index, time.Now().Unix(), string(random))
}

func main() {
	count := flag.Int("count", 6, "Number of users to seat (4-10)")
	api := flag.String("api", apiBase, "Backend API base URL")
	flag.Parse()
	apiBase = *api

	if *count < 4 || *count > 10 {
		fmt.Fprintln(os.Stderr, "--count must be between 4 and 10")
		os.Exit(1)
	}

	fmt.Printf("Setting up a %d-player room...\n\n", *count)

	password := "testpassword123"
	var users []*User

	fmt.Printf("Registering %d users...\n", *count)
	for i := 1; i <= *count; i++ {
		user, err := registerUser(generateUsername(i), password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to register user %d: %v\n", i, err)
			os.Exit(1)
		}
		users = append(users, user)
		fmt.Printf("  ✓ User %d: %s\n", i, user.DisplayName)
	}

	// First user hosts the room
	fmt.Println("\nCreating room...")
	room, err := createRoom(users[0].Token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create room: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  ✓ Room created: %s\n", room.ShortCode)

	fmt.Println("\nJoining users to room...")
	for i := 1; i < len(users); i++ {
		if err := joinRoom(users[i].Token, room.ID); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to join user %d: %v\n", i+1, err)
			os.Exit(1)
		}
		fmt.Printf("  ✓ User %d joined\n", i+1)
	}

	fmt.Println("\n" + "============================================================")
	fmt.Println("ROOM SETUP COMPLETE")
	fmt.Println("============================================================")

	fmt.Println("\nRoom Info:")
	fmt.Printf("  ID: %s\n", room.ID)
	fmt.Printf("  Code: %s\n", room.ShortCode)

	fmt.Printf("\nUsers (all use password: %s):\n", password)
	for i, user := range users {
		host := ""
		if i == 0 {
			host = " (host)"
		}
		fmt.Printf("  User %2d: %s%s\n", i+1, user.DisplayName, host)
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Connect each user to /api/v1/ws?token=<token>")
	fmt.Println("  2. Send set_room_ready for every user")
	fmt.Println("  3. As the host, send start_match")

	output := map[string]interface{}{
		"room": map[string]string{
			"id":        room.ID,
			"shortCode": room.ShortCode,
		},
		"users": users,
	}

	fmt.Println("\n" + "============================================================")
	fmt.Println("JSON OUTPUT (for scripts):")
	fmt.Println("============================================================")
	jsonOutput, _ := json.MarshalIndent(output, "", "  ")
	fmt.Println(string(jsonOutput))
}
