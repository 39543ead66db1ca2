package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/dom/deception-server/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "play":
		playCmd(apiURL, args)
	case "populate":
		populateCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Match Simulator - Development tool for playing Deception matches with bots

USAGE:
  simulator <command> [options]

COMMANDS:
  play      Create a room with bots, start a match and play it to the end
  populate  Add bots to an existing room; they play whatever match starts there
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Play a full 6-player match with bots
  simulator play --count=6

  # Add 3 bots to a room you host, then start the match from your client
  simulator populate --room=ABC123 --count=3`)
}

type seat struct {
	user  *User
	token string
	bot   *Bot
}

func register(ctx context.Context, api *APIClient, apiURL string, name string) (*seat, error) {
	user, token, err := api.RegisterUser(name)
	if err != nil {
		return nil, err
	}
	bot, err := NewBot(ctx, apiURL, user.DisplayName, token)
	if err != nil {
		return nil, err
	}
	return &seat{user: user, token: token, bot: bot}, nil
}

func playCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	count := fs.Int("count", 6, "Number of bots at the table")
	limit := fs.Duration("timeout", 5*time.Minute, "Give up after this long")
	fs.Parse(args)

	if *count < 4 || *count > domain.MaxRoomMembers {
		fmt.Printf("Error: --count must be between 4 and %d\n", domain.MaxRoomMembers)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *limit)
	defer cancel()

	api := NewAPIClient(apiURL)

	fmt.Println("=== Match Simulator: Play ===")
	fmt.Println()

	var seats []*seat
	for i := range *count {
		s, err := register(ctx, api, apiURL, fmt.Sprintf("Bot%d", i+1))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED: %v\n", i+1, *count, err)
			os.Exit(1)
		}
		defer s.bot.Close()
		seats = append(seats, s)
		fmt.Printf("  [%d/%d] %s connected\n", i+1, *count, s.user.DisplayName)
	}

	host := seats[0]
	room, err := api.CreateRoom(host.token, "Simulated table")
	if err != nil {
		fmt.Printf("Failed to create room: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nRoom created: %s (code: %s)\n", room.ID, room.ShortCode)

	if err := seatBots(api, room, seats); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Print("Starting match... ")
	if err := host.bot.conn.StartMatch(); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")

	final, err := playAll(ctx, seats)
	if err != nil {
		fmt.Printf("Match did not finish: %v\n", err)
		os.Exit(1)
	}
	printResult(final)
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	roomCode := fs.String("room", "", "Room ID or short code (required)")
	count := fs.Int("count", 3, "Number of bots to add")
	limit := fs.Duration("timeout", 30*time.Minute, "Give up after this long")
	fs.Parse(args)

	if *roomCode == "" {
		fmt.Println("Error: --room is required")
		fmt.Println("\nUsage: simulator populate --room=ABC123 [--count=3]")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *limit)
	defer cancel()

	api := NewAPIClient(apiURL)

	var seats []*seat
	for i := range *count {
		s, err := register(ctx, api, apiURL, fmt.Sprintf("Bot%d", i+1))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED: %v\n", i+1, *count, err)
			os.Exit(1)
		}
		defer s.bot.Close()
		seats = append(seats, s)
	}

	room, err := api.GetRoom(seats[0].token, *roomCode)
	if err != nil {
		fmt.Printf("Failed to get room: %v\n", err)
		os.Exit(1)
	}
	if err := seatBots(api, room, seats); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("%d bots are seated and ready in room %s.\n", len(seats), room.ShortCode)
	fmt.Println("Start the match from the host's client; the bots will play along.")

	final, err := playAll(ctx, seats)
	if err != nil {
		fmt.Printf("Match did not finish: %v\n", err)
		os.Exit(1)
	}
	printResult(final)
}

// seatBots enters every bot into the room and readies it.
func seatBots(api *APIClient, room *Room, seats []*seat) error {
	roomID, err := uuid.Parse(room.ID)
	if err != nil {
		return fmt.Errorf("invalid room id %q: %w", room.ID, err)
	}

	fmt.Print("Seating bots... ")
	for _, s := range seats {
		if err := s.bot.conn.EnterRoom(roomID); err != nil {
			return err
		}
		if err := s.bot.conn.SetRoomReady(true); err != nil {
			return err
		}
	}
	expected := len(seats)
	for _, m := range room.Members {
		if !slices.ContainsFunc(seats, func(s *seat) bool { return s.user.ID == m.UserID }) {
			expected++
		}
	}
	if err := api.WaitAllReady(seats[0].token, room.ID, expected, 10*time.Second); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

// playAll runs every bot until the match ends. The first terminal snapshot
// wins; bots that saw the match destroyed report nil.
func playAll(ctx context.Context, seats []*seat) (*domain.Match, error) {
	results := make([]*domain.Match, len(seats))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range seats {
		g.Go(func() error {
			m, err := s.bot.Play(gctx)
			results[i] = m
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, m := range results {
		if m != nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("match was destroyed before it finished")
}

func printResult(m *domain.Match) {
	fmt.Println()
	fmt.Println("=========================================")
	switch m.Phase {
	case domain.PhaseDetectiveWin:
		fmt.Println("  DETECTIVES WIN")
	default:
		fmt.Println("  MURDERER WINS")
	}
	fmt.Println("=========================================")
	fmt.Println()
	if m.AccusedMeasure != nil && m.AccusedClue != nil {
		fmt.Printf("  Means:  %s\n", *m.AccusedMeasure)
		fmt.Printf("  Clue:   %s\n", *m.AccusedClue)
	}
	fmt.Printf("  Rounds: %d\n", m.Round)
	fmt.Println()
	for _, p := range m.Players {
		fmt.Printf("  %-12s %s\n", p.Role, p.DisplayName)
	}
	fmt.Println()
}
