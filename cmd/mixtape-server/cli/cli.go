package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"mixtape/internal/server/storage"
)

// Run is the entry point for the CLI mini-app
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, participants, remove, leaderboard, chameleon")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "delete":
		return runDelete(args[1:])
	case "participants":
		return runParticipants(args[1:])
	case "remove":
		return runRemove(args[1:])
	case "leaderboard":
		return runLeaderboard(args[1:])
	case "chameleon":
		return runChameleon(args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func openStore(path string) (*storage.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path required")
	}
	store, err := storage.NewStore(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Printf("Database initialized at: %s\n", *path)
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Printf("Database deleted: %s\n", *path)
	return nil
}

func runParticipants(args []string) error {
	fs := flag.NewFlagSet("participants", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	participants, err := store.ListParticipants()
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(participants) == 0 {
		fmt.Println("No participants found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tName\tTracks\tEligible")
	fmt.Fprintln(w, strings.Repeat("-", 60))

	for _, p := range participants {
		eligible := "no"
		if len(p.Tracks) >= 3 {
			eligible = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, strings.Join(p.Tracks, ", "), eligible)
	}
	w.Flush()

	fmt.Printf("\nTotal participants: %d\n", len(participants))
	return nil
}

func runRemove(args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	name := fs.String("name", "", "Participant name to remove (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" {
		return fmt.Errorf("participant name required")
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.DeleteParticipant(*name)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("participant not found: %s", *name)
	}

	fmt.Printf("Participant removed: %s (tracks and stats follow)\n", *name)
	return nil
}

func runLeaderboard(args []string) error {
	fs := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	limit := fs.Int("limit", 0, "Maximum entries to show (0 for all)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.TopEntries(*limit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("Leaderboard is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Rank\tName\tScore\tPercent\tSubmitted")
	fmt.Fprintln(w, strings.Repeat("-", 60))

	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%d/%d\t%d%%\t%s\n",
			i+1, e.Name, e.Right, e.Total, e.Percent,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal entries: %d\n", len(entries))
	return nil
}

func runChameleon(args []string) error {
	fs := flag.NewFlagSet("chameleon", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(*path)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := store.BestChameleon()
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if c == nil {
		fmt.Println("Not enough guesses recorded yet")
		return nil
	}

	fmt.Printf("Best chameleon: %s\n", c.Name)
	fmt.Printf("  Guessed right: %d of %d (%.1f%%)\n", c.CorrectGuesses, c.TotalGuesses, c.SuccessRate)
	return nil
}
