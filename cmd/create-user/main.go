// CLI tool to create a user with a bcrypt-hashed password.
// Profile and goals are set later through PUT /api/profile.
// Usage: go run ./cmd/create-user [-username name] [-email addr]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

func main() {
	usernameFlag := flag.String("username", "", "username (prompted when empty)")
	emailFlag := flag.String("email", "", "email (prompted when empty)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	username := valueOrPrompt(reader, *usernameFlag, "Username")
	email := valueOrPrompt(reader, *emailFlag, "Email")
	password := prompt(reader, "Password")

	if username == "" {
		fmt.Fprintln(os.Stderr, "Username is required")
		os.Exit(1)
	}
	if len(password) < minPasswordLen {
		fmt.Fprintf(os.Stderr, "Password must be at least %d characters\n", minPasswordLen)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	authToken := uuid.New().String()

	var userID int
	err = conn.QueryRow(ctx,
		`INSERT INTO users (username, email, password, auth_token)
		 VALUES (@username, @email, @password, @authToken)
		 ON CONFLICT (username) DO NOTHING
		 RETURNING id`,
		pgx.NamedArgs{"username": username, "email": email, "password": string(hash), "authToken": authToken},
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		fmt.Fprintf(os.Stderr, "User %q already exists\n", username)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nUser created successfully!\n")
	fmt.Printf("  ID:         %d\n", userID)
	fmt.Printf("  Username:   %s\n", username)
	fmt.Printf("  Auth Token: %s\n", authToken)
	fmt.Println("\nNext: PUT /api/profile to set age, sex, height, weight, activity level and goal.")
}

func valueOrPrompt(r *bufio.Reader, v, label string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return prompt(r, label)
}

func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label + ": ")
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
