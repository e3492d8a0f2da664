package main

import (
	"context"
	"log"
	"os"
	"time"

	"tasklist/internal/client"
	"tasklist/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found")
	}

	baseURL := os.Getenv("TASKLIST_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	c := client.New(baseURL, os.Getenv("TASKLIST_TOKEN"))
	if os.Getenv("TASKLIST_TOKEN") == "" {
		username := os.Getenv("TASKLIST_USERNAME")
		password := os.Getenv("TASKLIST_PASSWORD")
		if username == "" || password == "" {
			log.Fatal("set TASKLIST_TOKEN, or TASKLIST_USERNAME and TASKLIST_PASSWORD")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Login(ctx, username, password); err != nil {
			log.Fatalf("login: %v", err)
		}
	}

	p := tea.NewProgram(tui.New(c), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("tui: %v", err)
	}
}
