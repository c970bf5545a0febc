package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/pendohq/pendo-assistant/client"
)

func main() {
	addr := flag.String("addr", "http://localhost:8002", "pendo-assistant base URL")
	userID := flag.String("user", "", "user id (generated when empty)")
	apiKey := flag.String("key", os.Getenv("OPENAI_API_KEY"), "OpenAI API key forwarded to the agent")
	flag.Parse()

	if *userID == "" {
		*userID = uuid.New().String()
	}

	c := client.New(*addr, client.WithAPIKey(*apiKey))
	session := client.NewSession(c, uuid.New().String())

	prompt := color.New(color.FgGreen, color.Bold)
	assistant := color.New(color.FgCyan)
	errc := color.New(color.FgRed)

	fmt.Println("Pendo Climate Economy Assistant. Empty line or Ctrl-D to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		prompt.Print("you> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}

		assistant.Print("pendo> ")
		_, err := session.Send(context.Background(), line, *userID, func(token string) {
			assistant.Print(token)
		})
		fmt.Println()

		if err != nil && !errors.Is(err, client.ErrSuperseded) {
			errc.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}
