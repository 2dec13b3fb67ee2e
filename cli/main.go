// Package main provides the terminal chat client for an agent.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/xiaot623/agentdesk/internal/adapter/agentclient"
	"github.com/xiaot623/agentdesk/internal/adapter/runclient"
	"github.com/xiaot623/agentdesk/internal/chat"
	"github.com/xiaot623/agentdesk/internal/config"
	"github.com/xiaot623/agentdesk/internal/render"
	"github.com/xiaot623/agentdesk/internal/trace"
)

func main() {
	cfg := config.Load()

	agentID := flag.String("agent", "default", "Agent ID to chat with")
	agentURL := flag.String("agent-url", cfg.AgentAPIURL, "Agent API base URL")
	apiKey := flag.String("api-key", cfg.AgentAPIKey, "Agent API key")
	traceURL := flag.String("trace-url", cfg.TraceAPIURL, "Trace API base URL")
	traceKey := flag.String("trace-key", cfg.TraceAPIKey, "Trace API key")
	width := flag.Int("width", 100, "Markdown wrap width")
	style := flag.String("style", "", "Markdown style (dark, light, notty); detected when empty")
	flag.Parse()

	log.SetFlags(log.Ltime)

	var opts []render.Option
	if *style != "" {
		opts = append(opts, render.WithStyle(*style))
	}
	renderer, err := render.New(*width, opts...)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}

	view := newChatView(os.Stdout, renderer)
	session := chat.NewSession(*agentID, agentclient.NewClient(*agentURL, *apiKey), chat.WithListener(view.OnSnapshot))
	panel := trace.NewPanel(trace.NewCache(runclient.NewClient(*traceURL, *traceKey)), *agentID)

	fmt.Printf("Chatting with %s\n", *agentID)
	fmt.Println("Commands: /new /trace /chat /refresh /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "/quit":
			fmt.Println("Bye!")
			return

		case "/new":
			session.NewSession()
			fmt.Println("New session created")

		case "/trace":
			entries, err := panel.Activate(context.Background())
			if err != nil {
				log.Printf("Failed to load trace: %v", err)
				continue
			}
			view.ShowTrace(entries)

		case "/refresh":
			entries, err := panel.Refresh(context.Background())
			if err != nil {
				log.Printf("Failed to load trace: %v", err)
				continue
			}
			if panel.Active() {
				view.ShowTrace(entries)
			}

		case "/chat":
			panel.Deactivate()
			view.ShowChat(session.Snapshot())

		default:
			if panel.Active() {
				panel.Deactivate()
				view.ShowChat(session.Snapshot())
			}
			submit(session, input)
		}
	}
}

// submit streams one turn; Ctrl+C cancels the stream.
func submit(session *chat.Session, input string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := session.Submit(ctx, input)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		fmt.Println("(cancelled)")
	default:
		log.Printf("Stream closed with error: %v", err)
	}
}
