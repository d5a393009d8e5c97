package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"legalaid-admin/config"
	"legalaid-admin/internal/apiclient"
	"legalaid-admin/internal/chatstore"
	"legalaid-admin/internal/domain"
	"legalaid-admin/internal/policy"
	"legalaid-admin/internal/session"
	"legalaid-admin/internal/transport"
	"legalaid-admin/pkg/logger"
)

// adminchat is a terminal client for the support-queries screen: list the
// inbound queries, open one, chat with the submitter, close it.
func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)

	ctx := context.Background()

	api := apiclient.New(cfg.APIBaseURL, l)
	admin, err := api.Login(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to log in: %v", err)
	}
	l.Infof("logged in as %s", admin.Email)

	header := http.Header{}
	if cookie := api.CookieHeader(); cookie != "" {
		header.Set("Cookie", cookie)
	}

	store := chatstore.New()
	t := transport.New(cfg.SocketURL, transport.Options{
		ReconnectAttempts: cfg.ReconnectAttempts,
		ReconnectDelay:    cfg.ReconnectDelay,
		Header:            header,
	}, l)

	coupling := policy.NewStatusCoupling(api, l)
	ctrl := session.NewController(t, store, coupling, admin.ID, l)

	t.OnChatHistory(ctrl.HandleHistory)
	t.OnMessageReceived(func(msg domain.Message) {
		ctrl.HandleMessage(msg)
		if msg.SenderRole == domain.RoleClient {
			fmt.Printf("\n[%s] %s\n> ", msg.CreatedAt.Format("15:04"), msg.Body)
		}
	})
	t.OnMessageStatus(ctrl.HandleStatusUpdate)
	t.OnOnlineUsers(store.SetOnlineUsers)
	t.OnConnectionState(func(connected bool) {
		if !connected {
			fmt.Println("\n-- disconnected from gateway; messages cannot be sent --")
		}
	})

	if err := t.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect socket: %v", err)
	}
	defer t.Close()

	queries, err := api.ListQueries(ctx)
	if err != nil {
		log.Fatalf("Failed to list queries: %v", err)
	}
	printQueries(queries)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cmd, rest, _ := strings.Cut(line, " ")

		switch cmd {
		case "list":
			queries, err = api.ListQueries(ctx)
			if err != nil {
				fmt.Println("error:", err)
				break
			}
			printQueries(queries)
			if active, ok := ctrl.ActiveQuery(); ok {
				for _, q := range queries {
					if q.ID == active.ID {
						ctrl.ApplyQueryStatus(q.ID, q.Status)
					}
				}
			}

		case "open":
			idx, err := strconv.Atoi(rest)
			if err != nil || idx < 1 || idx > len(queries) {
				fmt.Println("usage: open <number>")
				break
			}
			q := queries[idx-1]
			if err := ctrl.Select(ctx, q); err != nil {
				fmt.Println("error:", err)
				break
			}
			fmt.Printf("opened %q (%s)\n", q.Subject, q.Status)

		case "send":
			if err := ctrl.Send(ctx, rest); err != nil {
				fmt.Println("error:", err)
			}

		case "history":
			if active, ok := ctrl.ActiveQuery(); ok {
				for _, m := range store.Messages(active.ID) {
					fmt.Printf("[%s] %-6s %s (%s)\n", m.CreatedAt.Format("15:04"), m.SenderRole, m.Body, m.Status)
				}
			}

		case "close":
			if err := ctrl.CloseConversation(ctx); err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Println("conversation closed")
			}

		case "online":
			for _, u := range store.OnlineUsers() {
				fmt.Printf("%s (%s)\n", u.FullName, u.Role)
			}

		case "quit", "exit":
			_ = api.Logout(ctx)
			return

		case "":
		default:
			fmt.Println("commands: list, open <n>, send <text>, history, close, online, quit")
		}
		fmt.Print("> ")
	}
}

func printQueries(queries []domain.Query) {
	for i, q := range queries {
		fmt.Printf("%2d. [%-11s] %-8s %s (%s)\n", i+1, q.Status, q.UrgencyLevel, q.Subject, q.FullName)
	}
}
