package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/catsapi/internal/client"
)

var (
	version   string
	buildDate string
)

// shell holds the state of an interactive session.
type shell struct {
	api         *client.API
	sessionPath string
	prompt      *client.Prompter
	out         io.Writer
}

// repl runs the interactive shell loop, accepting account and breed commands.
// Commands and follow-up questions are read through the same Prompter.
func (s *shell) repl() {
	for {
		line, ok := s.prompt.Ask("cats> ")
		if !ok {
			break
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(s.out, "Bye")
			return
		}
		if err := s.run(args); err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
	}
}

// run executes a single command.
func (s *shell) run(args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, "Available commands: help, register, login, logout, me, search [query] [limit], exit")
	case "register":
		acc, err := s.api.Register(ctx, s.prompt.NewAccount())
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Registered as %s\n", acc.Username)
	case "login":
		user, pass := s.prompt.Credentials()
		resp, err := s.api.Login(ctx, user, pass)
		if err != nil {
			return err
		}
		sess := &client.Session{Username: resp.User.Username, AccessToken: resp.AccessToken, SavedAt: time.Now().UTC()}
		if err := sess.Save(s.sessionPath); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Logged in as %s\n", resp.User.Username)
	case "logout":
		if err := client.ClearSession(s.sessionPath); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Logged out")
	case "me":
		sess, err := client.LoadSession(s.sessionPath)
		if err != nil {
			return err
		}
		acc, err := s.api.Me(ctx, sess.AccessToken)
		if err != nil {
			return err
		}
		return s.print(acc)
	case "search":
		var query string
		limit := 0
		if len(args) > 1 {
			query = args[1]
		}
		if len(args) > 2 {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return errors.New("usage: search [query] [limit]")
			}
			limit = n
		}
		out, err := s.api.SearchBreeds(ctx, query, limit)
		if err != nil {
			return err
		}
		return s.print(out)
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func (s *shell) print(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, string(b))
	return nil
}

// main parses command-line flags and starts the shell.
func main() {
	var (
		baseURL     string
		caFile      string
		sessionPath string
		showVer     bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8001", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to CA cert for HTTPS servers")
	flag.StringVar(&sessionPath, "session", ".cats-session.json", "path to the saved access token")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Cats API Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	httpClient, err := client.NewHTTPClient(caFile)
	if err != nil {
		log.Fatal(err)
	}

	s := &shell{
		api:         client.New(baseURL, httpClient),
		sessionPath: sessionPath,
		prompt:      client.NewPrompter(os.Stdin, os.Stdout),
		out:         os.Stdout,
	}
	s.repl()
}
