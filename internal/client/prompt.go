package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/atinyakov/catsapi/internal/models"
)

// Prompter reads answers to interactive questions line by line.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPrompter returns a Prompter reading from in and writing questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// Ask prints question and returns the trimmed answer. ok is false on EOF.
func (p *Prompter) Ask(question string) (answer string, ok bool) {
	fmt.Fprint(p.out, question)
	if !p.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}

// NewAccount asks for the registration fields.
func (p *Prompter) NewAccount() models.NewAccount {
	var in models.NewAccount
	in.FirstName, _ = p.Ask("First name: ")
	in.LastName, _ = p.Ask("Last name: ")
	in.Password, _ = p.Ask("Password: ")
	in.Email, _ = p.Ask("Email (optional): ")
	return in
}

// Credentials asks for a username and password.
func (p *Prompter) Credentials() (username, password string) {
	username, _ = p.Ask("Username: ")
	password, _ = p.Ask("Password: ")
	return username, password
}
