// Command chatcli is a terminal client: it logs in, follows one channel and
// sends every line typed on stdin to it.
//
//	chatcli -server http://localhost:3001 -email alice@example.com -channel <id>
//
// The password is read from CHAT_PASSWORD when -password is not given.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/akinalp/cordlite/chatclient"
	"github.com/akinalp/cordlite/models"
	"github.com/akinalp/cordlite/pkg/logger"
)

func main() {
	server := flag.String("server", "http://localhost:3001", "chat server base URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", os.Getenv("CHAT_PASSWORD"), "account password")
	channel := flag.String("channel", "", "channel id to follow")
	logLevel := flag.String("log-level", "warn", "client log level")
	flag.Parse()

	if *email == "" || *password == "" || *channel == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := logger.Initialize(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *server, *email, *password, *channel, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, server, email, password, channelID string, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	api := chatclient.NewAPI(server, nil)
	user, err := api.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Fprintf(out, "* logged in as %s\n", user.Username)

	session := chatclient.NewSession(api)
	if err := session.Activate(ctx, channelID); err != nil {
		return err
	}

	stream := chatclient.NewStream(wsURL(server), api.Token, session)
	streamErr := make(chan error, 1)
	go func() { streamErr <- stream.Run(ctx) }()
	defer stream.Close()

	printer := newPrinter(out)
	printer.flush(session)

	lines := readLines(ctx, in)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-streamErr:
			return err
		case <-session.Updates():
			printer.flush(session)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if err := session.Send(ctx, line); err != nil {
				fmt.Fprintf(out, "* send failed: %v\n", err)
			}
		}
	}
}

// readLines delivers each line of in until EOF or until ctx is done. A reader
// blocked in Read (a terminal) keeps its goroutine until the read returns,
// but a line is never left waiting for a receiver that has gone.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// wsURL maps http(s)://host to ws(s)://host/ws.
func wsURL(server string) string {
	u := strings.TrimRight(server, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

// printer writes each message and system entry once.
type printer struct {
	out       io.Writer
	printed   map[string]struct{}
	systemN   int
	connected bool
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out, printed: make(map[string]struct{})}
}

func (p *printer) flush(s *chatclient.Session) {
	if c := s.Connected(); c != p.connected {
		p.connected = c
		if c {
			fmt.Fprintln(p.out, "* connected")
		} else {
			fmt.Fprintln(p.out, "* disconnected, reconnecting")
		}
	}

	system := s.SystemLog()
	for _, e := range system[p.systemN:] {
		fmt.Fprintf(p.out, "* %s: %s\n", e.Type, e.Message)
	}
	p.systemN = len(system)

	for _, m := range s.Messages() {
		if _, ok := p.printed[m.ID]; ok {
			continue
		}
		p.printed[m.ID] = struct{}{}
		fmt.Fprintln(p.out, formatMessage(m))
	}
}

func formatMessage(m models.Message) string {
	return fmt.Sprintf("[%s] %s: %s", m.CreatedAt.Local().Format("15:04:05"), m.Author.Username, m.Content)
}
