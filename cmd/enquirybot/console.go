package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tbxark/enquirybot"
	"github.com/tbxark/enquirybot/agent"
	"github.com/tbxark/enquirybot/audit"
	"github.com/tbxark/enquirybot/dialogue"
)

const historyLimit = 5

// fillHistory lists past form fills of a conversation; *audit.Store implements it.
type fillHistory interface {
	ListFills(ctx context.Context, conversation string, limit int) ([]audit.Fill, error)
}

// runConsole chats with one user over a terminal until input ends. history
// may be nil when auditing is disabled.
func runConsole(ctx context.Context, bot *enquirybot.Bot, history fillHistory, in io.Reader, out io.Writer) error {
	id := uuid.NewString()
	reader := bufio.NewReader(in)

	last, err := bot.Start(ctx, id)
	if err != nil {
		return err
	}
	printResponse(out, last)
	for ctx.Err() == nil {
		_, _ = fmt.Fprint(out, "You: ")
		line, rErr := reader.ReadString('\n')
		if rErr != nil && line == "" {
			_, _ = fmt.Fprintln(out, "\nInput closed. Bye.")
			return nil
		}
		input := strings.TrimSpace(line)

		var resp *agent.Response
		switch input {
		case "/help":
			_, _ = fmt.Fprintf(out, "\nKelvin: %s\n/history - Show your recent form fills\n", dialogue.HelpText)
			continue
		case "/history":
			printHistory(ctx, out, history, id)
			continue
		case "/start":
			resp, err = bot.Start(ctx, id)
		case "/cancel":
			resp, err = bot.Handle(ctx, id, agent.CancelEvent())
		default:
			resp, err = bot.Handle(ctx, id, resolveInput(input, last))
		}
		if err != nil {
			return err
		}
		printResponse(out, resp)
		last = resp
	}
	return nil
}

// resolveInput turns a menu number or button label into a button event
// when the previous reply offered buttons.
func resolveInput(input string, last *agent.Response) agent.Event {
	if last == nil || len(last.Messages) == 0 {
		return agent.TextEvent(input)
	}
	msg := last.Messages[len(last.Messages)-1]
	if !msg.HasButtons() {
		return agent.TextEvent(input)
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(msg.Buttons) {
		return agent.ButtonEvent(msg.Buttons[n-1].Value)
	}
	for _, b := range msg.Buttons {
		if strings.EqualFold(b.Label, input) {
			return agent.ButtonEvent(b.Value)
		}
	}
	return agent.TextEvent(input)
}

func printResponse(out io.Writer, resp *agent.Response) {
	for _, msg := range resp.Messages {
		_, _ = fmt.Fprintf(out, "\nKelvin: %s\n", msg.Text)
		for i, b := range msg.Buttons {
			_, _ = fmt.Fprintf(out, "  [%d] %s\n", i+1, b.Label)
		}
	}
	_, _ = fmt.Fprintln(out, "======")
}

func printHistory(ctx context.Context, out io.Writer, history fillHistory, id string) {
	if history == nil {
		_, _ = fmt.Fprintln(out, "\nAuditing is disabled.")
		return
	}
	fills, err := history.ListFills(ctx, id, historyLimit)
	if err != nil {
		_, _ = fmt.Fprintf(out, "\nFailed to load history: %v\n", err)
		return
	}
	if len(fills) == 0 {
		_, _ = fmt.Fprintln(out, "\nNo form fills yet.")
		return
	}
	for _, f := range fills {
		line := fmt.Sprintf("%s  %s  %s", f.StartedAt.Local().Format("2006-01-02 15:04:05"), f.Outcome, f.URL)
		if f.Error != "" {
			line += "  (" + f.Error + ")"
		}
		_, _ = fmt.Fprintln(out, line)
	}
}
