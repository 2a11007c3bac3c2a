// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/legalguru/legalguru-tui/internal/config"
	"github.com/legalguru/legalguru-tui/internal/gateway"
	"github.com/legalguru/legalguru-tui/internal/session"
	"github.com/legalguru/legalguru-tui/internal/storage"
)

// =============================================================================
// PLAIN-TERMINAL CHAT REPL
// =============================================================================

// historyFile holds the REPL input history, relative to the config directory.
const historyFile = "chat_history"

const replHelp = `Commands:
  /help            Show this help
  /reset           Start a new conversation
  /mode [name]     Show or switch mode (chat, document, research, contract)
  /sessions        List saved conversations
  /load ID         Continue a saved conversation
  /quit            Exit

Anything else is sent to the assistant.`

// HandleChat runs the line-oriented chat loop. It is the fallback surface
// for terminals where the full-screen TUI is unwanted, and the only surface
// for non-interactive stdin.
func HandleChat(cfg *config.Config, args []string) error {
	parser := NewArgParser(args)

	sess, store, err := BuildSession(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	if mode := parser.Flag("mode"); mode != "" {
		sess.SwitchMode(gateway.ParseMode(mode))
	}

	repl := newREPL(sess, store)
	defer repl.close()

	fmt.Printf("LegalGuru %s (%s mode). Type /help for commands.\n", Version, sess.Mode())
	fmt.Printf("%s\n\n", strings.Repeat("─", min(TerminalWidth(), 72)))
	repl.printLatest()

	for {
		input, err := repl.line.Prompt("> ")
		if err != nil {
			// Ctrl-C aborts the prompt, Ctrl-D ends the stream.
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		repl.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := repl.command(input); quit {
				return nil
			}
			continue
		}

		repl.send(input)
	}
}

// repl bundles the REPL state: the liner instance plus the bookkeeping
// needed to print streamed deltas incrementally.
type repl struct {
	sess  *session.Session
	store *storage.Store
	line  *liner.State

	mu sync.Mutex
	// printed is how many bytes of the in-progress assistant message have
	// already been written to the terminal.
	printed int
}

func newREPL(sess *session.Session, store *storage.Store) *repl {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	if dir, err := config.ConfigDir(); err == nil {
		if f, err := os.Open(filepath.Join(dir, historyFile)); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}

	return &repl{sess: sess, store: store, line: line}
}

func (r *repl) close() {
	if dir, err := config.ConfigDir(); err == nil {
		if err := os.MkdirAll(dir, 0700); err == nil {
			if f, err := os.Create(filepath.Join(dir, historyFile)); err == nil {
				_, _ = r.line.WriteHistory(f)
				f.Close()
			}
		}
	}
	r.line.Close()
}

// send streams one reply, printing deltas as they arrive. The change
// callback fires on the stream goroutine; printing tracks how much of the
// in-progress message is already on screen and emits only the suffix.
func (r *repl) send(text string) {
	r.mu.Lock()
	r.printed = 0
	r.mu.Unlock()

	r.sess.SetOnChange(r.printDelta)
	defer r.sess.SetOnChange(nil)

	if err := r.sess.Send(context.Background(), text); err != nil {
		// The transcript already carries the apology turn; the raw error
		// goes to the log only.
		log.Printf("REPL_ERROR | error=%v", err)
	}

	r.printFinal()
	fmt.Print("\n\n")
}

func (r *repl) printDelta() {
	msgs := r.sess.Messages()
	if len(msgs) == 0 || !r.sess.IsBusy() {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != gateway.RoleAssistant {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(last.Content) > r.printed {
		fmt.Print(last.Content[r.printed:])
		r.printed = len(last.Content)
	}
}

// printFinal emits whatever the finalized reply has beyond what streamed,
// which is the whole apology when the send failed.
func (r *repl) printFinal() {
	msgs := r.sess.Messages()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != gateway.RoleAssistant {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(last.Content) > r.printed {
		fmt.Print(last.Content[r.printed:])
		r.printed = len(last.Content)
	}
}

// printLatest prints the trailing assistant message, used for the greeting
// and after /reset or /load.
func (r *repl) printLatest() {
	msgs := r.sess.Messages()
	if len(msgs) == 0 {
		return
	}
	if last := msgs[len(msgs)-1]; last.Role == gateway.RoleAssistant {
		fmt.Printf("%s\n\n", last.Content)
	}
}

// command dispatches one slash command. Returns true to exit the loop.
func (r *repl) command(input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/help":
		fmt.Println(replHelp)

	case "/reset":
		r.sess.Reset()
		fmt.Println("Conversation reset.")
		r.printLatest()

	case "/mode":
		if len(fields) < 2 {
			fmt.Printf("Current mode: %s\n", r.sess.Mode())
			break
		}
		r.sess.SwitchMode(gateway.ParseMode(fields[1]))
		fmt.Printf("Switched to %s mode. Conversation reset.\n", r.sess.Mode())
		r.printLatest()

	case "/sessions":
		r.listSessions()

	case "/load":
		if len(fields) < 2 {
			fmt.Println("Usage: /load CONVERSATION_ID")
			break
		}
		if err := r.sess.LoadConversation(context.Background(), fields[1]); err != nil {
			fmt.Printf("Failed to load conversation: %v\n", err)
			break
		}
		fmt.Printf("Continuing conversation %s (%s mode).\n\n", fields[1], r.sess.Mode())
		r.printTranscript()

	case "/quit", "/exit", "/q":
		return true

	default:
		fmt.Printf("Unknown command %s. Type /help for commands.\n", fields[0])
	}
	return false
}

func (r *repl) listSessions() {
	if r.store == nil {
		fmt.Println("Conversation storage is disabled.")
		return
	}
	identity, err := LoadIdentity()
	if err != nil || identity == nil {
		fmt.Println("Sign in with `legalguru login` to save conversations.")
		return
	}

	metas, err := r.store.ListConversations(context.Background(), identity.UserID)
	if err != nil {
		fmt.Printf("Failed to list conversations: %v\n", err)
		return
	}
	fmt.Println(storage.FormatConversationList(metas))
}

// printTranscript replays the loaded conversation, skipping the seed
// greeting that LoadConversation re-prepends.
func (r *repl) printTranscript() {
	msgs := r.sess.Messages()
	for i, msg := range msgs {
		if i == 0 && msg.Role == gateway.RoleAssistant && msg.Content == session.Greeting {
			continue
		}
		switch msg.Role {
		case gateway.RoleUser:
			fmt.Printf("> %s\n", msg.Content)
		default:
			fmt.Printf("%s\n\n", msg.Content)
		}
	}
}
