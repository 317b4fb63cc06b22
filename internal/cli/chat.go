package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petasbytes/go-assistant/internal/logger"
	"github.com/petasbytes/go-assistant/memory"
	"github.com/petasbytes/go-assistant/processor"
	"github.com/petasbytes/go-assistant/tools"
)

const (
	chatName         = "File Helper"
	chatInstructions = "You help users explore the files of their project. Use the tools to read files before answering."
)

func newChatCommand(a *app) *cobra.Command {
	var fresh bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively, resuming the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runChat(cmd.Context(), cmd.InOrStdin(), fresh)
		},
	}
	cmd.Flags().BoolVar(&fresh, "new", false, "ignore the saved session and start a new thread")
	return cmd
}

func (a *app) runChat(ctx context.Context, in io.Reader, fresh bool) error {
	sess := a.loadSession(ctx, fresh)
	if err := a.resume(ctx, sess); err != nil {
		return err
	}
	a.saveSession(sess)

	a.out.Banner(fmt.Sprintf("Chat with %s on thread %s (Ctrl-C to quit)", a.proc.Name(), sess.ThreadID))

	// stdin reader goroutine -> lines into channel
	scanner := bufio.NewScanner(in)
	inputCh := make(chan string)
	go func() {
		defer close(inputCh)
		for scanner.Scan() {
			select {
			case inputCh <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

outer:
	for {
		a.out.Prompt()
		var (
			user string
			ok   bool
		)
		select {
		case <-ctx.Done():
			a.out.Info("Exiting...")
			break outer
		case user, ok = <-inputCh:
			if !ok {
				break outer
			}
		}
		user = strings.TrimSpace(user)
		if user == "" {
			continue
		}

		reply, err := a.turn(ctx, sess, user)
		if err != nil {
			if ctx.Err() != nil {
				a.out.Info("Exiting...")
				break outer
			}
			logger.WithError(logger.FromContext(ctx), err).Warn("chat turn failed", "thread_id", sess.ThreadID)
			a.out.ErrorBox("Turn failed", err)
			continue
		}
		a.out.Reply("Assistant", reply)

		// Only the visible text of the turn is kept.
		sess.Append(processor.RoleUser, user)
		sess.Append(processor.RoleAssistant, reply.Text())
		a.saveSession(sess)
	}
	if err := scanner.Err(); err != nil {
		a.out.Warning("stdin read error: %v", err)
	}
	return nil
}

func (a *app) turn(ctx context.Context, sess *memory.Session, content string) (*processor.Message, error) {
	if _, err := a.proc.CreateMessage(ctx, sess.ThreadID, sess.AssistantID, content); err != nil {
		return nil, err
	}
	return a.proc.GetAssistantResponse(ctx, sess.ThreadID, 0)
}

func (a *app) loadSession(ctx context.Context, fresh bool) *memory.Session {
	if fresh {
		return &memory.Session{Provider: a.proc.Name()}
	}
	sess, err := memory.LoadSession(a.cfg.SessionPath)
	if err != nil {
		a.out.Warning("failed to load session: %v", err)
		return &memory.Session{Provider: a.proc.Name()}
	}
	if !sess.Matches(a.proc.Name()) {
		logger.FromContext(ctx).Info("session belongs to another provider; starting over", "session_provider", sess.Provider)
		return &memory.Session{Provider: a.proc.Name()}
	}
	sess.Provider = a.proc.Name()
	return sess
}

// resume makes sure sess names a usable assistant and thread. A thread that
// no longer exists is recreated and the saved transcript replayed into it.
func (a *app) resume(ctx context.Context, sess *memory.Session) error {
	fromSession := sess.AssistantID != ""
	if sess.AssistantID == "" {
		sess.AssistantID = a.cfg.AssistantID
	}

	if sess.ThreadID != "" {
		thread, err := a.proc.GetOrCreateThread(ctx, sess.ThreadID)
		switch {
		case err == nil:
			sess.ThreadID = thread.ID
			return a.ensureAssistant(ctx, sess)
		case errors.Is(err, processor.ErrNotFound):
			a.out.Warning("thread %s no longer exists; starting a new one", sess.ThreadID)
			sess.ThreadID = ""
			// Assistants saved alongside a lost thread are assumed lost too.
			if fromSession {
				sess.AssistantID = a.cfg.AssistantID
			}
		default:
			return err
		}
	}

	if err := a.ensureAssistant(ctx, sess); err != nil {
		return err
	}
	thread, err := a.proc.GetOrCreateThread(ctx, "")
	if err != nil {
		return err
	}
	sess.ThreadID = thread.ID
	if len(sess.Messages) > 0 {
		if err := a.proc.SetupNewThread(ctx, thread.ID, sess.Transcript()); err != nil {
			return fmt.Errorf("failed to replay transcript: %w", err)
		}
		a.out.Info("replayed %d messages into thread %s", len(sess.Messages), thread.ID)
	}
	return nil
}

func (a *app) ensureAssistant(ctx context.Context, sess *memory.Session) error {
	if sess.AssistantID != "" {
		return nil
	}
	asst, err := a.proc.CreateAssistant(ctx, processor.AssistantParams{
		Name:         chatName,
		Instructions: chatInstructions,
		Tools:        processor.NewFunctions(tools.Registry()).Tools(),
	})
	if err != nil {
		return err
	}
	a.out.Success("Created assistant %s (%s)", asst.Name, asst.ID)
	sess.AssistantID = asst.ID
	return nil
}

func (a *app) saveSession(sess *memory.Session) {
	if err := memory.SaveSession(a.cfg.SessionPath, sess); err != nil {
		a.out.Warning("failed to save session: %v", err)
	}
}
