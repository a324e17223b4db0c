package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Davi2004/TarefasPlus/client"
	"github.com/Davi2004/TarefasPlus/share"
)

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			session := client.NewSession()
			state, err := session.Resolve(cmd.Context(), c)
			if err != nil {
				return err
			}
			id, ok := state.Identity()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), state.Status)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", id.Name, id.Email)
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow your task list as it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s := client.NewSynchronizer(c, notifierFor(cmd), a.logger)
			done := make(chan error, 1)
			go func() { done <- s.Run(ctx) }()
			for {
				select {
				case err := <-done:
					return err
				case tasks := <-s.Updates():
					fmt.Fprintln(cmd.OutOrStdout(), "---")
					printTasks(cmd.OutOrStdout(), tasks)
				}
			}
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var public bool
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Register a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			s := client.NewSynchronizer(c, notifierFor(cmd), a.logger)
			return s.Create(cmd.Context(), strings.Join(args, " "), public)
		},
	}
	cmd.Flags().BoolVar(&public, "public", false, "make the task public")
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete one of your tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			s := client.NewSynchronizer(c, notifierFor(cmd), a.logger)
			return s.Delete(cmd.Context(), args[0])
		},
	}
}

func loadThread(cmd *cobra.Command, a *app, taskID string) (*client.CommentThread, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	session := client.NewSession()
	if _, err := session.Resolve(cmd.Context(), c); err != nil {
		return nil, err
	}
	thread := client.NewCommentThread(c, session, notifierFor(cmd), a.logger)
	if err := thread.Load(cmd.Context(), taskID); err != nil {
		return nil, err
	}
	return thread, nil
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a public task and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			thread, err := loadThread(cmd, a, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			task := thread.Task()
			fmt.Fprintf(out, "%s\n%s (%s)\n\n", task.Text, task.User, task.Created)
			comments := thread.Comments()
			if len(comments) == 0 {
				fmt.Fprintln(out, "Nenhum comentário foi encontrado...")
				return nil
			}
			for _, c := range comments {
				mark := ""
				if thread.CanDelete(c) {
					mark = " *"
				}
				fmt.Fprintf(out, "%s\t%s: %s%s\n", c.ID, c.AuthorName, c.Text, mark)
			}
			return nil
		},
	}
}

func newCommentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <task-id> <text>",
		Short: "Comment on a public task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			thread, err := loadThread(cmd, a, args[0])
			if err != nil {
				return err
			}
			return thread.Append(cmd.Context(), strings.Join(args[1:], " "))
		},
	}
}

func newUncommentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uncomment <task-id> <comment-id>",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			thread, err := loadThread(cmd, a, args[0])
			if err != nil {
				return err
			}
			return thread.Remove(cmd.Context(), args[1])
		},
	}
}

func newShareCmd(a *app) *cobra.Command {
	var via string
	cmd := &cobra.Command{
		Use:   "share <task-id>",
		Short: "Print a share link for a public task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := share.ParseStrategy(via)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			action, err := c.Share(cmd.Context(), args[0], strategy, share.Capabilities{})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch action.Kind {
			case share.KindOpenURL:
				fmt.Fprintln(out, action.Href)
			case share.KindCopy:
				fmt.Fprintln(out, action.URL)
				fmt.Fprintln(cmd.ErrOrStderr(), action.Notice)
			case share.KindSkip:
				fmt.Fprintf(cmd.ErrOrStderr(), "%s share is not available here\n", action.Strategy)
			default:
				fmt.Fprintln(out, action.URL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&via, "via", share.Clipboard.String(), "share strategy (email, native, whatsapp, clipboard)")
	return cmd
}
