package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Davi2004/TarefasPlus/client"
	"github.com/Davi2004/TarefasPlus/domain"
)

type app struct {
	BaseURL string
	Token   string
	Debug   bool

	logger *log.Logger
}

func (a *app) client() (*client.HTTP, error) {
	if a.BaseURL == "" {
		return nil, errors.New("missing --url (or TAREFAS_URL)")
	}
	return client.NewHTTP(a.BaseURL, a.Token), nil
}

func newRootCmd() *cobra.Command {
	_ = godotenv.Load(".env")
	a := &app{}

	cmd := &cobra.Command{
		Use:          "tarefas",
		Short:        "Tarefas+ command line client",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Follow your task list live
  tarefas watch

  # Register a public task
  tarefas add --public "Estudar Go"

  # Comment on a public task
  tarefas comment <task-id> "Muito bom"
`),
	}
	cmd.PersistentFlags().StringVar(&a.BaseURL, "url", os.Getenv("TAREFAS_URL"), "service base URL")
	cmd.PersistentFlags().StringVar(&a.Token, "token", os.Getenv("TAREFAS_TOKEN"), "ID token used as bearer credential")
	cmd.PersistentFlags().BoolVar(&a.Debug, "debug", false, "verbose logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		a.logger = log.New()
		a.logger.SetOutput(cmd.ErrOrStderr())
		if a.Debug {
			a.logger.SetLevel(log.DebugLevel)
		}
	}

	cmd.AddCommand(
		newWhoamiCmd(a),
		newWatchCmd(a),
		newAddCmd(a),
		newRmCmd(a),
		newShowCmd(a),
		newCommentCmd(a),
		newUncommentCmd(a),
		newShareCmd(a),
		newTokenCmd(),
	)
	return cmd
}

// printNotifier writes notifications to the command's output streams.
type printNotifier struct {
	out io.Writer
	err io.Writer
}

func (n printNotifier) Warn(msg string)    { fmt.Fprintln(n.err, msg) }
func (n printNotifier) Success(msg string) { fmt.Fprintln(n.out, msg) }

func notifierFor(cmd *cobra.Command) client.Notifier {
	return printNotifier{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()}
}

func printTasks(w io.Writer, tasks []domain.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "(nenhuma tarefa)")
		return
	}
	for _, t := range tasks {
		vis := "privada"
		if t.Public {
			vis = "pública"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, vis, t.Text)
	}
}
