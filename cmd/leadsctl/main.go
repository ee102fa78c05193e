package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/board"
	"github.com/sorrisoclinic/dental-crm/internal/client"
	"github.com/sorrisoclinic/dental-crm/internal/config"
	"github.com/sorrisoclinic/dental-crm/internal/entity"
	"github.com/sorrisoclinic/dental-crm/internal/logger"
	"github.com/sorrisoclinic/dental-crm/internal/notify"
)

const usage = `uso: leadsctl <comando> [argumentos]

comandos:
  notifications          leads novos desde a última leitura
  watch                  consulta periodicamente até Ctrl+C
  ack                    marca as notificações como lidas
  board                  mostra o quadro por status
  move <lead-id> <status> [-refetch]
                         move um lead no quadro
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.ClientConfig
	api    *client.Client
	logger *zap.Logger
	out    io.Writer
}

func run(ctx context.Context, cmd string, args []string, out io.Writer) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(os.Getenv("LOG_LEVEL"), "console", "leadsctl")
	if err != nil {
		return err
	}
	defer log.Sync()

	a := &app{
		cfg:    cfg,
		api:    client.New(cfg.APIURL, cfg.Token, cfg.RequestTimeout, log),
		logger: log,
		out:    out,
	}

	switch cmd {
	case "notifications":
		return a.notifications(ctx)
	case "watch":
		return a.watch(ctx)
	case "ack":
		return a.ack()
	case "board":
		return a.board(ctx)
	case "move":
		return a.move(ctx, args)
	default:
		return fmt.Errorf("comando desconhecido %q\n\n%s", cmd, usage)
	}
}

func (a *app) notifier() (*notify.Notifier, error) {
	dir, err := expandHome(a.cfg.StateDir)
	if err != nil {
		return nil, err
	}
	store, err := notify.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	n := notify.NewNotifier(a.api, store, a.logger)
	if a.cfg.PollInterval > 0 {
		n.Interval = a.cfg.PollInterval
	}
	return n, nil
}

func (a *app) notifications(ctx context.Context) error {
	n, err := a.notifier()
	if err != nil {
		return err
	}
	digest, err := n.Refresh(ctx)
	if err != nil {
		return err
	}
	printDigest(a.out, digest)
	return nil
}

func (a *app) watch(ctx context.Context) error {
	n, err := a.notifier()
	if err != nil {
		return err
	}
	n.OnDigest = func(d *entity.Digest) {
		fmt.Fprintf(a.out, "[%s] ", time.Now().Format("15:04"))
		printDigest(a.out, d)
	}
	n.Run(ctx)
	return nil
}

func (a *app) ack() error {
	n, err := a.notifier()
	if err != nil {
		return err
	}
	if err := n.MarkAsRead(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Notificações marcadas como lidas")
	return nil
}

func (a *app) board(ctx context.Context) error {
	leads, err := a.api.ListLeads(ctx)
	if err != nil {
		return err
	}
	c, err := board.NewController(leads, a.api, a.logger)
	if err != nil {
		return err
	}
	printBoard(a.out, c.Columns())
	return nil
}

func (a *app) move(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	refetch := fs.Bool("refetch", false, "recarrega o quadro se o servidor recusar")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("uso: leadsctl move [-refetch] <lead-id> <status>")
	}
	leadID, target := fs.Arg(0), fs.Arg(1)

	leads, err := a.api.ListLeads(ctx)
	if err != nil {
		return err
	}

	opts := []board.Option{board.WithTimeout(a.cfg.RequestTimeout)}
	if *refetch {
		opts = append(opts, board.WithFailurePolicy(board.RefetchOnFailure, a.api))
	}
	c, err := board.NewController(leads, a.api, a.logger, opts...)
	if err != nil {
		return err
	}

	if err := c.DragStart(leadID); err != nil {
		return err
	}
	issued, err := c.Drop(ctx, board.DropTarget{ColumnID: target})
	if err != nil {
		return err
	}
	if !issued {
		fmt.Fprintln(a.out, "Lead já está nessa coluna")
		return nil
	}

	c.Wait()
	st, _ := c.State(leadID)
	if st.Reconciliation == board.ReconFailed {
		return fmt.Errorf("servidor recusou a mudança, lead voltou para %q: %w", st.Lead.Status, st.Err)
	}
	fmt.Fprintf(a.out, "Lead %s movido para %s\n", leadID, st.Lead.Status)
	return nil
}

func printDigest(w io.Writer, d *entity.Digest) {
	if d.Count == 0 {
		fmt.Fprintln(w, "Nenhum lead novo")
		return
	}
	fmt.Fprintf(w, "%d lead(s) novo(s)\n", d.Count)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, l := range d.RecentLeads {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", l.CreatedAt.Local().Format("02/01 15:04"), l.Name, l.Treatment, l.Status)
	}
	tw.Flush()
}

func printBoard(w io.Writer, cols []board.Column) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, col := range cols {
		fmt.Fprintf(tw, "%s (%d)\n", col.Title, len(col.Leads))
		for _, l := range col.Leads {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", l.ID, l.Name, l.Treatment)
		}
	}
	tw.Flush()
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
