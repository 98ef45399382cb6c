package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/dextint/internal/colour"
	"github.com/jmylchreest/dextint/internal/config"
	"github.com/jmylchreest/dextint/internal/eventbus"
	imageutil "github.com/jmylchreest/dextint/internal/image"
	"github.com/jmylchreest/dextint/internal/theme"
	httputil "github.com/jmylchreest/dextint/internal/util/http"
)

// themeOptions holds the theme command flags that are not part of Config.
type themeOptions struct {
	cards         []string
	navbarDefault string
	resetRoute    string
	preview       bool
}

// card is a parsed --card flag.
type card struct {
	id     string
	source string
}

func newThemeCmd(global *globalOptions) *cobra.Command {
	opts := &themeOptions{}

	cmd := &cobra.Command{
		Use:   "theme <source>...",
		Short: "Run a theming session and print every repaint",
		Long: `Run a theming session against an in-process event bus.

The navigation bar and card listeners are mounted, every --card is registered
with its accent colour, and each detail source is propagated in turn as if
the user navigated through them. Every repaint is printed as it happens.

Examples:
  # Theme the navbar from one detail image
  dextint theme https://img.example/official-artwork/25.png

  # Register two cards, then navigate to a detail page
  dextint theme --card 1=art/1.png --card 4=art/4.png art/25.png

  # Navigate through three pages quickly; with --debounce only the last one paints
  dextint theme --debounce art/1.png art/4.png art/7.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTheme(cmd, global, opts, args)
		},
	}

	cfg := config.Default()
	cfg.BindFlags(cmd.Flags())
	cfg.BindThemeFlags(cmd.Flags())
	cmd.Flags().StringArrayVar(&opts.cards, "card", nil, "register a card as id=source (repeatable)")
	cmd.Flags().StringVar(&opts.navbarDefault, "navbar-default", "#3c5aa6", "navbar colour before theming and after a reset")
	cmd.Flags().StringVar(&opts.resetRoute, "reset", "", "publish a navbar reset for this route at the end of the session")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "show colour swatches in terminal")

	return cmd
}

func parseCards(values []string) ([]card, error) {
	cards := make([]card, 0, len(values))
	for _, v := range values {
		id, source, ok := strings.Cut(v, "=")
		id, source = strings.TrimSpace(id), strings.TrimSpace(source)
		if !ok || id == "" || source == "" {
			return nil, fmt.Errorf("invalid card %q (expected id=source)", v)
		}
		cards = append(cards, card{id: id, source: source})
	}
	return cards, nil
}

// paintWriter prints repaints as aligned lines.
type paintWriter struct {
	mu      sync.Mutex
	out     io.Writer
	preview bool
}

func (p *paintWriter) paint(region string, c colour.Colour) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := padRight(region, 20) + "  " + c.String()
	if p.preview {
		line += "  " + swatch(c)
	}
	fmt.Fprintln(p.out, line)
}

func runTheme(cmd *cobra.Command, global *globalOptions, opts *themeOptions, args []string) error {
	cards, err := parseCards(opts.cards)
	if err != nil {
		return err
	}
	navDefault, err := colour.ParseColour(opts.navbarDefault)
	if err != nil {
		return fmt.Errorf("invalid --navbar-default: %w", err)
	}

	cfg, err := global.resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := global.logger(cmd.ErrOrStderr())
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var faults atomic.Int32
	bus := eventbus.New(
		eventbus.WithLogger(logger.Named("bus")),
		eventbus.WithFaultHandler(func(eventbus.Topic, any) { faults.Add(1) }),
	)
	defer bus.Dispose()

	painter := &paintWriter{out: out, preview: opts.preview && isTerminal(out)}
	nav := theme.NewNavbar(bus, navDefault, painter.paint)
	defer nav.Close()
	accents := theme.NewCardAccents(bus, painter.paint)
	defer accents.Close()

	var expired atomic.Bool
	eventbus.On(bus, func(e eventbus.SessionExpired) {
		if expired.CompareAndSwap(false, true) {
			logger.Warn("session expired", "message", e.Message)
		}
	})

	svc, err := newService(cfg, logger, sessionFetch(bus, cfg))
	if err != nil {
		return err
	}
	prop, err := theme.NewPropagator(svc, bus,
		theme.WithDelay(cfg.PropagationDelay),
		theme.WithDebounce(cfg.Debounce),
		theme.WithLogger(logger.Named("theme")),
	)
	if err != nil {
		return err
	}

	for _, c := range cards {
		prop.RegisterCard(ctx, c.id, c.source, c.id)
	}

	last := args[len(args)-1]
	published := make(chan struct{}, 1)
	sub := eventbus.On(bus, func(e eventbus.ColourChanged) {
		if e.Source == last {
			select {
			case published <- struct{}{}:
			default:
			}
		}
	})
	defer sub.Unsubscribe()

	for _, source := range args {
		res := prop.Propagate(ctx, source)
		logger.Debug("propagated", "source", source, "colour", res.Colour.String(), "fallback", res.Fallback)
	}
	if cfg.Debounce {
		waitPublished(ctx, published, cfg.PropagationDelay+time.Second, logger)
	}

	if opts.resetRoute != "" {
		bus.Publish(eventbus.NavbarReset{Route: opts.resetRoute})
	}

	if ids := accents.IDs(); len(ids) > 0 {
		fmt.Fprintln(out)
		table := NewTable("CARD", "ACCENT")
		for _, id := range ids {
			c, _ := accents.Colour(id)
			value := c.String()
			if painter.preview {
				value = labelled(c, value)
			}
			table.AddRow(id, value)
		}
		fmt.Fprint(out, table.Render())
	}

	if n := faults.Load(); n > 0 {
		logger.Warn("listeners failed during the session", "faults", n)
	}
	return nil
}

// sessionFetch retrieves remote images anonymously and announces a
// SessionExpired event when the server answers 401.
func sessionFetch(bus *eventbus.Bus, cfg *config.Config) imageutil.FetchFunc {
	return func(ctx context.Context, url string) ([]byte, error) {
		return httputil.Fetch(ctx, url, httputil.FetchOptions{
			Timeout:   cfg.HTTPTimeout,
			Anonymous: true,
			OnUnauthorized: func(url string) {
				bus.Publish(eventbus.SessionExpired{Message: "unauthorized response from " + url})
			},
		})
	}
}

func waitPublished(ctx context.Context, published <-chan struct{}, timeout time.Duration, logger hclog.Logger) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-published:
	case <-ctx.Done():
	case <-timer.C:
		logger.Warn("debounced propagation was not published in time")
	}
}
