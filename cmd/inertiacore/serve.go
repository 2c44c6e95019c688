package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"go.inout.gg/inertiacore"
	"go.inout.gg/inertiacore/contrib/inertiavalidationerrors"
	"go.inout.gg/inertiacore/inertiaframe"
	"go.inout.gg/inertiacore/inertiaprops"
)

//go:embed templates/*.html
var templates embed.FS

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	addr       string
	version    string
	ssrURL     string
	ssrTimeout time.Duration
	ssr        bool
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&opts.version, "version", version, "asset version sent to clients")
	cmd.Flags().BoolVar(&opts.ssr, "ssr", false, "enable server-side rendering")
	cmd.Flags().StringVar(&opts.ssrURL, "ssr-url", inertiacore.DefaultSSRURL, "SSR service endpoint")
	cmd.Flags().DurationVar(&opts.ssrTimeout, "ssr-timeout", inertiacore.DefaultSSRTimeout, "SSR dispatch timeout")

	return cmd
}

func serve(ctx context.Context, opts *serveOptions) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f, err := newFactory(opts, reg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//nolint:exhaustruct
	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           newRouter(f, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("listening", slog.String("addr", opts.addr), slog.Bool("ssr", opts.ssr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("inertiacore: server failed: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("inertiacore: failed to shut down: %w", err)
	}

	return nil
}

func newFactory(opts *serveOptions, reg prometheus.Registerer, logger *slog.Logger) (*inertiacore.Factory, error) {
	//nolint:exhaustruct
	config := &inertiacore.Config{
		Logger: logger,
		SSR: inertiacore.SSRConfig{
			Enabled: opts.ssr,
			URL:     opts.ssrURL,
			Timeout: opts.ssrTimeout,
		},
	}

	if opts.version != "" {
		config.Version = inertiacore.VersionString(opts.version)
	}

	if opts.ssr {
		config.Gateway = inertiacore.NewHTTPGateway(nil, &inertiacore.GatewayConfig{ //nolint:exhaustruct
			Metrics: inertiacore.NewSSRMetrics(reg, inertiacore.DefaultMetricsNamespace),
		})
	}

	f, err := inertiacore.FromFS(templates, "templates/app.html", config)
	if err != nil {
		return nil, fmt.Errorf("inertiacore: failed to create factory: %w", err)
	}

	return f, nil
}

func newRouter(f *inertiacore.Factory, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})) //nolint:exhaustruct

	r.Group(func(r chi.Router) {
		r.Use(f.Middleware())
		r.Use(shareAppProps)

		r.Get("/", homeHandler)
		r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
			_ = f.Location("https://inertiajs.com").Write(w, r)
		})

		inertiaframe.Mount(r, &contactPageEndpoint{}, nil)
		inertiaframe.Mount(r, &contactSubmitEndpoint{}, &inertiaframe.MountOpts{ //nolint:exhaustruct
			Validator: inertiaframe.ValidatorFunc(validateContact),
		})
	})

	return r
}

// shareAppProps shares props rendered on every page.
func shareAppProps(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = inertiacore.ShareMap(r, map[string]any{
			"app":       "inertiacore",
			"requestId": inertiacore.Always(middleware.GetReqID(r.Context())),
		})

		next.ServeHTTP(w, r)
	})
}

func homeHandler(w http.ResponseWriter, r *http.Request) {
	inertiacore.MustRender(w, r, "Home", inertiaprops.Map{
		"greeting": "Hello from inertiacore",
		"stats": inertiacore.NewLazy(inertiacore.LazyFunc(func(context.Context) (any, error) {
			return map[string]any{"goroutines": runtime.NumGoroutine()}, nil
		})).Concurrent(),
		"serverTime": inertiacore.NewLazy(inertiacore.LazyFunc(func(context.Context) (any, error) {
			return time.Now().UTC().Format(time.RFC3339), nil
		})).Concurrent(),
	})
}

type contactPage struct {
	Title string `inertia:"title"`
}

func (*contactPage) Component() string { return "Contact" }

type contactPageEndpoint struct{}

func (*contactPageEndpoint) Meta() *inertiaframe.Meta {
	return &inertiaframe.Meta{Method: http.MethodGet, Path: "/contact"}
}

func (*contactPageEndpoint) Execute(
	context.Context,
	*inertiaframe.Request[struct{}],
) (*inertiaframe.Response, error) {
	return inertiaframe.NewResponse(&contactPage{Title: "Contact us"}, &inertiaframe.ResponseConfig{ //nolint:exhaustruct
		ViewData: "Contact",
	}), nil
}

type contactForm struct {
	Email   string `form:"email"   json:"email"`
	Message string `form:"message" json:"message"`
}

type contactSubmitEndpoint struct{}

func (*contactSubmitEndpoint) Meta() *inertiaframe.Meta {
	return &inertiaframe.Meta{Method: http.MethodPost, Path: "/contact"}
}

func (*contactSubmitEndpoint) Execute(
	context.Context,
	*inertiaframe.Request[contactForm],
) (*inertiaframe.Response, error) {
	return inertiaframe.NewRedirectResponse("/"), nil
}

func validateContact(v any) error {
	form, ok := v.(*contactForm)
	if !ok {
		return nil
	}

	errs := inertiavalidationerrors.MapError{}
	if form.Email == "" {
		errs["email"] = "Email is required"
	}

	if form.Message == "" {
		errs["message"] = "Message is required"
	}

	if errs.Len() > 0 {
		return errs
	}

	return nil
}
