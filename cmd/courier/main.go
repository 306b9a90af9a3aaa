package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/webmail-courier/internal/compose"
	"github.com/ignite/webmail-courier/internal/config"
	"github.com/ignite/webmail-courier/internal/diag"
	"github.com/ignite/webmail-courier/internal/dispatch"
	"github.com/ignite/webmail-courier/internal/fragment"
	"github.com/ignite/webmail-courier/internal/hostfiles"
	"github.com/ignite/webmail-courier/internal/nativeclient"
	"github.com/ignite/webmail-courier/internal/pkg/logger"
	"github.com/ignite/webmail-courier/internal/session"
	"github.com/ignite/webmail-courier/internal/tracking"
	"github.com/ignite/webmail-courier/internal/tunnel"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		configPath     = flag.String("config", "config.yaml", "path to config file")
		recipientsPath = flag.String("recipients", "", "file with one recipient address per line")
		templatePath   = flag.String("template", "", "HTML template file")
		attachmentPath = flag.String("attachment", "", "optional attachment to send with each message")
	)
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	recipients, err := readRecipients(*recipientsPath)
	if err != nil {
		log.Fatalf("recipients: %v", err)
	}
	rawTemplate, err := os.ReadFile(*templatePath)
	if err != nil {
		log.Fatalf("template: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracking store and auto-reply rate gate.
	store := tracking.NewStore()
	var gate tracking.RateGate
	if cfg.Tracking.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Tracking.RedisAddr})
		defer client.Close()
		gate = tracking.NewRedisGate(client, cfg.Tracking.Cooldown())
	} else {
		gate = tracking.NewMemoryGate(cfg.Tracking.Cooldown())
	}

	// Browser session and compose engine.
	sessions := session.NewController(session.Config{
		DebuggerURL: cfg.Browser.DebuggerURL,
		Bin:         cfg.Browser.Bin,
		NavTimeout:  cfg.Browser.NavTimeout(),
	})
	defer sessions.Close()

	strategy, err := compose.ForProvider(cfg.Browser.Provider, cfg.Browser.MailboxURL)
	if err != nil {
		log.Fatalf("provider: %v", err)
	}
	engine := compose.NewEngine(sessions, strategy, diag.NewCapturer(cfg.Screenshots.Dir), compose.DefaultTimeouts())

	// Optional native client.
	native, err := buildNativeClient(cfg)
	if err != nil {
		log.Fatalf("native client: %v", err)
	}

	// Auto-reply worker: native path when available, browser otherwise.
	replySubject := fmt.Sprintf(cfg.Tracking.ReplySubject, cfg.Dispatch.Subject)
	replier := tracking.NewReplier(func(ctx context.Context, email string) error {
		if native != nil {
			if err := native.Send(ctx, email, replySubject, cfg.Tracking.ReplyBody, nil); err == nil {
				return nil
			}
		}
		return engine.Run(ctx, compose.Task{
			Email:    email,
			Subject:  replySubject,
			HTMLBody: cfg.Tracking.ReplyBody,
		})
	})
	replier.Start(ctx)
	defer replier.Stop()

	// Hosted files: the attachment is also reachable by link.
	files := hostfiles.NewRegistry()
	if *attachmentPath != "" {
		if rec, err := files.Host(*attachmentPath); err != nil {
			log.Fatalf("attachment: %v", err)
		} else {
			logger.Info("attachment hosted", "path", rec.SourcePath, "url_path", rec.URLPath())
		}
	}

	// Tracking HTTP server.
	handler := tracking.NewHandler(store, gate, replier, files)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		log.Printf("tracking server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// Pixel URLs embed the public tunnel when one is up, the LAN address
	// otherwise. Resolved once per batch, at enqueue time.
	baseURL := tunnel.Resolve(ctx, cfg.Tracking.NgrokAPI, cfg.Server.Port)

	personalizer := fragment.NewPersonalizer()
	builder := func(rec tracking.RecipientRecord) (compose.Task, error) {
		frag := fragment.ExtractBodyFragment(string(rawTemplate))
		// Literal tokens first: the Liquid pass would swallow {{SENDER_NAME}}
		// as an unknown variable.
		frag = fragment.InjectPlaceholders(frag, cfg.Sender.Name, cfg.Sender.ReviewURL)
		if rendered, err := personalizer.Render(frag, fragment.VarsForRecipient(rec.Email)); err == nil {
			frag = rendered
		}
		frag = fragment.EnsureReviewFallback(frag, cfg.Sender.ReviewURL)
		frag = fragment.AppendTrackingPixel(frag, baseURL+"/track?id="+rec.TrackingID)
		return compose.Task{
			TrackingID:     rec.TrackingID,
			Email:          rec.Email,
			Subject:        cfg.Dispatch.Subject,
			HTMLBody:       frag,
			AttachmentPath: *attachmentPath,
		}, nil
	}

	coordinator := dispatch.NewCoordinator(store, engine, native, builder, dispatch.Config{
		Workers: cfg.Dispatch.Workers,
	})

	// Fail fast before enqueueing anything if no browser can be driven.
	// The native-only setup skips this: it never touches a session.
	if native == nil {
		if err := sessions.Attach(ctx, engine.MailboxURL()); err != nil {
			log.Fatalf("session: %v", err)
		}
	}

	batchDone := make(chan dispatch.Summary, 1)
	go func() { batchDone <- coordinator.Run(ctx, recipients) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case summary := <-batchDone:
		printSummary(store, summary)
		log.Println("batch finished; serving tracking pixel until interrupted")
		<-quit
	case <-quit:
		log.Println("interrupt: stopping new tasks, draining queue")
		coordinator.Stop()
		printSummary(store, <-batchDone)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}

func buildNativeClient(cfg *config.Config) (nativeclient.Client, error) {
	switch cfg.Native.Mode {
	case "ses":
		return nativeclient.NewSESClient(cfg.Native.AccessKey, cfg.Native.SecretKey,
			cfg.Native.Region, cfg.Native.FromName, cfg.Native.FromEmail)
	case "command":
		return nativeclient.NewCommandClient(cfg.Native.Command), nil
	default:
		return nil, nil
	}
}

func readRecipients(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("-recipients is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		addr := strings.TrimSpace(scanner.Text())
		if addr == "" || strings.HasPrefix(addr, "#") {
			continue
		}
		if !strings.Contains(addr, "@") {
			logger.Warn("skipping malformed address", "line", addr)
			continue
		}
		key := strings.ToLower(addr)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no recipients in %s", path)
	}
	return out, nil
}

func printSummary(store *tracking.Store, summary dispatch.Summary) {
	log.Printf("run summary: sent=%d failed=%d skipped=%d", summary.Sent, summary.Failed, summary.Skipped)
	for _, rec := range store.Snapshot() {
		line := fmt.Sprintf("  %-32s %-8s id=%s", logger.RedactEmail(rec.Email), rec.Status, rec.TrackingID)
		if rec.FailReason != "" {
			line += " (" + rec.FailReason + ")"
		}
		log.Println(line)
	}
}
