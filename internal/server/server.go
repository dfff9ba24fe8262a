package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-gedcheck/internal/config"
)

// cacheItem stores one rendered feed and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// CalendarServer serves the rendered iCalendar feeds over HTTP: the
// liturgical calendar at /calendar.ics and the findings at /findings.ics.
// The root path serves the Root feed.
type CalendarServer struct {
	// Each feed is read on every request but replaced only after a run,
	// so reads go through atomic.Pointer without locking.
	feeds map[string]*atomic.Pointer[cacheItem]
	Port  string
	Root  string
}

// NewCalendarServer creates a server with the calendar and findings feeds.
func NewCalendarServer(port string) *CalendarServer {
	return &CalendarServer{
		feeds: map[string]*atomic.Pointer[cacheItem]{
			config.FeedCalendar: {},
			config.FeedFindings: {},
		},
		Port: port,
		Root: config.FeedFindings,
	}
}

// Handler returns the routing of the feeds.
func (s *CalendarServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteCalendar, s.handleFeed(config.FeedCalendar))
	mux.HandleFunc(config.RouteFindings, s.handleFeed(config.FeedFindings))
	mux.HandleFunc(config.RouteRoot, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != config.RouteRoot {
			http.Error(w, config.HTTPMsgNotFound, http.StatusNotFound)
			return
		}
		s.handleFeed(s.Root)(w, r)
	})
	return mux
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *CalendarServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update atomically replaces the content of a feed. Unknown feeds are
// ignored.
func (s *CalendarServer) Update(feed string, data []byte) {
	slot, ok := s.feeds[feed]
	if !ok {
		return
	}

	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	slot.Store(&cacheItem{
		data:         data,
		etag:         etag,
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	})

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyFeed, feed,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// handleFeed serves one feed with HTTP caching support.
func (s *CalendarServer) handleFeed(feed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set(config.HeaderAllow, config.AllowedMethods)
			http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
			return
		}

		slot, ok := s.feeds[feed]
		if !ok {
			http.Error(w, config.HTTPMsgNotFound, http.StatusNotFound)
			return
		}
		item := slot.Load()
		if item == nil {
			w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
			http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
			return
		}

		w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
		w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
		w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
		w.Header().Set(config.HeaderETag, item.etag)
		w.Header().Set(config.HeaderLastModified, item.lastModified)

		if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
			clientTime, err1 := time.Parse(http.TimeFormat, since)
			serverTime, err2 := time.Parse(http.TimeFormat, item.lastModified)
			if err1 == nil && err2 == nil && !serverTime.After(clientTime) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		if r.Method == http.MethodGet {
			if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
				slog.Error(config.ErrWriteResp,
					config.LogKeyComponent, config.CompServer,
					config.LogKeyFeed, feed,
					config.LogKeyError, err,
				)
			}
		}
	}
}
