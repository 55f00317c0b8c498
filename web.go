/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Seednode/codenames/api"
	"github.com/julienschmidt/httprouter"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func serveVersion(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		written, err := w.Write([]byte("codenames v" + releaseVersion + "\n"))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Version page (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// newRoutes lists the pages of the app. The diagnostic page is only
// present when enabled.
func newRoutes(cfg *Config, client gameClient, errs chan<- error) (*routeTable, error) {
	var table *routeTable

	routes := []Route{
		{
			Path: "/",
			Name: "CreateGame",
			View: withoutInput(serveCreateGame(cfg, errs)),
		},
		{
			Path:            "/game/:gameId",
			Name:            "GameView",
			View:            withGameInput(cfg, serveGame(cfg, client, errs)),
			PropsFromParams: true,
		},
	}

	if cfg.testView {
		routes = append(routes, Route{
			Path: "/test",
			Name: "Test",
			View: withoutInput(serveTest(cfg, func() []Route { return table.Routes() }, errs)),
		})
	}

	table, err := newRouteTable(routes...)
	if err != nil {
		return nil, err
	}

	return table, nil
}

// newRouter wires every handler. cfg must already be validated.
func newRouter(cfg *Config, client gameClient, boards *boardManager, errs chan<- error) (*httprouter.Router, error) {
	mux := httprouter.New()

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		logf(cfg, "ERROR: panic serving %s: %v", r.URL.Path, i)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		io.WriteString(w, newPage(cfg, "Server Error", "An error has occurred. Please try again."))
	}

	mux.NotFound = serveNotFound(cfg)

	table, err := newRoutes(cfg, client, errs)
	if err != nil {
		return nil, err
	}
	if err := table.install(cfg, mux); err != nil {
		return nil, err
	}

	mux.POST(cfg.prefix+"/", createGame(cfg, client, errs))

	mux.POST(cfg.prefix+"/game/:gameId/guess", makeGuess(cfg, client))

	mux.GET(cfg.prefix+"/game/:gameId/ws", serveLiveBoard(cfg, boards))

	mux.GET(cfg.prefix+"/game/:gameId/qr", serveShareCode(cfg, errs))

	mux.GET(cfg.prefix+"/assets/*asset", serveAssets(cfg, errs))

	mux.GET(cfg.prefix+"/favicons/*favicon", serveFavicons(cfg, errs))

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, errs))

	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))

	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	return mux, nil
}

func ServePage(ctx context.Context, cfg *Config) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	logf(cfg, "START: codenames v%s", releaseVersion)

	client, err := api.NewClient(api.Config{
		BaseURL:    cfg.backendURL,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return err
	}

	logf(cfg, "START: Using game backend at %s", client.BaseURL())

	errs := make(chan error, 64)
	go drainErrors(cfg, errs)

	boards := newBoardManager(cfg, client)
	defer boards.closeAll()

	mux, err := newRouter(cfg, client, boards, errs)
	if err != nil {
		close(errs)

		return err
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		logf(cfg, "SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)

		var err error
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var result error

	select {
	case err := <-serveErr:
		if err != nil {
			result = fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logf(cfg, "ERROR: shutdown: %v", err)
	} else {
		close(errs)
	}

	logf(cfg, "STOP: codenames v%s", releaseVersion)

	return result
}
