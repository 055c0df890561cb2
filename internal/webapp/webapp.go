// Package webapp is the backend that sits behind the authenticating load
// balancer. It trusts the headers the load balancer injects and never sees an
// unauthenticated request on its protected routes.
package webapp

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mikecbrant/cognito-alb-fargate-demo/internal/oidcdata"
)

// SessionCookieName is the first shard of the load balancer's session cookie.
const SessionCookieName = "AWSELBAuthSessionCookie-0"

//go:embed templates/*.html
var templateFS embed.FS

var (
	indexTmpl       = template.Must(template.ParseFS(templateFS, "templates/index.html"))
	healthcheckPage = mustRead("templates/healthcheck.html")
)

func mustRead(name string) []byte {
	b, err := templateFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return b
}

// UserInfoFetcher returns the raw userinfo document for an access token.
type UserInfoFetcher interface {
	Fetch(ctx context.Context, accessToken string) (json.RawMessage, error)
}

// Options configures the router.
type Options struct {
	Logger    *slog.Logger
	LogoutURL string
	UserInfo  UserInfoFetcher
	Hostname  string
}

type app struct {
	logger    *slog.Logger
	logoutURL string
	userInfo  UserInfoFetcher
	hostname  string
}

// NewRouter builds the HTTP handler with recovery and access logging.
func NewRouter(opts Options) http.Handler {
	a := &app{
		logger:    opts.Logger,
		logoutURL: opts.LogoutURL,
		userInfo:  opts.UserInfo,
		hostname:  opts.Hostname,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middlewares(a.logger)...)

	r.Get("/", a.home)
	r.Get("/logout", a.logout)
	r.Get("/healthcheck", a.healthcheck)
	r.Get("/userinfo", a.userinfo)
	return r
}

type indexView struct {
	Username   string
	ValidUntil string
	Claims     string
	Identity   string
	Hostname   string
}

func (a *app) home(w http.ResponseWriter, r *http.Request) {
	claims, err := oidcdata.Decode(r.Header.Get(oidcdata.HeaderData))
	if err != nil {
		a.fail(w, r, "decode claims", err)
		return
	}
	pretty, err := claims.Pretty()
	if err != nil {
		a.fail(w, r, "render claims", err)
		return
	}
	view := indexView{
		Username:   claims.Username,
		ValidUntil: claims.ValidUntil(),
		Claims:     pretty,
		Identity:   r.Header.Get(oidcdata.HeaderIdentity),
		Hostname:   a.hostname,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, view); err != nil {
		a.logger.Error("render index", slog.String("error", err.Error()))
	}
}

func (a *app) logout(w http.ResponseWriter, r *http.Request) {
	target := a.logoutURL
	if target == "" {
		target = "https://" + r.Host + "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:    SessionCookieName,
		Value:   "empty",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0).UTC(),
	})
	http.Redirect(w, r, target, http.StatusFound)
}

func (a *app) healthcheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(healthcheckPage)
}

func (a *app) userinfo(w http.ResponseWriter, r *http.Request) {
	if a.userInfo == nil {
		a.fail(w, r, "fetch userinfo", errors.New("userinfo client not configured"))
		return
	}
	doc, err := a.userInfo.Fetch(r.Context(), r.Header.Get(oidcdata.HeaderAccessToken))
	if err != nil {
		a.fail(w, r, "fetch userinfo", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

func (a *app) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	a.logger.LogAttrs(r.Context(), slog.LevelError, op,
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
