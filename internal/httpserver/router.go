package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/phonehub/internal/metrics"
	"github.com/Skotchmaster/phonehub/internal/middleware/auth"
	"github.com/Skotchmaster/phonehub/internal/routes"
	loggingmw "github.com/Skotchmaster/phonehub/pkg/middleware/logging"
)

const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
	RoleUser  = "USER"
)

type Deps struct {
	AuthHandler  *AuthHTTP
	UsersHandler *UsersHTTP
	RolesHandler *RolesHTTP

	Tokens     auth.TokenService
	Identities auth.IdentityFinder

	// Ready reports whether dependencies can serve traffic.
	Ready func(ctx context.Context) error

	Logger      *slog.Logger
	CORSOrigins []string
}

// New builds an echo instance with the full middleware chain and every
// route registered.
func New(d *Deps) (*echo.Echo, *routes.Table) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e.Pre(ecM.RemoveTrailingSlash())
	e.Use(
		ecM.RequestID(),
		ecM.Secure(),
		loggingmw.RequestLogger(logger),
		metrics.Middleware,
		// Recovered panics come back as errors so the two middlewares above
		// record the 500.
		ecM.RecoverWithConfig(ecM.RecoverConfig{DisableErrorHandler: true}),
		ecM.CORSWithConfig(ecM.CORSConfig{
			AllowOrigins:  origins,
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			ExposeHeaders: []string{auth.HeaderNewAccessToken, auth.HeaderTokenStatus},
		}),
	)

	return e, Register(e, d)
}

// Register installs the auth middleware and all routes, then seals the
// route table the enforcer reads.
func Register(e *echo.Echo, d *Deps) *routes.Table {
	table := routes.NewTable()
	e.Use(
		auth.NewGate(d.Tokens, d.Identities).Middleware,
		auth.NewEnforcer(table, d.Tokens).Middleware,
	)

	r := &registrar{e: e, table: table}

	health := r.group("/health", routes.Public())
	health.GET("/live", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	health.GET("/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	r.group("/metrics", routes.Public()).GET("", echo.WrapHandler(metrics.Handler()))

	authG := r.group("/api/v1/auth", routes.Public())
	authG.POST("/signin", d.AuthHandler.Signin)
	authG.POST("/signup", d.AuthHandler.Signup)
	authG.POST("/refresh", d.AuthHandler.Refresh)
	authG.POST("/signin/google", d.AuthHandler.GoogleSignin)

	users := r.group("/api/v1/users")
	users.GET("", d.UsersHandler.List, routes.RequiresAuth(RoleAdmin))
	users.GET("/me", d.UsersHandler.Me, routes.RequiresAuth())
	users.GET("/search/username", d.UsersHandler.SearchByUsername, routes.RequiresAuth(RoleAdmin))
	users.GET("/:id", d.UsersHandler.GetByID, routes.RequiresAuth(RoleAdmin))

	roles := r.group("/api/v1/roles", routes.Public())
	roles.GET("", d.RolesHandler.List)
	roles.GET("/:id", d.RolesHandler.Get)
	roles.POST("", d.RolesHandler.Create, routes.RequiresAuth(RoleAdmin))

	table.Seal()
	return table
}

// registrar adds the echo route and its access rule in one call so the
// two can never drift apart.
type registrar struct {
	e     *echo.Echo
	table *routes.Table
}

type routeGroup struct {
	r      *registrar
	prefix string
	rules  *routes.Group
}

func (r *registrar) group(prefix string, marker ...routes.Marker) *routeGroup {
	return &routeGroup{r: r, prefix: prefix, rules: r.table.Group(prefix, marker...)}
}

func (g *routeGroup) add(method, path string, h echo.HandlerFunc, marker ...routes.Marker) {
	g.rules.Add(method, path, marker...)
	g.r.e.Add(method, g.prefix+path, h)
}

func (g *routeGroup) GET(path string, h echo.HandlerFunc, marker ...routes.Marker) {
	g.add(http.MethodGet, path, h, marker...)
}

func (g *routeGroup) POST(path string, h echo.HandlerFunc, marker ...routes.Marker) {
	g.add(http.MethodPost, path, h, marker...)
}
