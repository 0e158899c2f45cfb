package handler

import (
	"errors"
	"net/http"

	"coindrop/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🪙")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		bot, err := do.Invoke[*services.Bot](cfg.Container)
		if err != nil {
			return nil, err
		}
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)
		routesAPIv1.Use(Authn(bot)) // Authn will NOT terminate unauthenticated requests.
		routesAPIv1.GET("", Hello)

		e := groupEconomy{cfg.Container}
		routesAPIv1.GET("/account/me", e.Me)
		routesAPIv1.GET("/account/history", e.History)

		q := groupQuest{cfg.Container}
		routesAPIv1.GET("/quests", q.GetQuests)
		routesAPIv1.GET("/quests/completed", q.GetCompleted)
		routesAPIv1.POST("/quests/checkin", q.Checkin)
		routesAPIv1.POST("/quests/:id/claim", q.Claim)

		g := groupGiveaway{cfg.Container}
		routesAPIv1.GET("/giveaways", g.ListActive)
		routesAPIv1.GET("/giveaways/last-winner", g.LastWinner)
		routesAPIv1.GET("/giveaway/:id", g.Show)
		routesAPIv1.POST("/giveaway/:id/enter", g.Enter)

		l := groupLeaderboard{cfg.Container}
		routesAPIv1.GET("/leaderboard/earners", l.GetEarnerLeaderboard)
		routesAPIv1.GET("/leaderboard/earners_weekly", l.GetWeeklyEarnerLeaderboard)

		routesAPIv1Admin := routesAPIv1.Group("/admin")
		{
			routesAPIv1Admin.Use(AuthnAdmin(authentication))
			a := groupAdmin{cfg.Container}
			routesAPIv1Admin.POST("/prizes", a.AddPrizeItem)
			routesAPIv1Admin.GET("/prizes/:type", a.ListPrizeItems)
			routesAPIv1Admin.POST("/giveaways", a.CreateGiveaway)
			routesAPIv1Admin.POST("/giveaway/:id/end", a.EndGiveaway)
			routesAPIv1Admin.POST("/giveaway/:id/reroll", a.RerollGiveaway)
			routesAPIv1Admin.POST("/giveaway/:id/cancel", a.CancelGiveaway)
			routesAPIv1Admin.POST("/coins/grant", a.GrantCoins)
			routesAPIv1Admin.POST("/coins/remove", a.RemoveCoins)
		}
	}

	return r, nil
}

func Hello(c echo.Context) error {
	return httpx.RestAbort(c, "hello world", nil)
}

// restErr maps domain outcomes onto the http error taxonomy.
func restErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrInvalidDuration):
		return errorx.Wrap(err, errorx.Validation)
	case errors.Is(err, services.ErrGiveawayNotFound):
		return errorx.Wrap(err, errorx.NotExist)
	case errors.Is(err, services.ErrPrizeUnavailable),
		errors.Is(err, services.ErrPrizeExpired),
		errors.Is(err, services.ErrGiveawayCompleted),
		errors.Is(err, services.ErrGiveawayNotCompleted),
		errors.Is(err, services.ErrGiveawayNoEntries),
		errors.Is(err, services.ErrGiveawayNoWinner),
		errors.Is(err, services.ErrInsufficientBalance):
		return errorx.Wrap(err, errorx.Invalid)
	default:
		return errorx.Wrap(err, errorx.Service)
	}
}
