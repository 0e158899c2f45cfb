package handler

import (
	"strconv"

	"coindrop/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupLeaderboard struct {
	container *do.Injector
}

func (gr *groupLeaderboard) GetEarnerLeaderboard(c echo.Context) error {
	return gr.leaderboard(c, services.LEADERBOARD_EARNERS)
}

func (gr *groupLeaderboard) GetWeeklyEarnerLeaderboard(c echo.Context) error {
	return gr.leaderboard(c, services.LEADERBOARD_EARNERS_WEEKLY)
}

func (gr *groupLeaderboard) leaderboard(c echo.Context, name string) error {
	ctx := c.Request().Context()

	serviceLeaderboard, err := do.Invoke[*services.ServiceLeaderboard](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	serviceConfig, err := do.Invoke[*services.ServiceConfig](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit, _ = serviceConfig.GetIntConfig(ctx, services.CONFIG_EARNER_LEADERBOARD_LIMIT, services.EARNER_LEADERBOARD_DEFAULT_LIMIT)
	}

	items, err := serviceLeaderboard.GetEarnerLeaderboard(ctx, name, limit)
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, items, nil)
}
