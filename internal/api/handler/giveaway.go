package handler

import (
	"coindrop/internal/interfaces"
	"coindrop/internal/pkg/limiter"
	"coindrop/internal/services"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupGiveaway struct {
	container *do.Injector
}

func (gr *groupGiveaway) ListActive(c echo.Context) error {
	ctx := c.Request().Context()

	serviceGiveaway, err := do.Invoke[*services.ServiceGiveaway](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	giveaways, err := serviceGiveaway.ListActive(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, giveaways, nil)
}

func (gr *groupGiveaway) Show(c echo.Context) error {
	ctx := c.Request().Context()

	serviceGiveaway, err := do.Invoke[*services.ServiceGiveaway](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	giveaway, err := serviceGiveaway.Get(ctx, c.Param("id"))
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, giveaway, nil)
}

func (gr *groupGiveaway) Enter(c echo.Context) error {
	ctx := c.Request().Context()

	account, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	rate, err := do.Invoke[interfaces.Limiter](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	err = rate.Allow(ctx, services.LimitKeyGiveawayEnter(account.ID), redis_rate.PerMinute(services.GIVEAWAY_ENTER_RATE_LIMIT_PER_MINUTE))
	if err == limiter.ErrRateLimited {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.RateLimiting))
	}
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	serviceGiveaway, err := do.Invoke[*services.ServiceGiveaway](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	status, err := serviceGiveaway.Enter(ctx, c.Param("id"), account.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"status": status,
	}, nil)
}

func (gr *groupGiveaway) LastWinner(c echo.Context) error {
	ctx := c.Request().Context()

	serviceGiveaway, err := do.Invoke[*services.ServiceGiveaway](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	announcement, err := serviceGiveaway.LastWinner(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, announcement, nil)
}
