package handler

import (
	"coindrop/internal/models"
	"coindrop/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupQuest struct {
	container *do.Injector
}

func (gr *groupQuest) GetQuests(c echo.Context) error {
	ctx := c.Request().Context()

	account, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	quests, err := serviceQuest.ListQuests(ctx, account.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, quests, nil)
}

func (gr *groupQuest) GetCompleted(c echo.Context) error {
	ctx := c.Request().Context()

	account, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	quests, err := serviceQuest.ListCompleted(ctx, account.ID)
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, quests, nil)
}

func (gr *groupQuest) Checkin(c echo.Context) error {
	ctx := c.Request().Context()

	account, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	completed, err := serviceQuest.RecordProgress(ctx, account.ID, models.QUEST_TYPE_CHECKIN, 1)
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, map[string]interface{}{
		"completed": completed,
	}, nil)
}

func (gr *groupQuest) Claim(c echo.Context) error {
	ctx := c.Request().Context()

	account, err := ResolveValidAccount(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	serviceQuest, err := do.Invoke[*services.ServiceQuest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	tx, err := serviceQuest.Claim(ctx, account.ID, c.Param("id"))
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, tx, nil)
}
