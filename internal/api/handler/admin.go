package handler

import (
	"encoding/json"
	"time"

	"coindrop/internal/models"
	"coindrop/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupAdmin struct {
	container *do.Injector
}

type reqAddPrizeItem struct {
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Rarity    string          `json:"rarity"`
	Value     json.RawMessage `json:"value"`
	ExpiresAt *time.Time      `json:"expires_at"`
}

func (gr *groupAdmin) AddPrizeItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req reqAddPrizeItem
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceInventory, err := do.Invoke[*services.ServiceInventory](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	item, err := serviceInventory.AddPrizeItem(ctx, &models.PrizeItem{
		Name:      req.Name,
		Type:      req.Type,
		Rarity:    req.Rarity,
		Value:     req.Value,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, item, nil)
}

func (gr *groupAdmin) ListPrizeItems(c echo.Context) error {
	ctx := c.Request().Context()

	serviceInventory, err := do.Invoke[*services.ServiceInventory](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	items, err := serviceInventory.ListPrizeItemsByType(ctx, c.Param("type"))
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, items, nil)
}

type reqCreateGiveaway struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ChannelID     int64  `json:"channel_id"`
	PrizeItemID   string `json:"prize_item_id"`
	DurationHours int    `json:"duration_hours"`
	MaxEntries    int    `json:"max_entries"`
}

func (gr *groupAdmin) CreateGiveaway(c echo.Context) error {
	ctx := c.Request().Context()

	claims, err := ResolveAdminClaims(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req reqCreateGiveaway
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	serviceGiveaway, err := do.Invoke[*services.ServiceGiveaway](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	giveaway, err := serviceGiveaway.Create(ctx, claims.ID, req.ChannelID, req.Title, req.Description, req.PrizeItemID, req.DurationHours, req.MaxEntries)
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, giveaway, nil)
}

func (gr *groupAdmin) EndGiveaway(c echo.Context) error {
	ctx := c.Request().Context()

	serviceGiveaway, err := do.Invoke[*services.ServiceGiveaway](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	giveaway, err := serviceGiveaway.End(ctx, c.Param("id"))
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, giveaway, nil)
}

func (gr *groupAdmin) RerollGiveaway(c echo.Context) error {
	ctx := c.Request().Context()

	serviceGiveaway, err := do.Invoke[*services.ServiceGiveaway](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	giveaway, err := serviceGiveaway.Reroll(ctx, c.Param("id"))
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, giveaway, nil)
}

func (gr *groupAdmin) CancelGiveaway(c echo.Context) error {
	ctx := c.Request().Context()

	serviceGiveaway, err := do.Invoke[*services.ServiceGiveaway](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	giveaway, err := serviceGiveaway.Cancel(ctx, c.Param("id"))
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, giveaway, nil)
}

type reqCoins struct {
	AccountID   int64  `json:"account_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

func (gr *groupAdmin) GrantCoins(c echo.Context) error {
	return gr.adjustCoins(c, models.TX_TYPE_ADMIN_GRANT)
}

func (gr *groupAdmin) RemoveCoins(c echo.Context) error {
	return gr.adjustCoins(c, models.TX_TYPE_ADMIN_REMOVE)
}

func (gr *groupAdmin) adjustCoins(c echo.Context, txType string) error {
	ctx := c.Request().Context()

	claims, err := ResolveAdminClaims(ctx)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req reqCoins
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	ledger, err := do.Invoke[*services.ServiceLedger](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	var tx *models.Transaction
	if txType == models.TX_TYPE_ADMIN_GRANT {
		tx, err = ledger.Credit(ctx, req.AccountID, req.Amount, txType, req.Description, &claims.ID)
	} else {
		tx, err = ledger.Debit(ctx, req.AccountID, req.Amount, txType, req.Description, &claims.ID)
	}
	if err != nil {
		return httpx.RestAbort(c, nil, restErr(err))
	}

	return httpx.RestAbort(c, tx, nil)
}
