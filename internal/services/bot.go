package services

import (
	"time"

	"coindrop/internal/models"

	initdata "github.com/telegram-mini-apps/init-data-golang"
	tele "gopkg.in/telebot.v3"
)

type Bot struct {
	token string
}

func NewBot(token string) (*Bot, error) {
	return &Bot{token}, nil
}

func (bot *Bot) ValidateInitData(dataStr string) (*models.AccountFromAuth, error) {
	err := initdata.Validate(dataStr, bot.token, 0)
	if err != nil {
		return nil, err
	}

	data, err := initdata.Parse(dataStr)
	if err != nil {
		return nil, err
	}

	return &models.AccountFromAuth{
		ID:        data.User.ID,
		Username:  data.User.Username,
		FirstName: data.User.FirstName,
		IsBot:     data.User.IsBot,
		IsPremium: data.User.IsPremium,
	}, nil
}

func (bot *Bot) SendMsg(chatID int64, text string) error {
	pref := tele.Settings{
		Token:  bot.token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return err
	}

	_, err = b.Send(&tele.User{ID: chatID}, text, &tele.SendOptions{
		ParseMode: tele.ModeHTML,
	})
	if err != nil {
		return err
	}

	return nil
}

func (bot *Bot) SendToChat(chatID int64, text string) error {
	pref := tele.Settings{
		Token:  bot.token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return err
	}

	_, err = b.Send(&tele.Chat{ID: chatID}, text, &tele.SendOptions{
		ParseMode: tele.ModeHTML,
	})
	if err != nil {
		return err
	}

	return nil
}

// BotNotifier adapts the bot to the dispatcher the services expect.
type BotNotifier struct {
	bot *Bot
}

func NewBotNotifier(bot *Bot) *BotNotifier {
	return &BotNotifier{bot}
}

func (notifier *BotNotifier) NotifyUser(accountID int64, text string) error {
	return notifier.bot.SendMsg(accountID, text)
}

func (notifier *BotNotifier) NotifyChannel(channelID int64, text string) error {
	return notifier.bot.SendToChat(channelID, text)
}
