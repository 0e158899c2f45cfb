package services

import (
	"math/rand"

	"coindrop/internal/models"
	"coindrop/internal/pkg"

	"github.com/mroth/weightedrand/v2"
)

type questTemplate struct {
	Type        string
	Title       string
	Description string
	Emoji       string
	TargetMin   int
	TargetMax   int
}

var easyTemplates = []questTemplate{
	{models.QUEST_TYPE_CHECKIN, "Daily Check-in", "Open the app and check in", "📅", 1, 1},
	{models.QUEST_TYPE_MESSAGE, "Chatterbox", "Send messages in the community", "💬", 5, 15},
	{models.QUEST_TYPE_GIVEAWAY_ENTRY, "Lucky Ticket", "Enter a giveaway", "🎟", 1, 1},
}

var hardTemplates = []questTemplate{
	{models.QUEST_TYPE_MESSAGE, "Town Crier", "Send a lot of messages in the community", "📣", 30, 60},
	{models.QUEST_TYPE_SPEND, "Big Spender", "Spend coins in the shop", "💸", 100, 300},
	{models.QUEST_TYPE_GIVEAWAY_ENTRY, "Serial Entrant", "Enter multiple giveaways", "🎰", 2, 4},
}

var premiumTemplates = []questTemplate{
	{models.QUEST_TYPE_MESSAGE, "Community Pillar", "Keep the conversation going all day", "🏛", 80, 120},
	{models.QUEST_TYPE_SPEND, "High Roller", "Spend a small fortune", "👑", 400, 800},
}

var (
	easyChooser    = newTemplateChooser(easyTemplates)
	hardChooser    = newTemplateChooser(hardTemplates)
	premiumChooser = newTemplateChooser(premiumTemplates)
)

// Templates within a pool are equally likely.
func newTemplateChooser(templates []questTemplate) *weightedrand.Chooser[questTemplate, int] {
	choices := make([]weightedrand.Choice[questTemplate, int], len(templates))
	for i, template := range templates {
		choices[i] = weightedrand.NewChoice(template, 1)
	}

	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		panic(err)
	}
	return chooser
}

func rewardRange(difficulty string) (int, int) {
	switch difficulty {
	case models.QUEST_DIFFICULTY_HARD:
		return QUEST_REWARD_MIN_HARD, QUEST_REWARD_MAX_HARD
	case models.QUEST_DIFFICULTY_PREMIUM:
		return QUEST_REWARD_MIN_PREMIUM, QUEST_REWARD_MAX_PREMIUM
	default:
		return QUEST_REWARD_MIN_EASY, QUEST_REWARD_MAX_EASY
	}
}

// rollQuest resolves target and reward once; they are never re-rolled.
func rollQuest(rng *rand.Rand, chooser *weightedrand.Chooser[questTemplate, int], difficulty string, id string) *models.Quest {
	template := chooser.PickSource(rng)
	minReward, maxReward := rewardRange(difficulty)

	return &models.Quest{
		ID:          id,
		Type:        template.Type,
		Difficulty:  difficulty,
		Title:       template.Title,
		Description: template.Description,
		Emoji:       template.Emoji,
		TargetValue: pkg.RandIntInRange(rng, template.TargetMin, template.TargetMax),
		CoinReward:  int64(pkg.RandIntInRange(rng, minReward, maxReward)),
	}
}
