package registry

import "github.com/aretw0/parley/pkg/domain"

// DefaultDefinition returns the built-in shopping tables.
func DefaultDefinition() Definition {
	return Definition{
		Phrases: map[string]Entry{
			ActionBuy:       {Entity: ActionBuy},
			ActionSell:      {Entity: ActionSell},
			ActionChange:    {Entity: ActionChange},
			ActionRetrieve:  {Entity: ActionRetrieve},
			ItemClothes:     {Entity: ItemClothes},
			ItemAccessories: {Entity: ItemAccessories},
			ItemFurniture:   {Entity: ItemFurniture},

			"How can I retrieve my furniture?": {Intent: IntentRetrieveOrMoveFurniture, Entity: ActionRetrieve},
			"How do I move my furniture?":      {Intent: IntentRetrieveOrMoveFurniture, Entity: ItemFurniture},
			"How can I sell my furniture?":     {Intent: IntentSellingFurniture, Entity: ActionSell},
		},
		Actions: []string{ActionBuy, ActionSell, ActionChange, ActionRetrieve},
		Items:   []string{ItemClothes, ItemAccessories, ItemFurniture},
		ActionChoices: []domain.Option{
			{Title: "Buy", Payload: ActionBuy},
			{Title: "Sell", Payload: ActionSell},
			{Title: "Change", Payload: ActionChange},
			{Title: "Retrieve", Payload: ActionRetrieve},
		},
		ItemChoices: []domain.Option{
			{Title: ItemClothes, Payload: ItemClothes},
			{Title: ItemAccessories, Payload: ItemAccessories},
			{Title: ItemFurniture, Payload: ItemFurniture},
		},
		RootMenu: []domain.Option{
			{Title: "Game Recommendation", Payload: "Game Recommendation"},
			{Title: "About coins", Payload: "About coins"},
			{Title: ShoppingLabel, Payload: ShoppingLabel},
			{Title: "Small Knowledge", Payload: "Small Knowledge"},
		},
		ShoppingLabel: ShoppingLabel,
		Prompts: Prompts{
			RootMenu:      "Only the shopping option is available in this demo, other options are not available yet",
			Action:        "Select the action you want: ",
			ActionInvalid: "Invalid action, select one of the actions below: ",
			ItemBuy:       "what item you want to buy:",
			ItemChange:    "what item you want to change: ",
			ItemInvalid:   "Invalid item, select one of the items below: ",
		},
		Answers: Answers{
			Intents: map[string]string{
				IntentRetrieveOrMoveFurniture: "The ans of how to retrieve item: ....(done! finished the dialog)",
				IntentSellingFurniture:        "The ans of how to sell item: .... (done! finished the dialog)",
			},
			ActionItem: "The ans of {action} {item}: .... (done! finished the dialog)",
			Retrieve:   "The ans of how to retrieve item: ....(done! finished the dialog)",
			Sell:       "The ans of how to sell item: .... (done! finished the dialog)",
			Fallback:   "Sorry, I don't have an answer for that yet. (done! finished the dialog)",
		},
	}
}

// Default returns a Registry built from DefaultDefinition.
func Default() *Registry {
	return MustNew(DefaultDefinition())
}
