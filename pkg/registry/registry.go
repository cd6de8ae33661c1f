package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Shopping actions. The shopping dialog dispatches on exactly these values.
const (
	ActionBuy      = "buy"
	ActionSell     = "sell"
	ActionChange   = "change"
	ActionRetrieve = "retrieve"
)

// Default shopping items.
const (
	ItemClothes     = "Clothes"
	ItemAccessories = "Accessories"
	ItemFurniture   = "Furniture"
)

// Intents with a dedicated canned answer.
const (
	IntentRetrieveOrMoveFurniture = "RetrieveOrMoveFurniture"
	IntentSellingFurniture        = "SellingFurniture"
)

// ShoppingLabel is the root menu entry that opens the shopping dialog.
const ShoppingLabel = "About shopping"

// ErrInvalidDefinition is returned when a Definition fails validation.
var ErrInvalidDefinition = errors.New("invalid registry definition")

// Entry is the {intent, entity} pair a literal phrase maps to.
type Entry struct {
	Intent string `yaml:"intent,omitempty"`
	Entity string `yaml:"entity,omitempty"`
}

// Prompts holds the texts of every prompt the engine can emit.
type Prompts struct {
	RootMenu      string `yaml:"root_menu"`
	Action        string `yaml:"action"`
	ActionInvalid string `yaml:"action_invalid"`
	ItemBuy       string `yaml:"item_buy"`
	ItemChange    string `yaml:"item_change"`
	ItemInvalid   string `yaml:"item_invalid"`
}

// Answers holds the canned final responses.
// ActionItem is a template; "{action}" and "{item}" are substituted.
type Answers struct {
	Intents    map[string]string `yaml:"intents"`
	ActionItem string            `yaml:"action_item"`
	Retrieve   string            `yaml:"retrieve"`
	Sell       string            `yaml:"sell"`
	Fallback   string            `yaml:"fallback"`
}

// Definition is the serializable form of a Registry.
type Definition struct {
	Phrases       map[string]Entry `yaml:"phrases"`
	Actions       []string         `yaml:"actions"`
	Items         []string         `yaml:"items"`
	ActionChoices []domain.Option  `yaml:"action_choices"`
	ItemChoices   []domain.Option  `yaml:"item_choices"`
	RootMenu      []domain.Option  `yaml:"root_menu"`
	ShoppingLabel string           `yaml:"shopping_label"`

	// Triggers are extra phrases that enter the shopping dialog besides the
	// action labels, the item labels and the shopping label.
	Triggers []string `yaml:"triggers"`

	Prompts Prompts `yaml:"prompts"`
	Answers Answers `yaml:"answers"`
}

// Registry is the immutable set of phrase tables, vocabularies and texts
// the router and the dialogs consult. Accessors return copies.
type Registry struct {
	def      Definition
	triggers map[string]struct{}
}

// New validates the definition and builds an immutable Registry from it.
func New(def Definition) (*Registry, error) {
	def = def.clone()
	if err := def.Validate(); err != nil {
		return nil, err
	}

	r := &Registry{
		def:      def,
		triggers: make(map[string]struct{}),
	}
	for _, opt := range def.ActionChoices {
		r.triggers[opt.Payload] = struct{}{}
	}
	for _, opt := range def.ItemChoices {
		r.triggers[opt.Payload] = struct{}{}
	}
	r.triggers[def.ShoppingLabel] = struct{}{}
	for _, t := range def.Triggers {
		r.triggers[t] = struct{}{}
	}
	return r, nil
}

// MustNew is like New but panics on an invalid definition.
func MustNew(def Definition) *Registry {
	r, err := New(def)
	if err != nil {
		panic(err)
	}
	return r
}

// Validate checks the structural rules of a definition.
func (d Definition) Validate() error {
	if len(d.Actions) == 0 {
		return fmt.Errorf("%w: action vocabulary is empty", ErrInvalidDefinition)
	}
	if len(d.Items) == 0 {
		return fmt.Errorf("%w: item vocabulary is empty", ErrInvalidDefinition)
	}
	for _, a := range d.Actions {
		switch a {
		case ActionBuy, ActionSell, ActionChange, ActionRetrieve:
		default:
			return fmt.Errorf("%w: unsupported action %q", ErrInvalidDefinition, a)
		}
	}
	if d.ShoppingLabel == "" {
		return fmt.Errorf("%w: shopping label is empty", ErrInvalidDefinition)
	}
	if err := validateChoices("action_choices", d.ActionChoices, d.Actions); err != nil {
		return err
	}
	if err := validateChoices("item_choices", d.ItemChoices, d.Items); err != nil {
		return err
	}
	if len(d.RootMenu) == 0 {
		return fmt.Errorf("%w: root menu is empty", ErrInvalidDefinition)
	}
	for phrase, e := range d.Phrases {
		if e.Entity != "" && !contains(d.Actions, e.Entity) && !contains(d.Items, e.Entity) {
			return fmt.Errorf("%w: phrase %q maps to unknown entity %q", ErrInvalidDefinition, phrase, e.Entity)
		}
	}
	if d.Answers.ActionItem == "" {
		return fmt.Errorf("%w: action_item answer is empty", ErrInvalidDefinition)
	}
	return nil
}

func validateChoices(name string, choices []domain.Option, vocabulary []string) error {
	if len(choices) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidDefinition, name)
	}
	seen := make(map[string]struct{}, len(choices))
	for _, opt := range choices {
		if _, dup := seen[opt.Payload]; dup {
			return fmt.Errorf("%w: %s has duplicate payload %q", ErrInvalidDefinition, name, opt.Payload)
		}
		seen[opt.Payload] = struct{}{}
		if !contains(vocabulary, opt.Payload) {
			return fmt.Errorf("%w: %s payload %q is outside the vocabulary", ErrInvalidDefinition, name, opt.Payload)
		}
	}
	return nil
}

// Lookup classifies a literal phrase. A miss returns empty values.
func (r *Registry) Lookup(phrase string) (intent, entity string) {
	e, ok := r.def.Phrases[phrase]
	if !ok {
		return "", ""
	}
	return e.Intent, e.Entity
}

// Actions returns the action vocabulary in matching order.
func (r *Registry) Actions() []string { return append([]string(nil), r.def.Actions...) }

// Items returns the item vocabulary in matching order.
func (r *Registry) Items() []string { return append([]string(nil), r.def.Items...) }

// IsAction reports exact membership in the action vocabulary.
func (r *Registry) IsAction(v string) bool { return contains(r.def.Actions, v) }

// IsItem reports exact membership in the item vocabulary.
func (r *Registry) IsItem(v string) bool { return contains(r.def.Items, v) }

// IsShoppingTrigger reports whether text opens or continues the shopping dialog.
func (r *Registry) IsShoppingTrigger(text string) bool {
	_, ok := r.triggers[text]
	return ok
}

func (r *Registry) ActionChoices() []domain.Option {
	return append([]domain.Option(nil), r.def.ActionChoices...)
}

func (r *Registry) ItemChoices() []domain.Option {
	return append([]domain.Option(nil), r.def.ItemChoices...)
}

func (r *Registry) RootMenu() []domain.Option {
	return append([]domain.Option(nil), r.def.RootMenu...)
}

func (r *Registry) Prompts() Prompts { return r.def.Prompts }

// ShoppingLabel returns the root-menu label that starts the shopping dialog.
func (r *Registry) ShoppingLabel() string { return r.def.ShoppingLabel }

// IntentAnswer returns the canned answer for an intent, if one exists.
func (r *Registry) IntentAnswer(intent string) (string, bool) {
	text, ok := r.def.Answers.Intents[intent]
	return text, ok
}

// ActionItemAnswer renders the answer for a buy/change of an item.
func (r *Registry) ActionItemAnswer(action, item string) string {
	return strings.NewReplacer("{action}", action, "{item}", item).Replace(r.def.Answers.ActionItem)
}

func (r *Registry) RetrieveAnswer() string { return r.def.Answers.Retrieve }

func (r *Registry) SellAnswer() string { return r.def.Answers.Sell }

func (r *Registry) FallbackAnswer() string { return r.def.Answers.Fallback }

// Definition returns a copy of the underlying definition.
func (r *Registry) Definition() Definition { return r.def.clone() }

func (d Definition) clone() Definition {
	c := d
	c.Phrases = make(map[string]Entry, len(d.Phrases))
	for k, v := range d.Phrases {
		c.Phrases[k] = v
	}
	c.Actions = append([]string(nil), d.Actions...)
	c.Items = append([]string(nil), d.Items...)
	c.ActionChoices = append([]domain.Option(nil), d.ActionChoices...)
	c.ItemChoices = append([]domain.Option(nil), d.ItemChoices...)
	c.RootMenu = append([]domain.Option(nil), d.RootMenu...)
	c.Triggers = append([]string(nil), d.Triggers...)
	c.Answers.Intents = make(map[string]string, len(d.Answers.Intents))
	for k, v := range d.Answers.Intents {
		c.Answers.Intents[k] = v
	}
	return c
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
