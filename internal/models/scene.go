package models

import (
	"fmt"
	"time"
)

// Choice is a labeled edge from one scene to another. The JSON field names
// ("text"/"next") are the wire format the game client expects.
type Choice struct {
	Label  string `json:"text"`
	Target string `json:"next"`
}

// Scene is one narrative unit of the story graph.
//
// Choices keeps authored order; it is empty exactly when nothing is offered to
// the player. End and Start are independently settable flags: an end scene may
// still carry choices and a scene without choices is not automatically an end
// scene. The presentation layer decides how to react to each combination.
type Scene struct {
	ID         string         `db:"id" json:"id"`
	Speaker    string         `db:"speaker" json:"speaker"`
	Background string         `db:"bg" json:"bg"`
	Text       string         `db:"text" json:"text"`
	Choices    []Choice       `db:"choices" json:"choices"`
	Meta       map[string]any `db:"meta" json:"meta,omitempty"`
	End        bool           `db:"is_end" json:"end"`
	Start      bool           `db:"is_start" json:"start"`
	CreatedAt  time.Time      `db:"created_at" json:"-"`
	UpdatedAt  time.Time      `db:"updated_at" json:"-"`
}

// SceneUpdate describes a partial update to an existing scene. Nil fields are
// left untouched.
type SceneUpdate struct {
	Speaker    *string         `json:"speaker"`
	Background *string         `json:"bg"`
	Text       *string         `json:"text"`
	Choices    *[]Choice       `json:"choices"`
	Meta       *map[string]any `json:"meta"`
	End        *bool           `json:"end"`
	Start      *bool           `json:"start"`
}

// NewScene constructs a validated Scene. It is the single acceptance gate for
// scene content, whether it comes from the markdown parser or an admin write.
func NewScene(id, speaker, background, text string, choices []Choice, end, start bool) (*Scene, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty scene id", ErrInvalidScene)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: scene %q has empty text", ErrInvalidScene, id)
	}
	for i, ch := range choices {
		if ch.Label == "" {
			return nil, fmt.Errorf("%w: scene %q choice %d has empty label", ErrInvalidScene, id, i)
		}
		if ch.Target == "" {
			return nil, fmt.Errorf("%w: scene %q choice %d has empty target", ErrInvalidScene, id, i)
		}
	}
	if choices == nil {
		choices = []Choice{}
	}
	return &Scene{
		ID:         id,
		Speaker:    speaker,
		Background: background,
		Text:       text,
		Choices:    choices,
		End:        end,
		Start:      start,
	}, nil
}
