package schemas

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"self-sim-server/internal/models"
)

// Scene documents are markdown files with a YAML front-matter block:
//
//	---
//	id: scene1
//	speaker: narrator
//	bg: street.png
//	start: true
//	---
//	First line of narration.
//	Second line, joined with a space.
//	- Go left -> scene2
//	- Go right → scene3
//
// The front-matter keys id/speaker/bg/end/start are recognized; anything else
// is passed through into the scene's Meta map untouched.

// docRe matches the front-matter block and the body. Non-greedy over the
// metadata so a "---" inside the body stays in the body.
var docRe = regexp.MustCompile(`(?s)\A---\n(.*?)\n---\n(.*)\z`)

// choiceSepRe finds the first choice separator, ASCII arrow or the Unicode
// arrow some authors type.
var choiceSepRe = regexp.MustCompile(`→|->`)

// ParseSceneMarkdown converts one scene document into a validated Scene.
// It is pure: identical input always yields an identical record, and it
// performs no I/O — callers hand it the document text.
//
// A document that does not match the delimiter shape, or whose front matter
// is not a flat mapping, fails with models.ErrMalformedSceneDoc. Choice lines
// that do not split into two non-empty halves are dropped silently; that
// leniency is line-level only and never hides a malformed document.
func ParseSceneMarkdown(doc string) (*models.Scene, error) {
	m := docRe.FindStringSubmatch(doc)
	if m == nil {
		return nil, fmt.Errorf("%w: missing ---/--- front-matter block", models.ErrMalformedSceneDoc)
	}
	metaBlock, body := m[1], m[2]

	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(metaBlock), &meta); err != nil {
		return nil, fmt.Errorf("%w: front matter is not valid YAML: %v", models.ErrMalformedSceneDoc, err)
	}

	id := stringValue(meta, "id")
	speaker := stringValue(meta, "speaker")
	bg := stringValue(meta, "bg")
	end := boolValue(meta, "end")
	start := boolValue(meta, "start")

	var textLines []string
	var choices []models.Choice
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "- "):
			if ch, ok := parseChoiceLine(line[2:]); ok {
				choices = append(choices, ch)
			}
		case line != "":
			textLines = append(textLines, line)
		}
	}

	scene, err := models.NewScene(id, speaker, bg, strings.Join(textLines, " "), choices, end, start)
	if err != nil {
		return nil, err
	}

	// Forward-compatible passthrough of unrecognized front-matter keys.
	for _, k := range []string{"id", "speaker", "bg", "end", "start"} {
		delete(meta, k)
	}
	if len(meta) > 0 {
		scene.Meta = meta
	}
	return scene, nil
}

// parseChoiceLine splits the remainder of a "- " line on the first separator
// occurrence only. A label or target containing a further separator keeps it
// verbatim; there is no escaping scheme.
func parseChoiceLine(rest string) (models.Choice, bool) {
	loc := choiceSepRe.FindStringIndex(rest)
	if loc == nil {
		return models.Choice{}, false
	}
	label := strings.TrimSpace(rest[:loc[0]])
	target := strings.TrimSpace(rest[loc[1]:])
	if label == "" || target == "" {
		return models.Choice{}, false
	}
	return models.Choice{Label: label, Target: target}, true
}

func stringValue(meta map[string]any, key string) string {
	switch v := meta[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		// YAML may decode bare scalars as ints or bools; authors sometimes
		// write ids like "id: 42".
		return fmt.Sprint(v)
	}
}

func boolValue(meta map[string]any, key string) bool {
	v, _ := meta[key].(bool)
	return v
}
