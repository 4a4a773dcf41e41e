package bingchat

import "fmt"

// Style selects the conversation tone for a new session.
type Style string

const (
	StyleCreative Style = "creative"
	StyleBalanced Style = "balanced"
	StylePrecise  Style = "precise"
)

// ParseStyle maps a requested style string to a Style. The empty string
// selects creative; anything else unknown is a configuration error.
func ParseStyle(s string) (Style, error) {
	switch s {
	case "", "creative":
		return StyleCreative, nil
	case "balanced":
		return StyleBalanced, nil
	case "precise":
		return StylePrecise, nil
	default:
		return "", fmt.Errorf("style must be one of: creative, balanced, precise (got %q)", s)
	}
}

func (s Style) optionsSets() []string {
	base := []string{
		"nlu_direct_response_filter",
		"deepleo",
		"disable_emoji_spoken_text",
		"responsible_ai_policy_235",
		"enablemm",
	}
	switch s {
	case StyleBalanced:
		return append(base, "galileo")
	case StylePrecise:
		return append(base, "h3precise")
	default:
		return append(base, "h3imaginative")
	}
}
