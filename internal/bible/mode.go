package bible

import "strings"

// Mode is a named generation preset controlling the system instruction,
// verbosity and similar-verse fan-out of generated content.
type Mode string

const (
	ModeDevotional Mode = "Devotional"
	ModeStudy      Mode = "Study"
	ModePastoral   Mode = "Pastoral"
)

// ParseMode maps a route token to a Mode. Unrecognized tokens fall back to
// Devotional rather than erroring so that stale client links keep working.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "study":
		return ModeStudy
	case "pastoral":
		return ModePastoral
	default:
		return ModeDevotional
	}
}

func (m Mode) String() string {
	return string(m)
}

// DisplayName is the user-facing preset name echoed into prompts.
func (m Mode) DisplayName() string {
	switch m {
	case ModeStudy:
		return "Study Mode"
	case ModePastoral:
		return "Deep Dive"
	default:
		return "Simple Insight"
	}
}

// MaxSimilarVerses is the nearest-neighbor fan-out for the mode: lighter
// modes pull fewer context verses.
func (m Mode) MaxSimilarVerses() int {
	switch m {
	case ModeStudy:
		return 15
	case ModePastoral:
		return 30
	default:
		return 5
	}
}

// ChatOptions are the per-mode completion parameters.
type ChatOptions struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

func (m Mode) ChatOptions() ChatOptions {
	switch m {
	case ModeStudy:
		return ChatOptions{Temperature: 0.3, TopP: 0.7, MaxTokens: 1000}
	case ModePastoral:
		return ChatOptions{Temperature: 0.4, TopP: 0.8, MaxTokens: 3000}
	default:
		return ChatOptions{Temperature: 0.5, TopP: 0.9, MaxTokens: 6000}
	}
}

// SystemBehavior is the fixed system instruction selected by the mode.
func (m Mode) SystemBehavior() string {
	switch m {
	case ModeStudy:
		return "You are a Bible-believing study assistant that always responds in GitHub-style Markdown. " +
			"Give a balanced, well-structured explanation of the requested passage, including key Greek or Hebrew terms, historical context, and theological meaning. " +
			"End with a short life application. " +
			"This is a one time interaction so do not offer to expand beyond your answer. " +
			"Purpose: Balanced analysis that blends spiritual insight with background and context. " +
			"Tone: Instructive, thoughtful, clear. " +
			"Depth: Moderate, with historical/cultural background, word study, and practical application."
	case ModePastoral:
		return "You are a seasoned, Bible-believing pastor and theologian that always responds in GitHub-style Markdown. " +
			"Provide an in-depth exegesis and theological reflection on the passage, engaging original languages, key commentaries, and doctrinal implications. " +
			"Apply the text to modern ministry and discipleship contexts. " +
			"This is a one time interaction so do not offer to expand beyond your answer. " +
			"Purpose: Deep theological, pastoral, and exegetical insight for preaching, counseling, or advanced study. " +
			"Tone: Scholarly yet compassionate, comprehensive, and reverent. " +
			"Depth: Heavy, with detailed exegesis, theological frameworks, and pastoral implications."
	default:
		return "You are a devotional Bible-believing companion that always responds in GitHub-style Markdown. " +
			"Provide short, heartfelt reflections on the requested passage and avoid technical or scholarly details. " +
			"Emphasize encouragement, comfort, and daily life application. " +
			"This is a one time interaction so do not offer to expand beyond your answer. " +
			"Purpose: Gentle encouragement, reflection, and spiritual application for daily devotion. " +
			"Tone: Warm, personal, uplifting. " +
			"Depth: Light, with concise insights focused on inspiration and faith practice."
	}
}

// TranslationSystemBehavior is the fixed instruction for the modern-English
// verse translation flow. It is mode-independent.
const TranslationSystemBehavior = "You are a Bible translation assistant. " +
	"When given a verse from the King James Version (KJV), translate it into clear, natural modern English that accurately reflects the meaning of the original Hebrew, Aramaic, or Greek text. " +
	"You may rephrase expressions to match their sense in the original languages while keeping the tone readable and faithful. " +
	"Write in your own words with a style similar to modern translations like the NIV or NKJV, but do not copy from them. " +
	"Return only the translated text with no verse numbers, commentary, book names, or explanations."
