package moderation

import (
	"fmt"
	"strings"

	"cybershield/internal/config"
	"cybershield/internal/models"
	"cybershield/internal/storage"
)

type warningTemplate struct {
	title string
	body  string
}

// canned warning templates per violation type, with a default fallback for
// unrecognized types
var warningTemplates = map[string]warningTemplate{
	"cyberbullying": {
		title: "⚠️ Cyberbullying Detected",
		body:  "We detected potentially harmful content in your recent message that may constitute cyberbullying. Please be respectful to others.",
	},
	"hate_speech": {
		title: "⚠️ Hate Speech Detected",
		body:  "Your message contained language that violates our hate speech policy. Please treat all users with respect.",
	},
	"harassment": {
		title: "⚠️ Harassment Detected",
		body:  "We detected harassing behavior in your recent message. Please maintain a positive environment.",
	},
	"nsfw": {
		title: "⚠️ Inappropriate Content Detected",
		body:  "Your message contained NSFW or inappropriate content. Please keep all content safe for work.",
	},
	"profanity": {
		title: "⚠️ Profanity Detected",
		body:  "Your message contained profanity or offensive language. Please communicate respectfully.",
	},
	"default": {
		title: "⚠️ Policy Violation Detected",
		body:  "We detected content that violates our community guidelines. Please review our policies.",
	},
}

// CyberBOT composes warning texts and delivers them as regular messages
// from the reserved system sender identity.
type CyberBOT struct {
	messages        *storage.MessageRepository
	redTagThreshold int
}

// NewCyberBOT creates a CyberBOT backed by the given message repository
func NewCyberBOT(messages *storage.MessageRepository, cfg *config.ModerationConfig) *CyberBOT {
	return &CyberBOT{
		messages:        messages,
		redTagThreshold: cfg.RedTagThreshold,
	}
}

// ComposeWarning builds the warning text for one violation. It is a pure
// function: the same inputs always produce byte-identical output.
func (b *CyberBOT) ComposeWarning(violationType, severity string, warningCount int, categories []string) string {
	template, ok := warningTemplates[strings.ToLower(violationType)]
	if !ok {
		template = warningTemplates["default"]
	}

	parts := []string{
		template.title + "\n",
		template.body + "\n",
		"\n📊 Violation Details:",
		fmt.Sprintf("• Type: %s", titleCase(violationType)),
		fmt.Sprintf("• Severity: %s", strings.ToUpper(severity)),
	}

	if len(categories) > 0 {
		parts = append(parts, fmt.Sprintf("• Categories: %s", strings.Join(categories, ", ")))
	}

	parts = append(parts,
		fmt.Sprintf("\n⚠️ This is warning #%d.", warningCount),
		"",
	)

	// Escalation clause keyed to the red-tag threshold. Block state gets no
	// dedicated wording: a blocked user cannot send anyway.
	switch {
	case warningCount >= b.redTagThreshold:
		parts = append(parts,
			"🔴 Your account has been RED TAGGED due to repeated violations.",
			"Further violations may result in account suspension.",
		)
	case warningCount == b.redTagThreshold-1:
		parts = append(parts,
			"⚠️ WARNING: One more violation will result in a RED TAG on your account.",
		)
	default:
		parts = append(parts,
			"Repeated violations may result in account restrictions.",
		)
	}

	parts = append(parts,
		"",
		"📖 Please review our Community Guidelines.",
		"💬 Need help? Talk to our AI Counselor in the Mental Health section.",
		"",
		"— CyberShield Safety Team",
	)

	return strings.Join(parts, "\n")
}

// DeliverWarning creates one system warning message addressed to the user.
// The row goes through the normal message store so the warning shows up in
// the user's conversation with CyberBOT.
func (b *CyberBOT) DeliverWarning(userID int64, text string) (int64, error) {
	message := &models.Message{
		SenderID:        models.SystemSenderID,
		ReceiverID:      userID,
		Content:         text,
		ContentFiltered: text,
		MessageType:     models.MessageTypeSystemWarning,
		IsFlagged:       false,
		SeverityScore:   "info",
	}
	if err := b.messages.Create(message); err != nil {
		return 0, err
	}
	return message.ID, nil
}

// titleCase capitalizes the first letter of each underscore or space
// separated word, matching how violation types are displayed
func titleCase(s string) string {
	var sb strings.Builder
	upperNext := true
	for _, r := range s {
		switch {
		case r == '_' || r == ' ':
			upperNext = true
			sb.WriteRune(r)
		case upperNext:
			sb.WriteString(strings.ToUpper(string(r)))
			upperNext = false
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
