package command

import (
	"regexp"
	"strings"

	"github.com/hamed0406/staffbot/internal/domain"
)

type Intent string

const (
	IntentShiftStart Intent = "shift_start"
	IntentShiftStop  Intent = "shift_stop"
	IntentReport     Intent = "report"
	IntentMeal       Intent = "meal"
	IntentStatus     Intent = "status"
	IntentBroadcast  Intent = "broadcast"
	IntentStats      Intent = "stats"
	IntentAddStaff   Intent = "add_staff"
	IntentFallback   Intent = "fallback"
)

// Match is the outcome of classification. Payload is set for broadcast
// (text after the first separator) and add_staff (first run of >= 7 digits).
type Match struct {
	Intent  Intent
	Payload string
}

type rule struct {
	intent      Intent
	pattern     *regexp.Regexp
	managerOnly bool
	payload     func(raw string) string
}

var (
	separatorRe = regexp.MustCompile(`[:\-]`)
	phoneRunRe  = regexp.MustCompile(`\d{7,}`)
)

// Staff rules come first; manager rules are only reached when none of them
// matched.
var defaultRules = []rule{
	{intent: IntentShiftStart, pattern: regexp.MustCompile(`(смена старт|приш[её]л|начал|shift start|arrived|started)`)},
	{intent: IntentShiftStop, pattern: regexp.MustCompile(`(смена стоп|уш[её]л|закончил|конец смены|shift stop|left|finished|end of shift)`)},
	{intent: IntentReport, pattern: regexp.MustCompile(`^(отч[её]т|report)[:\-]`)},
	{intent: IntentMeal, pattern: regexp.MustCompile(`^(питание|meal)[:\-]`)},
	{intent: IntentStatus, pattern: regexp.MustCompile(`(статус|status)`)},
	{intent: IntentBroadcast, pattern: regexp.MustCompile(`^(рассылка|broadcast)[:\-]`), managerOnly: true, payload: afterSeparator},
	{intent: IntentStats, pattern: regexp.MustCompile(`^(статистика|stats)`), managerOnly: true},
	{intent: IntentAddStaff, pattern: regexp.MustCompile(`^(добавить|add)[:\-]`), managerOnly: true, payload: firstPhoneRun},
}

type Classifier struct {
	rules []rule
}

func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules}
}

// Normalize trims and lowercases the message the way the rules expect.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Classify matches the raw message text for role. Matching runs on the
// normalized text; payloads are cut from the raw text.
func (c *Classifier) Classify(raw string, role domain.Role) Match {
	t := Normalize(raw)
	for _, r := range c.eligible(role) {
		if !r.pattern.MatchString(t) {
			continue
		}
		m := Match{Intent: r.intent}
		if r.payload != nil {
			m.Payload = r.payload(raw)
		}
		return m
	}
	return Match{Intent: IntentFallback}
}

func (c *Classifier) eligible(role domain.Role) []rule {
	if role == domain.RoleManager {
		return c.rules
	}
	out := make([]rule, 0, len(c.rules))
	for _, r := range c.rules {
		if !r.managerOnly {
			out = append(out, r)
		}
	}
	return out
}

func afterSeparator(raw string) string {
	loc := separatorRe.FindStringIndex(raw)
	if loc == nil {
		return ""
	}
	return strings.TrimSpace(raw[loc[1]:])
}

func firstPhoneRun(raw string) string {
	return phoneRunRe.FindString(raw)
}
