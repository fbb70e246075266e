// Package parser recognizes the treasurer's message grammar: expense
// submissions with uneven-split modifiers, and the group and reporting
// commands. Parse never fails; input that matches nothing yields an Unknown
// command, which the service ignores.
package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Building blocks of the grammar. Note the asymmetry: plus modifiers allow
// two fractional digits, star modifiers only one.
const (
	amountPattern   = `[0-9]+(?:\.[0-9]{1,2})?`
	plusPattern     = `\+[0-9]+(?:\.[0-9]{1,2})?`
	starPattern     = `\*[0-9]+(?:\.[0-9])?`
	modifierPattern = `(?:` + plusPattern + `)(?:` + starPattern + `)?|(?:` + starPattern + `)(?:` + plusPattern + `)?`
	userPattern     = `[A-Z]{2}`
	groupPattern    = `[A-Z]{3,12}`
	handlePattern   = `(?:` + groupPattern + `|` + userPattern + `)(?:` + modifierPattern + `)?`
)

var (
	expenseRe = regexp.MustCompile(`^(?P<amount>` + amountPattern + `)\|` +
		`(?P<participants>` + handlePattern + `(?:,` + handlePattern + `)*)` +
		`(?: (?:""|"(?P<description>(?:\\"|[^"])*)"))?$`)
	tokenRe  = regexp.MustCompile(`^(?P<handle>[A-Z]{2,12})(?:` + modifierPattern + `)?$`)
	plusRe   = regexp.MustCompile(plusPattern)
	starRe   = regexp.MustCompile(starPattern)
	createRe = regexp.MustCompile(`^CREATE (?P<group>` + groupPattern + `)$`)
	addRe    = regexp.MustCompile(`^ADD (?P<user>` + userPattern + `) (?P<group>` + groupPattern + `)$`)
	removeRe = regexp.MustCompile(`^DELETE (?P<user>` + userPattern + `) (?P<group>` + groupPattern + `)$`)
)

// Kind discriminates the recognized message forms.
type Kind int

const (
	KindUnknown Kind = iota
	KindExpense
	KindBalance
	KindHistory
	KindCreateGroup
	KindAddMember
	KindRemoveMember
)

func (k Kind) String() string {
	switch k {
	case KindExpense:
		return "expense"
	case KindBalance:
		return "balance"
	case KindHistory:
		return "history"
	case KindCreateGroup:
		return "create_group"
	case KindAddMember:
		return "add_member"
	case KindRemoveMember:
		return "remove_member"
	}
	return "unknown"
}

// Participant is one handle of an expense submission. A nil modifier means
// the modifier was absent; defaulting is the resolver's concern.
type Participant struct {
	Handle  string
	IsGroup bool
	PlusMod *decimal.Decimal
	StarMod *decimal.Decimal
}

// Command is the parsed form of one message.
type Command struct {
	Kind Kind

	// expense fields
	Amount       decimal.Decimal
	Participants []Participant
	Description  string

	// group command fields
	User  string
	Group string
}

// Parse classifies a message and extracts its fields.
func Parse(text string) Command {
	text = strings.TrimSpace(text)

	if m := expenseRe.FindStringSubmatch(text); m != nil {
		return parseExpense(m)
	}
	switch text {
	case "BALANCE":
		return Command{Kind: KindBalance}
	case "HISTORY":
		return Command{Kind: KindHistory}
	}
	if m := createRe.FindStringSubmatch(text); m != nil {
		return Command{Kind: KindCreateGroup, Group: m[createRe.SubexpIndex("group")]}
	}
	if m := addRe.FindStringSubmatch(text); m != nil {
		return Command{
			Kind:  KindAddMember,
			User:  m[addRe.SubexpIndex("user")],
			Group: m[addRe.SubexpIndex("group")],
		}
	}
	if m := removeRe.FindStringSubmatch(text); m != nil {
		return Command{
			Kind:  KindRemoveMember,
			User:  m[removeRe.SubexpIndex("user")],
			Group: m[removeRe.SubexpIndex("group")],
		}
	}
	return Command{Kind: KindUnknown}
}

func parseExpense(m []string) Command {
	amount, err := decimal.NewFromString(m[expenseRe.SubexpIndex("amount")])
	if err != nil {
		// the amount pattern guarantees a valid literal
		return Command{Kind: KindUnknown}
	}
	cmd := Command{
		Kind:        KindExpense,
		Amount:      amount,
		Description: unescape(m[expenseRe.SubexpIndex("description")]),
	}
	for _, token := range strings.Split(m[expenseRe.SubexpIndex("participants")], ",") {
		tm := tokenRe.FindStringSubmatch(token)
		if tm == nil {
			return Command{Kind: KindUnknown}
		}
		handle := tm[tokenRe.SubexpIndex("handle")]
		cmd.Participants = append(cmd.Participants, Participant{
			Handle:  handle,
			IsGroup: len(handle) > 2,
			PlusMod: findModifier(plusRe, token),
			StarMod: findModifier(starRe, token),
		})
	}
	return cmd
}

// findModifier extracts the first modifier match in a participant token and
// strips the leading sign character.
func findModifier(re *regexp.Regexp, token string) *decimal.Decimal {
	match := re.FindString(token)
	if match == "" {
		return nil
	}
	d, err := decimal.NewFromString(match[1:])
	if err != nil {
		return nil
	}
	return &d
}

// unescape resolves \" sequences inside a description. An empty description
// (including the bare "" form) counts as absent.
func unescape(description string) string {
	return strings.ReplaceAll(description, `\"`, `"`)
}
