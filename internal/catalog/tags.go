// Package catalog holds the fixed catalogue of valid episode tags.
//
// Classification and filter synthesis are constrained to this set:
// a tag extracted by the model that is not in the catalogue is dropped,
// never fabricated into a filter.
package catalog

import "strings"

// TagSet is a read-only, process-wide tag catalogue with
// case-insensitive membership.
type TagSet struct {
	tags   []string
	lookup map[string]struct{}
}

// New builds a TagSet from the given tags, preserving order.
func New(tags []string) *TagSet {
	lookup := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		lookup[strings.ToLower(t)] = struct{}{}
	}
	return &TagSet{tags: tags, lookup: lookup}
}

// Default returns the predefined podcast tag catalogue.
func Default() *TagSet {
	return New(predefinedTags)
}

// Contains reports case-insensitive membership.
func (s *TagSet) Contains(tag string) bool {
	_, ok := s.lookup[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// Normalize lower-cases the given tags and drops any tag outside the
// catalogue. Order is preserved, duplicates removed.
func (s *TagSet) Normalize(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		norm := strings.ToLower(strings.TrimSpace(t))
		if _, ok := s.lookup[norm]; !ok {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// Len returns the catalogue size.
func (s *TagSet) Len() int {
	return len(s.tags)
}

// Catalogue renders the tag list as a bullet list, verbatim and
// unsorted, for prompt embedding and the list-tags response.
func (s *TagSet) Catalogue() string {
	var b strings.Builder
	for _, t := range s.tags {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	return b.String()
}

// predefinedTags is the corpus tag catalogue. The entries mirror the
// ingestion pipeline's tagging output, odd spellings included.
var predefinedTags = []string{
	"cash game",
	"live",
	"tournament",
	"theory",
	"online",
	"Andrew",
	"Carlos",
	"Nate",
	"AA",
	"KK",
	"Meeting",
	"QQ",
	"AKo",
	"AQo",
	"homegame",
	"TT",
	"99",
	"JJ",
	"AKs",
	"bounty",
	"satellites",
	"game theory",
	"finaltable",
	"ranges",
	"ICM",
	"KQs",
	"exploits",
	"AJo",
	"blind defense",
	"not a hand history",
	"66",
	"AQs",
	"QJs",
	"77",
	"bubble",
	"plo",
	"98s",
	"ATs",
	"bet size",
	"c - betting",
	"88",
	"KJs",
	"multiway",
	"should i call",
	"stack size",
	"straddle",
	"3 - betting",
	"AK",
	"KQo",
	"SNG",
	"fast fold",
	"limpedpot",
	"44",
	"A5s",
	"AJ",
	"AQ",
	"J9s",
	"JTo",
	"JTs",
	"KTs",
	"T9s",
	"A7s",
	"KJo",
	"bomb pot",
	"late regging",
	"mental game",
	"33",
	"76s",
	"87s",
	"A4s",
	"A8s",
	"A9o",
	"A9s",
	"QJo",
	"draw",
	"ethics",
	"75s",
	"AJs",
	"K7s",
	"KT",
	"T7s",
	"T8s",
	"Tommy Angelo",
	"bluffing",
	"small blind",
	"squeeze",
	"54s",
	"55",
	"65s",
	"98o",
	"A5o",
	"ATo",
	"K9o",
	"K9s",
	"KTo",
	"Q8s",
	"QTo",
	"QTs",
	"game selection",
	"headsup",
	"should i bluff",
	"solver",
	"wsop",
	"3 bet pot",
	"53s",
	"A2s",
	"A3s",
	"AT",
	"J7s",
	"K5s",
	"Q9o",
	"cash",
	"checking",
	"hero fold",
	"overbetting",
	"preflop",
	"study",
	"22",
	"4 - betting",
	"43s",
	"54o",
	"86s",
	"96s",
	"A4o",
	"A6o",
	"A7o",
	"Dr.Kamikaze",
	"GTOWizard",
	"Gloria Jackson",
	"J8",
	"K3s",
	"K4s",
	"K5o",
	"KJ",
	"Q2s",
	"Q9s",
	"QT",
	"bankroll",
	"bluff catching",
	"check raising",
	"donkbet",
	"ev",
	"flop",
	"folds",
	"nit",
	"pro",
	"rake",
	"short stack",
	"targeting",
	"value betting",
	"variants",
	"5 - betting",
	"64s",
	"65o",
	"72o",
	"76o",
	"85o",
	"85s",
	"86o",
	"87o",
	"94s",
	"97s",
	"9854",
	"A6s",
	"HUDs",
	"ITM",
	"J2s",
	"J4o",
	"J6s",
	"J8s",
	"J9o",
	"July",
	"K2s",
	"MTT SNG",
	"O8",
	"OOP",
	"Q3s",
	"Q5s",
	"Q7s",
	"T3s",
	"T7o",
	"T9o",
	"TPD",
	"ace magnets",
	"big stack",
	"blocker",
	"books",
	"bully",
	"charts",
	"cheating",
	"checking dark",
	"coin flip",
	"cold - calling",
	"database",
	"deals",
	"decision making",
	"deep stacks",
	"dry side pot",
	"flip and go",
	"laddering",
	"leading",
	"leak - finding",
	"life",
	"loss aversion",
	"low SPR(stack - to - pot ratio)",
	"micros",
	"mindset",
	"monotone flop",
	"mystery bounty",
	"node locking",
	"odds",
	"overlay",
	"pko",
	"prop bet",
	"reads",
	"roi",
	"run it twice",
	"self - indulgence",
	"set mining",
	"short handed",
	"should i jam",
	"sk",
	"slow playing",
	"smallpairs",
	"spr(stack - to - pot ratio)",
	"spread limit",
	"staking",
	"stalling",
	"stats",
	"storytime",
	"streamed",
	"suited",
	"tipping",
	"top pair",
	"training product",
	"variance",
	"vpip(voluntarily put $ into the pot)",
}
