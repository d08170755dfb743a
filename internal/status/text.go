package status

import (
	"regexp"
	"unicode/utf8"
)

// MaxTextLength is the longest status text Zulip accepts, in characters.
const MaxTextLength = 60

var (
	emojiCalendar  = Emoji{Name: "calendar", ReactionType: UnicodeEmoji}
	emojiSalad     = Emoji{Name: "salad", ReactionType: UnicodeEmoji}
	emojiOffice    = Emoji{Name: "office", ReactionType: UnicodeEmoji}
	emojiHouse     = Emoji{Name: "house", ReactionType: UnicodeEmoji}
	emojiPalmTree  = Emoji{Name: "palm_tree", ReactionType: UnicodeEmoji}
	emojiSick      = Emoji{Name: "face_with_thermometer", ReactionType: UnicodeEmoji}
	emojiWorkation = Emoji{Name: "workation_new", ReactionType: RealmEmoji}
)

// vacationText maps vacation titles to display text, first match wins.
// An empty text means the event title is shown as-is.
var vacationText = []struct {
	pattern *regexp.Regexp
	text    string
	emoji   Emoji
}{
	{regexp.MustCompile(`(?i)vacation|holiday|\bpto\b`), "On vacation", emojiPalmTree},
	{regexp.MustCompile(`(?i)workation`), "On a workation", emojiWorkation},
	{regexp.MustCompile(`(?i)day off`), "Day off", emojiPalmTree},
	{regexp.MustCompile(`(?i)sick`), "On sick leave", emojiSick},
	{regexp.MustCompile(`(?i)out of office`), "", emojiPalmTree},
}

// ClearStatus is the status that removes whatever is shown.
func ClearStatus() Status {
	return Status{Kind: Clear}
}

// VacationStatus builds a vacation status for the given event title.
func VacationStatus(title string) Status {
	return Status{Kind: Vacation, Detail: title, Emoji: vacationEmoji(title)}
}

// MeetingStatus builds an in-meeting status for the given meeting title.
func MeetingStatus(title string) Status {
	return Status{Kind: InMeeting, Detail: title, Emoji: emojiCalendar}
}

// LunchStatus builds a lunch-break status.
func LunchStatus() Status {
	return Status{Kind: Lunch, Emoji: emojiSalad}
}

// OfficeStatus builds an in-office status. until is "" for all-day entries.
func OfficeStatus(until string) Status {
	return Status{Kind: Office, Detail: until, Emoji: emojiOffice}
}

// RemoteStatus builds a working-remotely status. until is "" for all-day entries.
func RemoteStatus(until string) Status {
	return Status{Kind: Remote, Detail: until, Emoji: emojiHouse}
}

func vacationEmoji(title string) Emoji {
	for _, v := range vacationText {
		if v.pattern.MatchString(title) {
			return v.emoji
		}
	}
	return emojiPalmTree
}

// Text renders the status the way it is displayed, capped at MaxTextLength.
// Clear renders as "".
func (s Status) Text() string {
	var text string
	switch s.Kind {
	case Vacation:
		text = "Out of office"
		for _, v := range vacationText {
			if v.pattern.MatchString(s.Detail) {
				text = v.text
				if text == "" {
					text = s.Detail
				}
				break
			}
		}
	case InMeeting:
		title := s.Detail
		if title == "" {
			title = "Untitled meeting"
		}
		text = "meet: " + title
	case Lunch:
		text = "On a lunch break"
	case Office:
		text = withUntil("In office", s.Detail)
	case Remote:
		text = withUntil("Working remotely", s.Detail)
	}
	return truncate(text, MaxTextLength)
}

func withUntil(text, until string) string {
	if until == "" {
		return text
	}
	return text + " (" + until + ")"
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
