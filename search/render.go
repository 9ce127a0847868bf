package search

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gadget-bot/venueshare/models"
)

const (
	// MaxVenues is how many venues a summary lists before collapsing the rest
	// into a single notice.
	MaxVenues = 3
	// MaxTags is how many tags are shown per venue.
	MaxTags = 3
	// MaxDescription caps the description excerpt, ellipsis included.
	MaxDescription = 100

	// BrowseCommand is the slash command offered for seeing every match.
	BrowseCommand = "/searchlocation"

	// DefaultRequester names the requester when the caller gives none.
	DefaultRequester = "Unknown Player"

	// Ellipsis marks text that was cut short.
	Ellipsis = "..."

	// MaxQueryPart caps each caller supplied name shown in the header and
	// footer.
	MaxQueryPart = 100

	// Embed limits enforced by Discord.
	MaxTitleLength       = 256
	MaxDescriptionLength = 4096
	MaxFieldNameLength   = 256
	MaxFieldValueLength  = 1024
	MaxFooterLength      = 2048
	MaxFields            = 25
	MaxEmbedLength       = 6000

	// ColorBlue is the summary accent color.
	ColorBlue = 0x3498DB
)

// Summary is a platform neutral rich message. Text uses Discord flavored
// markdown.
type Summary struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
	Timestamp   time.Time
	Footer      string
}

// Field is a named block of text in a Summary.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Render builds the summary posted for a location search. at is stamped on the
// summary as its timestamp.
func Render(q models.LocationQuery, matches []models.Venue, requestedBy string, at time.Time) Summary {
	return RenderUpTo(q, matches, requestedBy, at, MaxVenues,
		fmt.Sprintf("Use `%s` command for detailed browsing.", BrowseCommand))
}

// RenderUpTo lists at most limit venues. Matches that are over the limit, or
// that no longer fit the embed budget, collapse into one notice ending with
// hint.
func RenderUpTo(q models.LocationQuery, matches []models.Venue, requestedBy string, at time.Time, limit int, hint string) Summary {
	s := Summary{
		Title:       Truncate("🏠 FFXIV Venue Location Search", MaxTitleLength),
		Description: Truncate(header(q), MaxDescriptionLength),
		Color:       ColorBlue,
		Timestamp:   at.UTC(),
		Footer:      Truncate(footer(requestedBy), MaxFooterLength),
	}

	if len(matches) == 0 {
		s.add("❌ No Venues Found", noVenuesText, false)
		return s
	}

	s.add(fmt.Sprintf("✅ Found %d Venue(s)", len(matches)), "Here are the venues found at or near this location:", false)

	shown := 0
	for _, v := range matches {
		// one field stays free for the overflow notice
		if shown == limit || len(s.Fields) >= MaxFields-1 {
			break
		}
		f := Field{
			Name:  Truncate(fmt.Sprintf("Venue %d: %s", shown+1, v.Name), MaxFieldNameLength),
			Value: Truncate(VenueBlock(v), MaxFieldValueLength),
		}
		if s.Len()+f.len()+overflowReserve > MaxEmbedLength {
			break
		}
		s.Fields = append(s.Fields, f)
		shown++
	}

	if more := len(matches) - shown; more > 0 {
		s.add("Additional Results",
			Truncate(fmt.Sprintf("... and %d more venue(s) found. %s", more, hint), overflowReserve-len("Additional Results")),
			false)
	}
	return s
}

// overflowReserve is the embed budget kept back for the overflow notice.
const overflowReserve = 256

const noVenuesText = "No venues were found at this location in the FFXIVVenues database.\n\n" +
	"This could mean:\n" +
	"• No venues are registered at this exact location\n" +
	"• The venue may be in a different ward/plot\n" +
	"• The venue might not be listed on FFXIVVenues.com"

// Len counts the characters Discord weighs against MaxEmbedLength.
func (s Summary) Len() int {
	n := utf8.RuneCountInString(s.Title) +
		utf8.RuneCountInString(s.Description) +
		utf8.RuneCountInString(s.Footer)
	for _, f := range s.Fields {
		n += f.len()
	}
	return n
}

func (f Field) len() int {
	return utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
}

// add appends a field, shortening its value to what is left of the embed
// budget. A field that cannot fit a useful value is dropped.
func (s *Summary) add(name, value string, inline bool) {
	if len(s.Fields) >= MaxFields {
		return
	}
	name = Truncate(name, MaxFieldNameLength)
	room := MaxEmbedLength - s.Len() - utf8.RuneCountInString(name)
	if room < minFieldValue {
		return
	}
	s.Fields = append(s.Fields, Field{
		Name:   name,
		Value:  Truncate(value, min(room, MaxFieldValueLength)),
		Inline: inline,
	})
}

const minFieldValue = 16

func header(q models.LocationQuery) string {
	server := Truncate(orDefault(q.Server, "Unknown"), MaxQueryPart)
	district := Truncate(orDefault(q.District, "Unknown"), MaxQueryPart)
	territory := Truncate(orDefault(q.TerritoryName, district), MaxQueryPart)
	ward := Truncate(orDefault(q.Ward.String(), "?"), MaxQueryPart)
	plot := Truncate(orDefault(q.Plot.String(), "?"), MaxQueryPart)

	return fmt.Sprintf("**Location:** %s Ward %s, Plot %s\n**Server:** %s\n**Territory:** %s",
		district, ward, plot, server, territory)
}

func footer(requestedBy string) string {
	return fmt.Sprintf("Requested by %s via VenueShare plugin", Truncate(orDefault(requestedBy, DefaultRequester), MaxQueryPart))
}

// VenueBlock renders the details of one venue. Every optional part is left
// out when the venue does not have it.
func VenueBlock(v models.Venue) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s** %s\n", v.Name, SafetyLabel(v.SFW))

	if d := strings.TrimSpace(v.Description.First()); d != "" {
		fmt.Fprintf(&b, "%s\n\n", Truncate(d, MaxDescription))
	}

	if line := locationLine(v.Location); line != "" {
		fmt.Fprintf(&b, "**Location:** %s\n", line)
	}

	if len(v.Tags) > 0 {
		tags := v.Tags
		if len(tags) > MaxTags {
			tags = tags[:MaxTags]
		}
		fmt.Fprintf(&b, "**Tags:** %s\n", strings.Join(tags, ", "))
	}

	var links []string
	if v.Website != "" {
		links = append(links, fmt.Sprintf("[Website](%s)", v.Website))
	}
	if v.Discord != "" {
		links = append(links, fmt.Sprintf("[Discord](%s)", v.Discord))
	}
	if len(links) > 0 {
		fmt.Fprintf(&b, "**Links:** %s\n", strings.Join(links, " • "))
	}

	if v.HasSyncShell() {
		fmt.Fprintf(&b, "**SynchShell:** `%s` / `%s`", v.MareCode, v.MarePassword)
	}

	return strings.TrimRight(b.String(), "\n")
}

// SafetyLabel labels a venue as safe or not safe for work.
func SafetyLabel(sfw bool) string {
	if sfw {
		return "✅ SFW"
	}
	return "🔞 NSFW"
}

func locationLine(loc models.VenueLocation) string {
	if loc == (models.VenueLocation{}) {
		return ""
	}
	return fmt.Sprintf("%s / %s – %s, Ward %s, Plot %s",
		orDefault(loc.DataCenter, "?"),
		orDefault(loc.World, "?"),
		orDefault(loc.District, "?"),
		orDefault(loc.Ward.String(), "?"),
		orDefault(loc.Plot.String(), "?"))
}

// Truncate shortens s to at most max runes, ending it with an ellipsis when
// anything was cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= len(Ellipsis) {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-len(Ellipsis)]) + Ellipsis
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
