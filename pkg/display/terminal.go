// Package display renders the ZIP clock card to a terminal.
package display

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/zipTZ/pkg/sleep"
	"github.com/codeGROOVE-dev/zipTZ/pkg/ziptz"
)

// Title is the heading shown next to the logo.
const Title = "ZIP Code Time Zone Lookup"

// PromptText asks for the next ZIP code.
const PromptText = "ZIP code ▸ "

const (
	cardWidth   = 52
	placeholder = "-"
)

var (
	accent   = color.New(color.FgBlue, color.Bold)
	errColor = color.New(color.FgRed)
	label    = color.New(color.FgHiBlack)
	value    = color.New(color.Bold)
	clock    = color.New(color.Bold)

	sleepOn  = color.New(color.BgRed, color.FgHiWhite, color.Bold)
	normalOn = color.New(color.BgGreen, color.FgHiWhite, color.Bold)
	blueOn   = color.New(color.BgBlue, color.FgHiWhite, color.Bold)
	chipOff  = color.New(color.BgHiBlack, color.FgWhite)
)

// Options configures a Terminal.
type Options struct {
	Logger *slog.Logger
	// Logo holds pre-rendered logo rows. Empty means the logo failed to load.
	Logo []string
	// Interactive redraws the card in place with ANSI cursor movement and
	// refreshes the clock every tick. Otherwise each result is printed once.
	Interactive bool
}

// Terminal implements ziptz.View on an io.Writer.
type Terminal struct {
	out         io.Writer
	logger      *slog.Logger
	card        *ziptz.Card
	errMsg      string
	logo        []string
	interactive bool
	started     bool
}

// NewTerminal creates a view writing to out.
func NewTerminal(out io.Writer, opts Options) *Terminal {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Terminal{
		out:         out,
		logger:      opts.Logger,
		logo:        opts.Logo,
		interactive: opts.Interactive,
	}
}

// ShowResult implements ziptz.View.
func (t *Terminal) ShowResult(card ziptz.Card) {
	t.card = &card
	t.draw()
}

// ShowTick implements ziptz.View.
func (t *Terminal) ShowTick(card ziptz.Card) {
	t.card = &card
	if t.interactive {
		t.draw()
	}
}

// ShowError implements ziptz.View.
func (t *Terminal) ShowError(msg string) {
	changed := msg != t.errMsg
	t.errMsg = msg
	// Plain output only prints errors; clearing is implied by the next frame.
	if t.interactive && changed {
		t.draw()
	} else if !t.interactive && msg != "" {
		t.draw()
	}
}

// Clear implements ziptz.View.
func (t *Terminal) Clear() {
	t.card = nil
	if t.interactive {
		t.draw()
	}
}

// Start clears the screen and draws the empty card and the prompt.
func (t *Terminal) Start() {
	t.started = true
	if t.interactive {
		t.write("\033[2J\033[H")
	}
	t.write(strings.Join(t.Frame(), "\n") + "\n")
	t.Prompt()
}

// Prompt moves below the card, erases stale input and asks for a ZIP code.
func (t *Terminal) Prompt() {
	if t.interactive {
		t.write(fmt.Sprintf("\033[%d;1H\033[J", len(t.Frame())+2))
	}
	t.write(accent.Sprint(PromptText))
}

// Frame returns the card as lines of text, without trailing newlines.
// The number of lines does not depend on the card's content.
func (t *Terminal) Frame() []string {
	var lines []string
	lines = append(lines, t.header()...)
	lines = append(lines, "")
	if t.errMsg != "" {
		lines = append(lines, "  "+errColor.Sprint("⚠️  "+t.errMsg))
	} else {
		lines = append(lines, "")
	}
	lines = append(lines, "", "  "+t.sleepChips(), "")
	lines = append(lines, t.cardLines()...)
	return lines
}

func (t *Terminal) header() []string {
	if len(t.logo) == 0 {
		return []string{"  " + errColor.Sprint("[logo unavailable]") + "  " + accent.Sprint(Title)}
	}
	lines := make([]string, 0, len(t.logo))
	mid := len(t.logo) / 2
	for i, row := range t.logo {
		if i == mid {
			row += "  " + accent.Sprint(Title)
		}
		lines = append(lines, "  "+row)
	}
	return lines
}

func (t *Terminal) sleepChips() string {
	var state *sleep.State
	if t.card != nil {
		state = &t.card.Sleep
	}
	sleeping := chip("🌙 Sleeping hours", state != nil && *state == sleep.Sleeping, sleepOn)
	normal := chip("☀️  Normal hours", state != nil && *state == sleep.Normal, normalOn)
	return sleeping + "   " + normal
}

func (t *Terminal) cardLines() []string {
	city, state, zone := placeholder, placeholder, placeholder
	timeText, dateText := "Current time", ""
	dst := chip("⏱ DST", false, blueOn)
	utc := chip("🌐 UTC offset", false, blueOn)

	if c := t.card; c != nil {
		city, state, zone = c.Location.City, c.Location.State, c.USName
		timeText, dateText = c.Clock.Clock(), c.Clock.Date()
		dstWord := "no"
		if c.Clock.IsDST {
			dstWord = "yes"
		}
		dst = chip("⏱ DST: "+dstWord, c.Clock.IsDST, blueOn)
		utc = chip("🌐 "+c.Clock.Offset(), true, blueOn)
	}

	rule := "  " + label.Sprint(strings.Repeat("─", cardWidth))
	return []string{
		rule,
		"    " + label.Sprint(pad("City", 20)+pad("State", 10)+"US time zone"),
		"    " + value.Sprint(pad(city, 20)+pad(state, 10)) + accent.Sprint(zone),
		"",
		"    " + clock.Sprint(timeText),
		"    " + label.Sprint(dateText),
		"",
		"    " + dst + "   " + utc,
		rule,
	}
}

func chip(text string, active bool, on *color.Color) string {
	if active {
		return on.Sprint(" " + text + " ")
	}
	return chipOff.Sprint(" " + text + " ")
}

// pad left-aligns s in width runes, always leaving at least one space.
func pad(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-n)
}

func (t *Terminal) draw() {
	if !t.started && t.interactive {
		return
	}
	frame := t.Frame()
	if !t.interactive {
		t.write(strings.Join(frame, "\n") + "\n")
		return
	}
	var b strings.Builder
	b.WriteString("\0337\033[H")
	for _, line := range frame {
		b.WriteString(line)
		b.WriteString("\033[K\n")
	}
	b.WriteString("\0338")
	t.write(b.String())
}

func (t *Terminal) write(s string) {
	if _, err := io.WriteString(t.out, s); err != nil {
		t.logger.Debug("failed to write to terminal", "error", err)
	}
}
