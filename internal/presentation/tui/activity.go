package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/scout/pkg/domain"
	"github.com/muesli/termenv"
)

// labels are the progress headings shown for each step.
var labels = map[string]string{
	"ResearchCoordinator": "Routing",
	"TriageAgent":         "Triage",
	"ResearchTeam":        "Research",
	"SetupAgent":          "Setup",
	"QueryGeneratorAgent": "Planning",
	"ResearchManager":     "Researching",
	"ResearcherAgent":     "Searching",
	"ReflectorAgent":      "Reflecting",
	"LoopController":      "Reviewing",
	"SummarizerAgent":     "Writing",
}

// Label returns the progress heading for an event author.
func Label(author string) string {
	if l, ok := labels[author]; ok {
		return l
	}
	return author
}

// Activity prints progress events and renders the final answer.
type Activity struct {
	out     io.Writer
	render  Renderer
	verbose bool
	profile termenv.Profile
}

// NewActivity creates an Activity writing to out. Verbose also prints
// intermediate oracle output such as research summaries.
func NewActivity(out io.Writer, render Renderer, verbose bool) *Activity {
	if render == nil {
		render = Plain
	}
	return &Activity{out: out, render: render, verbose: verbose, profile: termenv.EnvColorProfile()}
}

// Handle prints one event. It has the signature of a flow sink.
func (a *Activity) Handle(e domain.Event) error {
	switch {
	case e.Author == domain.AuthorUser:
		return nil
	case e.IsFinalResponse():
		text, err := a.render(e.Text)
		if err != nil {
			text = e.Text + "\n"
		}
		_, err = fmt.Fprint(a.out, "\n"+text)
		return err
	case e.Text == "":
		return nil
	}

	text := e.Text
	if !a.verbose {
		if !isStatus(e) {
			return nil
		}
		text = firstLine(text)
	}
	heading := a.profile.String(fmt.Sprintf("%-12s", Label(e.Author))).Foreground(a.profile.Color("#38bdf8"))
	_, err := fmt.Fprintf(a.out, "%s %s\n", heading, a.profile.String(text).Faint())
	return err
}

// isStatus reports whether the event is a progress message rather than raw oracle output.
func isStatus(e domain.Event) bool {
	switch e.Author {
	case "ResearcherAgent", "ReflectorAgent", "SummarizerAgent", "TriageAgent", "QueryGeneratorAgent":
		return false
	}
	return true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
