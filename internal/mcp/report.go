package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/ctagard/cdb-mcp/internal/cdb"
)

// commandRunner is the slice of a session that report building needs.
type commandRunner interface {
	Run(ctx context.Context, command string, timeout time.Duration) (*cdb.CommandResult, error)
}

// analysisSection pairs a report heading with the debugger command that
// produces its content.
type analysisSection struct {
	title   string
	command string
}

// dumpAnalysisSections returns the commands run automatically when a dump is
// opened: the faulting event, then the full crash analysis, then whichever
// optional surveys the caller asked for.
func dumpAnalysisSections(includeStack, includeModules, includeThreads bool) []analysisSection {
	sections := []analysisSection{
		{title: "Last Event", command: ".lastevent"},
		{title: "Detailed Analysis", command: "!analyze -v"},
	}
	return append(sections, optionalSections(includeStack, includeModules, includeThreads)...)
}

// remoteSurveySections returns the commands run automatically when a remote
// session is opened. A live debuggee has no crash to analyze, so the survey
// covers process state instead.
func remoteSurveySections(includeStack, includeModules, includeThreads bool) []analysisSection {
	sections := []analysisSection{
		{title: "Process Environment Block (PEB)", command: "!peb"},
		{title: "Registers", command: "r"},
	}
	return append(sections, optionalSections(includeStack, includeModules, includeThreads)...)
}

func optionalSections(includeStack, includeModules, includeThreads bool) []analysisSection {
	var sections []analysisSection
	if includeStack {
		sections = append(sections, analysisSection{title: "Stack Trace", command: "kb"})
	}
	if includeModules {
		sections = append(sections, analysisSection{title: "Loaded Modules", command: "lm"})
	}
	if includeThreads {
		sections = append(sections, analysisSection{title: "Thread List", command: "~"})
	}
	return sections
}

// reportBuilder assembles the markdown report returned by the open tools:
// a title heading followed by sections whose debugger output is fenced in
// triple backticks.
type reportBuilder struct {
	lines []string
}

func newReport(title string) *reportBuilder {
	return &reportBuilder{lines: []string{"# " + title, ""}}
}

// Section appends a heading with its fenced debugger output.
func (b *reportBuilder) Section(title, body string) {
	b.lines = append(b.lines, "## "+title, "```")
	if body != "" {
		b.lines = append(b.lines, body)
	}
	b.lines = append(b.lines, "```", "")
}

// SectionError appends a heading whose command failed. The report carries on;
// one slow or broken command should not cost the caller the whole analysis.
func (b *reportBuilder) SectionError(title string, err error) {
	b.Section(title, "Error: "+err.Error())
}

func (b *reportBuilder) String() string {
	return strings.Join(b.lines, "\n")
}

// buildSessionReport runs each section's command in the session and renders
// the combined report. Command failures become inline Error lines in their
// sections rather than aborting the report.
func (s *Server) buildSessionReport(ctx context.Context, sess commandRunner, title string, sections []analysisSection) string {
	rb := newReport(title)
	timeout := s.config.CommandTimeout()

	for _, sec := range sections {
		res, err := sess.Run(ctx, sec.command, timeout)
		if err != nil {
			rb.SectionError(sec.title, err)
			continue
		}
		rb.Section(sec.title, res.Output)
	}

	return rb.String()
}
