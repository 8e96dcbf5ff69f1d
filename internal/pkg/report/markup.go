package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	markupCodeBlock   = regexp.MustCompile(`(?s)\{code(?::[^}]*)?\}(.*?)\{code\}`)
	markupNoFormat    = regexp.MustCompile(`(?s)\{noformat\}(.*?)\{noformat\}`)
	markupInlineCode  = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	markupSectionA    = regexp.MustCompile(`\n*\+\*([^*+\n]+):\*\+\n*`)
	markupSectionB    = regexp.MustCompile(`\n*\*\+([^*+\n]+):\+\*\n*`)
	markupTitleA      = regexp.MustCompile(`\+\*([^*+\n]+)\*\+`)
	markupTitleB      = regexp.MustCompile(`\*\+([^*+\n]+)\+\*`)
	markupHeading     = regexp.MustCompile(`(?m)^h[1-6]\.\s+(.+)$`)
	markupBullet      = regexp.MustCompile(`^\s*(?:[*\-•]+)\s+(.*)$`)
	markupNumbered    = regexp.MustCompile(`^\s*#+\s+(.*)$`)
	markupOrdered     = regexp.MustCompile(`^\s*(\d+)\.\s+(.*)$`)
	markupBold        = regexp.MustCompile(`\*([^*\n]+)\*`)
	markupItalic      = regexp.MustCompile(`(^|[^\w])_([^_\n]+)_([^\w]|$)`)
	markupStrike      = regexp.MustCompile(`(^|[\s(])-([^\s\-][^\-\n]*?)-([\s).,;:]|$)`)
	markupLink        = regexp.MustCompile(`\[([^|\]\n]+)\|([^\]\n]+)\]`)
	markupPlaceholder = regexp.MustCompile(`\x00(\d+)\x00`)
	markupBlankRuns   = regexp.MustCompile(`\n{4,}`)
)

// Markup renders JIRA wiki markup for the terminal: sections become
// upper-case headers, emphasis and code are colored, [text|url] becomes a
// hyperlink and lists are indented.
func (r *Renderer) Markup(text string) string {
	text = strings.TrimSpace(strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text))
	if text == "" {
		return ""
	}

	// code is swapped out first so emphasis rules never touch it
	var stash []string
	keep := func(s string) string {
		stash = append(stash, s)
		return fmt.Sprintf("\x00%d\x00", len(stash)-1)
	}
	codeBlock := func(body string) string {
		return keep(fmt.Sprintf("\n%s\n%s\n%s\n",
			r.Paint(ToneHeader, "┌─ CODE BLOCK"),
			r.Paint(ToneCode, strings.Trim(body, "\n")),
			r.Paint(ToneHeader, "└─")))
	}
	text = markupCodeBlock.ReplaceAllStringFunc(text, func(m string) string {
		return codeBlock(markupCodeBlock.FindStringSubmatch(m)[1])
	})
	text = markupNoFormat.ReplaceAllStringFunc(text, func(m string) string {
		return codeBlock(markupNoFormat.FindStringSubmatch(m)[1])
	})
	text = markupInlineCode.ReplaceAllStringFunc(text, func(m string) string {
		return keep(r.Paint(ToneCode, "`"+markupInlineCode.FindStringSubmatch(m)[1]+"`"))
	})
	text = markupLink.ReplaceAllStringFunc(text, func(m string) string {
		sub := markupLink.FindStringSubmatch(m)
		return keep(r.Hyperlink(r.Paint(ToneNeutral, sub[1]), strings.TrimSpace(sub[2])))
	})

	section := func(re *regexp.Regexp) func(string) string {
		return func(m string) string {
			name := strings.ToUpper(strings.TrimSpace(re.FindStringSubmatch(m)[1]))
			return "\n\n" + keep(r.Paint(ToneHeader, name+":")) + "\n\n"
		}
	}
	text = markupSectionA.ReplaceAllStringFunc(text, section(markupSectionA))
	text = markupSectionB.ReplaceAllStringFunc(text, section(markupSectionB))
	title := func(re *regexp.Regexp) func(string) string {
		return func(m string) string {
			return keep(r.Paint(ToneHeader, strings.TrimSpace(re.FindStringSubmatch(m)[1])))
		}
	}
	text = markupTitleA.ReplaceAllStringFunc(text, title(markupTitleA))
	text = markupTitleB.ReplaceAllStringFunc(text, title(markupTitleB))
	text = markupHeading.ReplaceAllStringFunc(text, func(m string) string {
		return keep(r.Paint(ToneHeader, strings.ToUpper(markupHeading.FindStringSubmatch(m)[1])))
	})

	text = r.markupLists(text)

	text = markupBold.ReplaceAllStringFunc(text, func(m string) string {
		return r.Paint(ToneNeutral, markupBold.FindStringSubmatch(m)[1])
	})
	text = markupItalic.ReplaceAllStringFunc(text, func(m string) string {
		sub := markupItalic.FindStringSubmatch(m)
		return sub[1] + r.Paint(ToneNeutral, sub[2]) + sub[3]
	})
	text = markupStrike.ReplaceAllStringFunc(text, func(m string) string {
		sub := markupStrike.FindStringSubmatch(m)
		return sub[1] + r.Paint(ToneNegative, sub[2]) + sub[3]
	})

	for markupPlaceholder.MatchString(text) {
		text = markupPlaceholder.ReplaceAllStringFunc(text, func(m string) string {
			i, err := strconv.Atoi(markupPlaceholder.FindStringSubmatch(m)[1])
			if err != nil || i >= len(stash) {
				return ""
			}
			return stash[i]
		})
	}

	text = markupBlankRuns.ReplaceAllString(text, "\n\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// markupLists indents bullet and numbered list items. "#" items are numbered
// per consecutive run.
func (r *Renderer) markupLists(text string) string {
	lines := strings.Split(text, "\n")
	n := 0
	for i, line := range lines {
		switch {
		case markupNumbered.MatchString(line):
			n++
			lines[i] = fmt.Sprintf("  %d. %s", n, markupNumbered.FindStringSubmatch(line)[1])
			continue
		case markupOrdered.MatchString(line):
			sub := markupOrdered.FindStringSubmatch(line)
			lines[i] = fmt.Sprintf("  %s. %s", sub[1], sub[2])
		case markupBullet.MatchString(line):
			lines[i] = "  • " + markupBullet.FindStringSubmatch(line)[1]
		}
		n = 0
	}
	return strings.Join(lines, "\n")
}
