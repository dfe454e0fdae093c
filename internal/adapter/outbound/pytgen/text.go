package pytgen

import "strings"

var markupStripper = strings.NewReplacer(
	"<xdoc>", "", "</xdoc>", "",
	"<p>", "", "</p>", "",
	"<span>", "", "</span>", "",
)

// stripMarkup removes the document, paragraph and span tags used in archive
// descriptions and trims surrounding whitespace.
func stripMarkup(s string) string {
	return strings.TrimSpace(markupStripper.Replace(s))
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

// quote renders s as a double-quoted Python string literal.
func quote(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = quote(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// commentText flattens s onto a single line for use in a comment.
func commentText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
