package diffdoc

import (
	"path"

	"github.com/alecthomas/chroma/v2/lexers"
)

// languageFor names the syntax lexer matching the section's file, or returns
// "" when none matches.
func languageFor(sec FileSection) string {
	p := sec.NewPath
	if p == "" || p == devNull {
		p = sec.OldPath
	}
	if p == "" || p == devNull {
		return ""
	}
	lexer := lexers.Match(path.Base(p))
	if lexer == nil {
		return ""
	}
	return lexer.Config().Name
}
