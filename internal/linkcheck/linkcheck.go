// Package linkcheck verifies relative links in generated wiki sources and,
// when a rendered book exists, in its HTML. Broken links are warnings and
// optional events; they never fail a build.
package linkcheck

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/repowiki/internal/events"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

// BrokenLink is one unresolvable link.
type BrokenLink struct {
	Source string
	Target string
	Reason string
}

// Checker walks generated sources for broken relative links.
type Checker struct {
	// Events receives BrokenLinkEvents; nil disables publishing.
	Events *events.Publisher
}

// Check scans every .md file under srcDir and every .html file under a
// sibling book/ directory if one exists. Absolute URLs, anchors and mailto
// links are skipped; a relative target must exist on disk.
func (c *Checker) Check(srcDir string) []BrokenLink {
	var broken []BrokenLink

	_ = filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		broken = append(broken, c.checkMarkdown(p)...)
		return nil
	})

	bookDir := filepath.Join(filepath.Dir(srcDir), "book")
	if info, err := os.Stat(bookDir); err == nil && info.IsDir() {
		_ = filepath.WalkDir(bookDir, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(p, ".html") {
				return nil
			}
			broken = append(broken, c.checkHTML(p)...)
			return nil
		})
	}

	for _, b := range broken {
		slog.Warn("Broken link",
			logfields.File(b.Source),
			slog.String("target", b.Target),
			slog.String("reason", b.Reason))
		if c.Events != nil {
			events.WarnOnPublishError(c.Events.PublishBrokenLink(events.BrokenLinkEvent{
				Source: b.Source,
				Target: b.Target,
				Reason: b.Reason,
			}))
		}
	}
	return broken
}

func (c *Checker) checkMarkdown(path string) []BrokenLink {
	src, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Cannot read generated source", logfields.File(path), logfields.Error(err))
		return nil
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	var broken []BrokenLink
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		var dest string
		switch node := n.(type) {
		case *gmast.Link:
			dest = string(node.Destination)
		case *gmast.Image:
			dest = string(node.Destination)
		default:
			return gmast.WalkContinue, nil
		}
		if bl := verify(path, dest); bl != nil {
			broken = append(broken, *bl)
		}
		return gmast.WalkContinue, nil
	})
	return broken
}

func (c *Checker) checkHTML(path string) []BrokenLink {
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("Cannot read rendered page", logfields.File(path), logfields.Error(err))
		return nil
	}
	defer f.Close()

	var broken []BrokenLink
	tok := html.NewTokenizer(f)
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			return broken
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := tok.TagName()
		if string(name) != "a" || !hasAttr {
			continue
		}
		for {
			key, val, more := tok.TagAttr()
			if string(key) == "href" {
				if bl := verify(path, string(val)); bl != nil {
					broken = append(broken, *bl)
				}
			}
			if !more {
				break
			}
		}
	}
}

// verify resolves dest relative to the source file and reports a missing
// target. External schemes and in-page anchors are out of scope.
func verify(source, dest string) *BrokenLink {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "mailto:") {
		return nil
	}
	if strings.Contains(dest, "://") || strings.HasPrefix(dest, "//") {
		return nil
	}
	target := dest
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return nil
	}
	resolved := filepath.Join(filepath.Dir(source), filepath.FromSlash(target))
	if _, err := os.Stat(resolved); err != nil {
		return &BrokenLink{Source: source, Target: dest, Reason: "target does not exist"}
	}
	return nil
}
