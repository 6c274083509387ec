package learn

import "fmt"

// pageInfoJS reports the live page's URL and title for interaction context.
const pageInfoJS = `() => JSON.stringify({url: location.href, title: document.title})`

type pageInfo struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// countJS builds a count-only query for a rule's selector. Generalized
// selectors are plain CSS, so querySelectorAll suffices.
func countJS(selector string) string {
	return fmt.Sprintf(`() => JSON.stringify(document.querySelectorAll(%q).length)`, selector)
}

// extractJS pulls raw material for every element matching selector; the
// transform is applied Go-side so it stays a pure, testable function.
func extractJS(selector string) string {
	return fmt.Sprintf(`() => {
		const out = [];
		for (const el of document.querySelectorAll(%q)) {
			out.push({
				text: (el.textContent || '').trim(),
				href: el.href || el.getAttribute('href') || '',
				datetime: el.getAttribute('datetime') || '',
				kind: el.tagName.toLowerCase()
			});
		}
		return JSON.stringify(out);
	}`, selector)
}

type rawExtract struct {
	Text     string `json:"text"`
	Href     string `json:"href"`
	Datetime string `json:"datetime"`
	Kind     string `json:"kind"`
}
