package gather

import (
	"strings"
	"testing"
)

const samplePage = `<html><body>
<h1>The Happy Prince, and Other Tales</h1>
<h2>The Happy Prince.</h2>
<p>High above the city, on a tall column, stood the statue.</p>
<p>He was gilded all over with thin leaves of fine gold.</p>
<pre>  an indented fragment  </pre>
<h2>The Nightingale and the Rose.</h2>
<p>She said that she would dance with me.</p>
<div>footer</div>
</body></html>`

func TestSectionAfterHeading(t *testing.T) {
	text, ok := SectionAfterHeading(samplePage, "The Happy Prince.", SectionOptions{})
	if !ok {
		t.Fatal("SectionAfterHeading() heading not found")
	}
	if !strings.Contains(text, "tall column") {
		t.Errorf("text = %q, want first paragraph", text)
	}
	if !strings.Contains(text, "thin leaves") {
		t.Errorf("text = %q, want second paragraph", text)
	}
	if !strings.Contains(text, "indented fragment") {
		t.Errorf("text = %q, want pre content", text)
	}
	if strings.Contains(text, "dance with me") {
		t.Errorf("text = %q, section ran past the next heading", text)
	}
}

func TestSectionAfterHeading_SecondSection(t *testing.T) {
	text, ok := SectionAfterHeading(samplePage, "The Nightingale and the Rose.", SectionOptions{})
	if !ok {
		t.Fatal("SectionAfterHeading() heading not found")
	}
	if !strings.Contains(text, "dance with me") {
		t.Errorf("text = %q, want nightingale paragraph", text)
	}
	if strings.Contains(text, "footer") {
		t.Errorf("text = %q, section ran into the trailing div", text)
	}
}

func TestSectionAfterHeading_MissingHeading(t *testing.T) {
	_, ok := SectionAfterHeading(samplePage, "The Selfish Giant.", SectionOptions{})
	if ok {
		t.Error("SectionAfterHeading() found a heading that is not in the page")
	}
}

func TestSectionAfterHeading_CustomTags(t *testing.T) {
	page := `<html><body>
<h3>Chapter One</h3>
<p>Kept paragraph.</p>
<table><tr><td>tabular text</td></tr></table>
<h3>Chapter Two</h3>
</body></html>`

	text, ok := SectionAfterHeading(page, "Chapter One", SectionOptions{
		HeadingTags:  []string{"h3"},
		DivisionTags: []string{"h3"},
		BodyTags:     []string{"p", "table"},
	})
	if !ok {
		t.Fatal("heading not found")
	}
	if !strings.Contains(text, "Kept paragraph") || !strings.Contains(text, "tabular text") {
		t.Errorf("text = %q, want p and table content", text)
	}
}

func TestTitleToFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"The Gift of the Magi", "the_gift_of_the_magi"},
		{"The Nightingale and the Rose.", "the_nightingale_and_the_rose"},
		{"  Spaced   Out  ", "spaced_out"},
		{"O'Brien's 2nd Tale!", "obriens_2nd_tale"},
	}
	for _, tt := range tests {
		if got := TitleToFilename(tt.title); got != tt.want {
			t.Errorf("TitleToFilename(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
